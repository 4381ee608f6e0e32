package utils

import "testing"

func TestMaskDSN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"url form", "postgres://pricer:s3cret@db:5432/pricing", "postgres://pricer:***@db:5432/pricing"},
		{"query form", "host=db user=pricer password=s3cret dbname=pricing", "host=db user=pricer password=*** dbname=pricing"},
		{"no password", "postgres://db:5432/pricing", "postgres://db:5432/pricing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskDSN(tt.in); got != tt.want {
				t.Errorf("MaskDSN(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
