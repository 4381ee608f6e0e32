package utils

import "regexp"

var (
	dsnPasswordRegex   = regexp.MustCompile(`(:)([^:@/]+)(@)`)
	queryPasswordRegex = regexp.MustCompile(`(?i)(password=)([^&\s]+)`)
)

// MaskDSN hides the password in a connection string, covering both the
// URL form (user:pass@host) and the key=value form (password=...).
func MaskDSN(dsn string) string {
	masked := dsnPasswordRegex.ReplaceAllString(dsn, ":***@")
	return queryPasswordRegex.ReplaceAllString(masked, "${1}***")
}
