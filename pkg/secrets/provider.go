package secrets

import (
	"context"
	"fmt"
)

// Provider defines a generic secrets manager interface.
type Provider interface {
	// GetSecret retrieves a secret by id and returns its key-value map.
	GetSecret(ctx context.Context, id string) (map[string]string, error)
}

// Lookup fetches a single field of a JSON secret.
func Lookup(ctx context.Context, p Provider, id, field string) (string, error) {
	values, err := p.GetSecret(ctx, id)
	if err != nil {
		return "", err
	}
	v, ok := values[field]
	if !ok || v == "" {
		return "", fmt.Errorf("secret [%s] has no %q field", id, field)
	}
	return v, nil
}
