package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets struct {
	values map[string]string
	err    error
	gotID  string
}

func (f *fakeSecrets) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.gotID = aws.ToString(in.SecretId)
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.values[f.gotID]
	if !ok {
		return &secretsmanager.GetSecretValueOutput{}, nil
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v)}, nil
}

func TestGetSecret_DecodesJSON(t *testing.T) {
	client := &fakeSecrets{values: map[string]string{
		"prod/pricing/audit-db": `{"dsn":"postgres://u:p@db/pricing"}`,
	}}
	p := NewProviderWithClient(client)

	got, err := p.GetSecret(context.Background(), "prod/pricing/audit-db")
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db/pricing", got["dsn"])
	assert.Equal(t, "prod/pricing/audit-db", client.gotID)
}

func TestGetSecret_Errors(t *testing.T) {
	p := NewProviderWithClient(&fakeSecrets{err: errors.New("access denied")})
	_, err := p.GetSecret(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")

	p = NewProviderWithClient(&fakeSecrets{values: map[string]string{"bad": "not-json"}})
	_, err = p.GetSecret(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid secret format")

	p = NewProviderWithClient(&fakeSecrets{})
	_, err = p.GetSecret(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no string value")
}

func TestLookup(t *testing.T) {
	p := NewProviderWithClient(&fakeSecrets{values: map[string]string{
		"db": `{"dsn":"postgres://db/pricing","empty":""}`,
	}})

	dsn, err := Lookup(context.Background(), p, "db", "dsn")
	require.NoError(t, err)
	assert.Equal(t, "postgres://db/pricing", dsn)

	_, err = Lookup(context.Background(), p, "db", "empty")
	assert.Error(t, err)

	_, err = Lookup(context.Background(), p, "db", "missing")
	assert.Error(t, err)
}
