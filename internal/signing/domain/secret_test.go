package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSecretRoundTrip(t *testing.T) {
	secret, err := GenerateWebhookSecret()
	require.NoError(t, err)
	require.Len(t, secret, 64)

	hash := HashWebhookSecret(secret)
	assert.NotEqual(t, secret, hash)
	assert.True(t, VerifyWebhookSecret(secret, hash))
}

func TestWebhookSecretMismatch(t *testing.T) {
	hash := HashWebhookSecret("correct-secret")

	assert.False(t, VerifyWebhookSecret("wrong-secret", hash))
	assert.False(t, VerifyWebhookSecret("", hash))
	assert.False(t, VerifyWebhookSecret("correct-secret", ""))
	// The stored value is a hash, never the secret itself.
	assert.False(t, VerifyWebhookSecret(hash, hash))
}

func TestGenerateWebhookSecretUnique(t *testing.T) {
	a, err := GenerateWebhookSecret()
	require.NoError(t, err)
	b, err := GenerateWebhookSecret()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
