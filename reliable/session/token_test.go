//go:build unit

package session

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRefreshToken(t *testing.T) {
	t.Parallel()

	token, hash, err := newRefreshToken()
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, raw, tokenBytes)

	assert.Equal(t, HashToken(token), hash)
	assert.Len(t, hash, 64)
	assert.NotContains(t, hash, token)

	other, otherHash, err := newRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
	assert.NotEqual(t, hash, otherHash)
}

func TestHashesEqual(t *testing.T) {
	t.Parallel()

	hash := HashToken("some-token")

	assert.True(t, hashesEqual(hash, HashToken("some-token")))
	assert.False(t, hashesEqual(hash, HashToken("other-token")))
}
