package service

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_GenerateToken(t *testing.T) {
	service := NewTokenService()

	t.Run("Success_GeneratesRandomToken", func(t *testing.T) {
		plainToken, tokenHash, err := service.GenerateToken()
		require.NoError(t, err)

		decoded, err := base64.URLEncoding.DecodeString(plainToken)
		require.NoError(t, err)
		assert.Len(t, decoded, 32)

		hashBytes, err := hex.DecodeString(tokenHash)
		require.NoError(t, err)
		assert.Len(t, hashBytes, 32)
	})

	t.Run("Success_HashMatchesPlainToken", func(t *testing.T) {
		plainToken, tokenHash, err := service.GenerateToken()
		require.NoError(t, err)

		assert.Equal(t, tokenHash, service.HashToken(plainToken))
	})

	t.Run("Success_TokensAreUnique", func(t *testing.T) {
		first, _, err := service.GenerateToken()
		require.NoError(t, err)

		second, _, err := service.GenerateToken()
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})
}

func TestTokenService_HashToken(t *testing.T) {
	service := NewTokenService()

	t.Run("Success_Deterministic", func(t *testing.T) {
		assert.Equal(t, service.HashToken("some-token"), service.HashToken("some-token"))
	})

	t.Run("Success_DifferentTokensDifferentHashes", func(t *testing.T) {
		assert.NotEqual(t, service.HashToken("token-a"), service.HashToken("token-b"))
	})
}
