package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/keepsakevault/keepsake/internal/crypto/domain"
)

// testKDFParams uses low Argon2id costs to keep the suite fast; production
// costs come from configuration.
var testKDFParams = KDFParams{MemoryKiB: 1024, Iterations: 1, Parallelism: 1}

func TestArgon2Deriver_Derive(t *testing.T) {
	deriver := NewArgon2Deriver(testKDFParams)

	t.Run("Success_GeneratesSaltWhenOmitted", func(t *testing.T) {
		vmk, err := deriver.Derive([]byte("correct horse battery staple"), nil)
		require.NoError(t, err)
		assert.Len(t, vmk.Key, cryptoDomain.KeySize)
		assert.Len(t, vmk.Salt, cryptoDomain.SaltSize)
	})

	t.Run("Deterministic_SamePassphraseAndSalt", func(t *testing.T) {
		first, err := deriver.Derive([]byte("correct horse battery staple"), nil)
		require.NoError(t, err)

		second, err := deriver.Derive([]byte("correct horse battery staple"), first.Salt)
		require.NoError(t, err)
		assert.Equal(t, first.Key, second.Key)
	})

	t.Run("DifferentSaltsYieldDifferentKeys", func(t *testing.T) {
		first, err := deriver.Derive([]byte("correct horse battery staple"), nil)
		require.NoError(t, err)
		second, err := deriver.Derive([]byte("correct horse battery staple"), nil)
		require.NoError(t, err)
		assert.NotEqual(t, first.Key, second.Key)
	})

	t.Run("DifferentPassphrasesYieldDifferentKeys", func(t *testing.T) {
		salt := make([]byte, cryptoDomain.SaltSize)
		first, err := deriver.Derive([]byte("passphrase one"), salt)
		require.NoError(t, err)
		second, err := deriver.Derive([]byte("passphrase two"), salt)
		require.NoError(t, err)
		assert.NotEqual(t, first.Key, second.Key)
	})

	t.Run("Error_EmptyPassphrase", func(t *testing.T) {
		_, err := deriver.Derive(nil, nil)
		assert.ErrorIs(t, err, cryptoDomain.ErrKeyDerivation)
	})

	t.Run("Error_ShortSalt", func(t *testing.T) {
		_, err := deriver.Derive([]byte("pass"), []byte("short"))
		assert.ErrorIs(t, err, cryptoDomain.ErrKeyDerivation)
	})

	t.Run("Error_ZeroCostParams", func(t *testing.T) {
		bad := NewArgon2Deriver(KDFParams{})
		_, err := bad.Derive([]byte("pass"), nil)
		assert.ErrorIs(t, err, cryptoDomain.ErrKeyDerivation)
	})

	t.Run("WeakPassphraseStillDerives", func(t *testing.T) {
		// Strength is advisory only and never gates derivation.
		vmk, err := deriver.Derive([]byte("password"), nil)
		require.NoError(t, err)
		assert.Len(t, vmk.Key, cryptoDomain.KeySize)
	})
}

func TestCheckPassphrase(t *testing.T) {
	tests := []struct {
		name       string
		passphrase string
		wantScore  func(int) bool
		wantValid  bool
	}{
		{"DenyListed", "password", func(s int) bool { return s == 0 }, false},
		{"DenyListedCaseInsensitive", "PaSsWoRd", func(s int) bool { return s == 0 }, false},
		{"Empty", "", func(s int) bool { return s == 0 }, false},
		{"StrongMixed", "Tr0ub4dor&3xyz", func(s int) bool { return s >= 70 }, true},
		{"ShortLowercase", "abc", func(s int) bool { return s < PassphraseValidThreshold }, false},
		{"LongDiverse", "A long passphrase with Numb3rs & symbols!", func(s int) bool { return s == 100 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckPassphrase(tt.passphrase)
			assert.True(t, tt.wantScore(got.Score), "unexpected score %d", got.Score)
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.GreaterOrEqual(t, got.Score, 0)
			assert.LessOrEqual(t, got.Score, 100)
		})
	}
}
