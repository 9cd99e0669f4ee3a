package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoService "github.com/keepsakevault/keepsake/internal/crypto/service"
	"github.com/keepsakevault/keepsake/internal/recovery/domain"
)

func TestShareSealer(t *testing.T) {
	sealer := NewShareSealer(cryptoService.NewAEADManager())
	planID := uuid.Must(uuid.NewV7())
	share := Share{Index: 2, Payload: randomSecret(t, 33)}

	t.Run("Success_SealThenOpen", func(t *testing.T) {
		sealed, trusteeKey, err := sealer.Seal(planID, share)
		require.NoError(t, err)
		require.Len(t, trusteeKey, 32)
		assert.Equal(t, share.Index, sealed.Index)
		assert.NotEqual(t, share.Payload, sealed.Ciphertext)

		payload, err := sealer.Open(planID, sealed.Index, sealed.Ciphertext, sealed.Nonce, trusteeKey)
		require.NoError(t, err)
		assert.Equal(t, share.Payload, payload)
	})

	t.Run("Success_EachSealUsesAFreshKey", func(t *testing.T) {
		_, firstKey, err := sealer.Seal(planID, share)
		require.NoError(t, err)
		_, secondKey, err := sealer.Seal(planID, share)
		require.NoError(t, err)
		assert.NotEqual(t, firstKey, secondKey)
	})

	t.Run("Error_WrongTrusteeKey", func(t *testing.T) {
		sealed, _, err := sealer.Seal(planID, share)
		require.NoError(t, err)

		_, err = sealer.Open(planID, sealed.Index, sealed.Ciphertext, sealed.Nonce, make([]byte, 32))
		assert.ErrorIs(t, err, domain.ErrInvalidShare)
	})

	t.Run("Error_TamperedCiphertext", func(t *testing.T) {
		sealed, trusteeKey, err := sealer.Seal(planID, share)
		require.NoError(t, err)

		sealed.Ciphertext[0] ^= 0x01
		_, err = sealer.Open(planID, sealed.Index, sealed.Ciphertext, sealed.Nonce, trusteeKey)
		assert.ErrorIs(t, err, domain.ErrInvalidShare)
	})

	t.Run("Error_WrongShareIndex", func(t *testing.T) {
		sealed, trusteeKey, err := sealer.Seal(planID, share)
		require.NoError(t, err)

		// The AAD binds the index, so a share cannot be replayed into
		// another trustee's slot.
		_, err = sealer.Open(planID, sealed.Index+1, sealed.Ciphertext, sealed.Nonce, trusteeKey)
		assert.ErrorIs(t, err, domain.ErrInvalidShare)
	})

	t.Run("Error_IndexNotTruncatedToByte", func(t *testing.T) {
		// Indices 2 and 258 collide modulo 256; the fixed-width AAD encoding
		// must keep them distinct.
		sealed, trusteeKey, err := sealer.Seal(planID, share)
		require.NoError(t, err)

		_, err = sealer.Open(planID, sealed.Index+256, sealed.Ciphertext, sealed.Nonce, trusteeKey)
		assert.ErrorIs(t, err, domain.ErrInvalidShare)
	})

	t.Run("Error_WrongPlan", func(t *testing.T) {
		sealed, trusteeKey, err := sealer.Seal(planID, share)
		require.NoError(t, err)

		otherPlan := uuid.Must(uuid.NewV7())
		_, err = sealer.Open(otherPlan, sealed.Index, sealed.Ciphertext, sealed.Nonce, trusteeKey)
		assert.ErrorIs(t, err, domain.ErrInvalidShare)
	})

	t.Run("Error_InvalidKeySize", func(t *testing.T) {
		sealed, _, err := sealer.Seal(planID, share)
		require.NoError(t, err)

		_, err = sealer.Open(planID, sealed.Index, sealed.Ciphertext, sealed.Nonce, make([]byte, 16))
		assert.ErrorIs(t, err, domain.ErrInvalidShare)
	})
}
