package service

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/google/uuid"

	cryptoDomain "github.com/keepsakevault/keepsake/internal/crypto/domain"
	cryptoService "github.com/keepsakevault/keepsake/internal/crypto/service"
	apperrors "github.com/keepsakevault/keepsake/internal/errors"
	"github.com/keepsakevault/keepsake/internal/recovery/domain"
)

// ShareSealer seals threshold shares to their designated trustees. Each seal
// uses a fresh random trustee key that is returned to the caller exactly once
// for out-of-band delivery; plan storage keeps only the ciphertext, so the
// operator's database can never produce a usable share on its own.
type ShareSealer interface {
	// Seal encrypts a share payload under a new trustee key. The AAD binds
	// the ciphertext to the plan and share index so a sealed share cannot be
	// replayed into another slot.
	Seal(planID uuid.UUID, share Share) (sealed SealedShare, trusteeKey []byte, err error)

	// Open decrypts a sealed share with its trustee key. Authentication
	// failure means a wrong key or a tampered share and surfaces as
	// ErrInvalidShare.
	Open(planID uuid.UUID, index int, ciphertext, nonce, trusteeKey []byte) ([]byte, error)
}

// SealedShare is the at-rest form of a trustee's share.
type SealedShare struct {
	Index      int
	Ciphertext []byte
	Nonce      []byte
}

type shareSealer struct {
	aeadManager cryptoService.AEADManager
}

// NewShareSealer creates a ShareSealer using ChaCha20-Poly1305.
func NewShareSealer(aeadManager cryptoService.AEADManager) ShareSealer {
	return &shareSealer{aeadManager: aeadManager}
}

// shareAAD binds a sealed share to its plan and index. The index is encoded
// fixed-width so the binding does not depend on callers staying within a
// single byte.
func shareAAD(planID uuid.UUID, index int) []byte {
	aad := make([]byte, 0, 18)
	aad = append(aad, planID[:]...)
	return binary.BigEndian.AppendUint16(aad, uint16(index))
}

func (s *shareSealer) Seal(planID uuid.UUID, share Share) (SealedShare, []byte, error) {
	trusteeKey := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(trusteeKey); err != nil {
		return SealedShare{}, nil, apperrors.Wrap(err, "failed to generate trustee key")
	}

	cipher, err := s.aeadManager.CreateCipher(trusteeKey, cryptoDomain.ChaCha20)
	if err != nil {
		cryptoDomain.Zero(trusteeKey)
		return SealedShare{}, nil, err
	}

	ciphertext, nonce, err := cipher.Encrypt(share.Payload, shareAAD(planID, share.Index))
	if err != nil {
		cryptoDomain.Zero(trusteeKey)
		return SealedShare{}, nil, err
	}

	return SealedShare{Index: share.Index, Ciphertext: ciphertext, Nonce: nonce}, trusteeKey, nil
}

func (s *shareSealer) Open(planID uuid.UUID, index int, ciphertext, nonce, trusteeKey []byte) ([]byte, error) {
	cipher, err := s.aeadManager.CreateCipher(trusteeKey, cryptoDomain.ChaCha20)
	if err != nil {
		return nil, domain.ErrInvalidShare
	}

	payload, err := cipher.Decrypt(ciphertext, nonce, shareAAD(planID, index))
	if err != nil {
		return nil, domain.ErrInvalidShare
	}
	return payload, nil
}
