package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/keepsakevault/keepsake/internal/crypto/domain"
)

// ContentKeyManagerService implements the ContentKeyManager interface for the
// two-tier envelope scheme.
//
// A fresh random content key is generated per stored document version, wrapped
// immediately with the session's vault master key, and used once to encrypt the
// payload. Wrapping and payload encryption share the same AEAD algorithms; the
// AEADManager dependency creates the cipher instances.
type ContentKeyManagerService struct {
	aeadManager AEADManager
}

// NewContentKeyManager creates a ContentKeyManagerService with the provided AEADManager.
func NewContentKeyManager(aeadManager AEADManager) *ContentKeyManagerService {
	return &ContentKeyManagerService{aeadManager: aeadManager}
}

// WrapNewKey generates a random 32-byte content key and wraps it with the
// vault master key.
//
// The returned ContentKey carries both forms: WrappedKey/WrapNonce for
// persistence and the plaintext Key for the immediate payload encryption. The
// caller must zeroize Key via domain.Zero as soon as the payload has been
// encrypted; the vault master key itself is not zeroized here since it is
// reused across documents within the session.
func (cm *ContentKeyManagerService) WrapNewKey(
	vmk *cryptoDomain.VaultMasterKey,
	alg cryptoDomain.Algorithm,
) (cryptoDomain.ContentKey, error) {
	cekKey := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(cekKey); err != nil {
		return cryptoDomain.ContentKey{}, fmt.Errorf("failed to generate content key: %w", err)
	}

	aead, err := cm.aeadManager.CreateCipher(vmk.Key, alg)
	if err != nil {
		cryptoDomain.Zero(cekKey)
		return cryptoDomain.ContentKey{}, err
	}

	wrapped, nonce, err := aead.Encrypt(cekKey, nil)
	if err != nil {
		cryptoDomain.Zero(cekKey)
		return cryptoDomain.ContentKey{}, fmt.Errorf("failed to wrap content key: %w", err)
	}

	return cryptoDomain.ContentKey{
		ID:         uuid.Must(uuid.NewV7()),
		Algorithm:  alg,
		WrappedKey: wrapped,
		WrapNonce:  nonce,
		Key:        cekKey,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Unwrap recovers the plaintext content key using the vault master key.
//
// A tag mismatch means wrong key or tampered/corrupted data and surfaces as
// ErrAuthenticationFailed with no partial output. The caller zeroizes the
// returned key when done.
func (cm *ContentKeyManagerService) Unwrap(
	cek *cryptoDomain.ContentKey,
	vmk *cryptoDomain.VaultMasterKey,
) ([]byte, error) {
	aead, err := cm.aeadManager.CreateCipher(vmk.Key, cek.Algorithm)
	if err != nil {
		return nil, err
	}

	key, err := aead.Decrypt(cek.WrappedKey, cek.WrapNonce, nil)
	if err != nil {
		return nil, cryptoDomain.ErrAuthenticationFailed
	}
	return key, nil
}

// EncryptPayload encrypts document bytes with the content key.
//
// The ContentKey must have its plaintext Key populated (fresh from WrapNewKey
// or recovered via Unwrap). An independent SHA-256 checksum of the ciphertext
// is computed for at-rest integrity checks outside the AEAD tag.
func (cm *ContentKeyManagerService) EncryptPayload(
	plaintext []byte,
	cek *cryptoDomain.ContentKey,
) (cryptoDomain.EncryptedBlob, error) {
	aead, err := cm.aeadManager.CreateCipher(cek.Key, cek.Algorithm)
	if err != nil {
		return cryptoDomain.EncryptedBlob{}, err
	}

	ciphertext, nonce, err := aead.Encrypt(plaintext, nil)
	if err != nil {
		return cryptoDomain.EncryptedBlob{}, fmt.Errorf("failed to encrypt payload: %w", err)
	}

	checksum := sha256.Sum256(ciphertext)

	return cryptoDomain.EncryptedBlob{
		Ciphertext: ciphertext,
		Nonce:      nonce,
		Checksum:   checksum[:],
	}, nil
}

// DecryptPayload verifies the stored checksum and the AEAD tag, then returns
// the plaintext.
//
// A checksum mismatch points at storage-layer corruption and surfaces as
// ErrChecksumMismatch before any decryption is attempted; a tag mismatch
// surfaces as ErrAuthenticationFailed. Either way no plaintext is returned.
func (cm *ContentKeyManagerService) DecryptPayload(
	blob *cryptoDomain.EncryptedBlob,
	cek *cryptoDomain.ContentKey,
) ([]byte, error) {
	if len(blob.Checksum) > 0 {
		computed := sha256.Sum256(blob.Ciphertext)
		if subtle.ConstantTimeCompare(computed[:], blob.Checksum) != 1 {
			return nil, cryptoDomain.ErrChecksumMismatch
		}
	}

	aead, err := cm.aeadManager.CreateCipher(cek.Key, cek.Algorithm)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Decrypt(blob.Ciphertext, blob.Nonce, nil)
	if err != nil {
		return nil, cryptoDomain.ErrAuthenticationFailed
	}
	return plaintext, nil
}
