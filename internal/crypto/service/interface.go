// Package service provides the cryptographic primitives behind the vault:
// passphrase-based key derivation, AEAD ciphers (AES-256-GCM and
// ChaCha20-Poly1305), and envelope wrapping of content keys.
package service

import (
	cryptoDomain "github.com/keepsakevault/keepsake/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KeyDeriver turns a passphrase into a vault master key.
type KeyDeriver interface {
	// Derive derives the vault master key from a passphrase. If salt is nil a
	// random salt is generated and returned as part of the result; passing the
	// stored salt back re-derives the identical key byte for byte.
	Derive(passphrase []byte, salt []byte) (*cryptoDomain.VaultMasterKey, error)
}

// ContentKeyManager manages per-document content keys in the envelope scheme.
type ContentKeyManager interface {
	// WrapNewKey generates a fresh content key and wraps it with the vault
	// master key. The returned ContentKey has both the plaintext Key (for the
	// immediate payload encryption) and the wrapped form for persistence; the
	// caller zeroizes Key when done.
	WrapNewKey(vmk *cryptoDomain.VaultMasterKey, alg cryptoDomain.Algorithm) (cryptoDomain.ContentKey, error)

	// Unwrap recovers the plaintext content key using the vault master key.
	// The caller zeroizes the returned key when done.
	Unwrap(cek *cryptoDomain.ContentKey, vmk *cryptoDomain.VaultMasterKey) ([]byte, error)

	// EncryptPayload encrypts document bytes with a content key and computes
	// the independent ciphertext checksum.
	EncryptPayload(plaintext []byte, cek *cryptoDomain.ContentKey) (cryptoDomain.EncryptedBlob, error)

	// DecryptPayload verifies the blob checksum and AEAD tag, then returns the
	// plaintext. Fails closed on any mismatch.
	DecryptPayload(blob *cryptoDomain.EncryptedBlob, cek *cryptoDomain.ContentKey) ([]byte, error)
}
