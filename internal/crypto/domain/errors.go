package domain

import (
	"github.com/keepsakevault/keepsake/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors so
// the error handling layer can map them to HTTP status codes. No error path
// in this package ever returns plaintext or key material alongside a failure.
var (
	// ErrUnsupportedAlgorithm indicates the requested AEAD algorithm is not supported.
	// Supported algorithms: AESGCM (aes-gcm) and ChaCha20 (chacha20-poly1305).
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates a key is not exactly KeySize (32) bytes.
	// Applies to the vault master key and to content encryption keys alike.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrKeyDerivation indicates the password-based KDF itself failed
	// (bad parameters or environment). This is fatal and not retryable; a weak
	// passphrase never produces this error, strength is a separate advisory check.
	ErrKeyDerivation = errors.Wrap(errors.ErrInvalidInput, "key derivation failed")

	// ErrAuthenticationFailed indicates an AEAD tag verification failure.
	//
	// Callers must treat this as "wrong key or corrupted/tampered data". The
	// specific cause is deliberately not disclosed, and no partial plaintext
	// is ever returned.
	ErrAuthenticationFailed = errors.Wrap(errors.ErrInvalidInput, "authentication failed")

	// ErrChecksumMismatch indicates the independently stored ciphertext digest
	// does not match the stored blob, pointing at storage-layer corruption.
	ErrChecksumMismatch = errors.Wrap(errors.ErrIntegrity, "ciphertext checksum mismatch")

	// ErrSessionNotInitialized indicates an operation required the vault master
	// key but the session credential has not been initialized or was cleared.
	ErrSessionNotInitialized = errors.Wrap(errors.ErrUnauthorized, "vault session not initialized")
)
