package domain

// Algorithm represents the AEAD algorithm used for key wrapping and payload encryption.
//
// All supported algorithms provide Authenticated Encryption with Associated Data,
// ensuring both confidentiality and authenticity. The same algorithm constants are
// used for wrapping content keys with the vault master key and for encrypting
// document bytes with a content key; nonce and key sizes are fixed per algorithm
// and must match across wrap/unwrap and encrypt/decrypt.
type Algorithm string

const (
	// AESGCM is AES-256-GCM: 32-byte key, 12-byte nonce, 16-byte tag.
	// Preferred on CPUs with AES-NI hardware acceleration.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 is ChaCha20-Poly1305: 32-byte key, 12-byte nonce, 16-byte tag.
	// Constant-time in software; preferred on platforms without AES-NI.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

const (
	// KeySize is the fixed key width in bytes for every key in the hierarchy:
	// the vault master key and all content encryption keys.
	KeySize = 32

	// SaltSize is the width in bytes of the random KDF salt generated when a
	// vault master key is first derived.
	SaltSize = 16
)
