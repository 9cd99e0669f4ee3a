package domain

// EncryptedBlob is the output of authenticated payload encryption.
//
// The AEAD tag is embedded in Ciphertext. Checksum is an independent SHA-256
// digest of the ciphertext, persisted so the storage layer can detect at-rest
// corruption of the blob itself without attempting a decrypt. The nonce is
// generated fresh per operation and never reused under the same key.
type EncryptedBlob struct {
	Ciphertext []byte
	Nonce      []byte
	Checksum   []byte
}
