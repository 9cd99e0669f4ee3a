package domain

import (
	"time"

	"github.com/google/uuid"
)

// ContentKey represents a Content Encryption Key (CEK) used to encrypt one
// stored document version.
//
// The CEK is generated at encrypt time, wrapped immediately with the session's
// vault master key, and the raw key is zeroized as soon as the payload has been
// encrypted. Only the wrapped form is ever persisted; the Key field is populated
// transiently after an unwrap and must be zeroized by the caller.
type ContentKey struct {
	ID uuid.UUID // Unique identifier (UUIDv7)
	// Algorithm used both to wrap this key and to encrypt the payload under it.
	Algorithm Algorithm
	// WrappedKey is the CEK encrypted with the vault master key.
	WrappedKey []byte
	// WrapNonce is the nonce used when wrapping the CEK. Never reused under
	// the same master key.
	WrapNonce []byte
	// Key holds the plaintext CEK in memory only; never persisted.
	Key       []byte `json:"-"`
	CreatedAt time.Time
}
