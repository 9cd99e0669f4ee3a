// Package domain defines the encrypted vault item model.
//
// An item is an owner's encrypted document. The plaintext never touches
// persistent storage: each stored version carries its own wrapped content key
// and the AEAD ciphertext, so reading any version requires the owner's vault
// master key (or a key reconstructed by a completed recovery plan).
package domain

import (
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/keepsakevault/keepsake/internal/crypto/domain"
)

// VaultItem is the metadata of an encrypted document. Content lives in
// ItemVersion rows; CurrentVersion points at the newest one.
type VaultItem struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	Title          string
	ContentType    string
	CurrentVersion int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ItemVersion is one immutable encrypted version of an item. Every version
// has its own content key; updating a document never reuses key material.
type ItemVersion struct {
	ID         uuid.UUID
	ItemID     uuid.UUID
	Version    int
	Algorithm  cryptoDomain.Algorithm
	WrappedKey []byte
	WrapNonce  []byte
	Ciphertext []byte
	Nonce      []byte
	Checksum   []byte
	CreatedAt  time.Time
}

// ContentKey reassembles the version's wrapped content key for unwrapping.
func (v *ItemVersion) ContentKey() cryptoDomain.ContentKey {
	return cryptoDomain.ContentKey{
		ID:         v.ID,
		Algorithm:  v.Algorithm,
		WrappedKey: v.WrappedKey,
		WrapNonce:  v.WrapNonce,
		CreatedAt:  v.CreatedAt,
	}
}

// Blob reassembles the version's encrypted payload.
func (v *ItemVersion) Blob() cryptoDomain.EncryptedBlob {
	return cryptoDomain.EncryptedBlob{
		Ciphertext: v.Ciphertext,
		Nonce:      v.Nonce,
		Checksum:   v.Checksum,
	}
}
