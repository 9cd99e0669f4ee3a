// Package usecase implements encrypted document storage over the envelope
// encryption scheme: a fresh content key per stored version, wrapped with the
// session's vault master key.
package usecase

import (
	"context"

	"github.com/google/uuid"

	cryptoDomain "github.com/keepsakevault/keepsake/internal/crypto/domain"
	"github.com/keepsakevault/keepsake/internal/vault/domain"
)

// CreateItemInput carries the parameters for storing a new document.
type CreateItemInput struct {
	Title       string
	ContentType string
	Content     []byte
	Algorithm   cryptoDomain.Algorithm
}

// UpdateItemInput carries the parameters for storing a new version of a
// document. The new version gets a fresh content key.
type UpdateItemInput struct {
	Content   []byte
	Algorithm cryptoDomain.Algorithm
}

// ItemContent is a decrypted document version.
type ItemContent struct {
	Item    *domain.VaultItem
	Version int
	Content []byte
}

// VaultItemRepository defines item metadata persistence operations.
type VaultItemRepository interface {
	Create(ctx context.Context, item *domain.VaultItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.VaultItem, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset uint) ([]*domain.VaultItem, error)
	// UpdateVersion persists the item's CurrentVersion and touches UpdatedAt.
	UpdateVersion(ctx context.Context, item *domain.VaultItem) error
}

// ItemVersionRepository defines encrypted version persistence operations.
// Versions are write-once.
type ItemVersionRepository interface {
	Create(ctx context.Context, version *domain.ItemVersion) error
	GetByItemAndVersion(ctx context.Context, itemID uuid.UUID, version int) (*domain.ItemVersion, error)
}

// VaultItemUseCase defines the encrypted document operations. Every operation
// that touches content takes the caller's vault master key explicitly; there
// is no ambient key state.
type VaultItemUseCase interface {
	// CreateItem encrypts and stores a new document as version 1.
	CreateItem(ctx context.Context, ownerID uuid.UUID, vmk *cryptoDomain.VaultMasterKey, input CreateItemInput) (*domain.VaultItem, error)

	// GetItem decrypts and returns the item's current version. The caller
	// zeroizes the returned content when done.
	GetItem(ctx context.Context, ownerID, itemID uuid.UUID, vmk *cryptoDomain.VaultMasterKey) (*ItemContent, error)

	// GetItemVersion decrypts and returns a specific version.
	GetItemVersion(ctx context.Context, ownerID, itemID uuid.UUID, version int, vmk *cryptoDomain.VaultMasterKey) (*ItemContent, error)

	// UpdateItem stores new content as the next version under a fresh
	// content key. Prior versions remain readable.
	UpdateItem(ctx context.Context, ownerID, itemID uuid.UUID, vmk *cryptoDomain.VaultMasterKey, input UpdateItemInput) (*domain.VaultItem, error)

	// ListItems returns the owner's item metadata; no content is decrypted.
	ListItems(ctx context.Context, ownerID uuid.UUID, limit, offset uint) ([]*domain.VaultItem, error)

	// VerifyRecoverable checks that vmk unwraps the item's current content
	// key without decrypting any content. Used by recovery completion to
	// prove a reconstructed key actually opens the covered items.
	VerifyRecoverable(ctx context.Context, itemID uuid.UUID, vmk *cryptoDomain.VaultMasterKey) error
}
