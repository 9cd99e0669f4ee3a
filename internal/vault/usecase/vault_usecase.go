package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	auditDomain "github.com/keepsakevault/keepsake/internal/audit/domain"
	auditUseCase "github.com/keepsakevault/keepsake/internal/audit/usecase"
	cryptoDomain "github.com/keepsakevault/keepsake/internal/crypto/domain"
	cryptoService "github.com/keepsakevault/keepsake/internal/crypto/service"
	"github.com/keepsakevault/keepsake/internal/database"
	apperrors "github.com/keepsakevault/keepsake/internal/errors"
	appValidation "github.com/keepsakevault/keepsake/internal/validation"
	"github.com/keepsakevault/keepsake/internal/vault/domain"
)

// maxContentSize bounds a single document version at 16 MiB.
const maxContentSize = 16 << 20

type vaultItemUseCase struct {
	txManager   database.TxManager
	itemRepo    VaultItemRepository
	versionRepo ItemVersionRepository
	keyManager  cryptoService.ContentKeyManager
	audit       auditUseCase.AuditUseCase
}

// NewVaultItemUseCase creates a VaultItemUseCase.
func NewVaultItemUseCase(
	txManager database.TxManager,
	itemRepo VaultItemRepository,
	versionRepo ItemVersionRepository,
	keyManager cryptoService.ContentKeyManager,
	audit auditUseCase.AuditUseCase,
) VaultItemUseCase {
	return &vaultItemUseCase{
		txManager:   txManager,
		itemRepo:    itemRepo,
		versionRepo: versionRepo,
		keyManager:  keyManager,
		audit:       audit,
	}
}

func validateCreateItemInput(input CreateItemInput) error {
	err := validation.Errors{
		"title": validation.Validate(input.Title,
			validation.Required.Error("title is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("title must be between 1 and 255 characters"),
		),
		"content": validateContent(input.Content),
	}.Filter()
	return appValidation.WrapValidationError(err)
}

func validateContent(content []byte) error {
	if len(content) == 0 {
		return validation.NewError("validation_required", "content is required")
	}
	if len(content) > maxContentSize {
		return validation.NewError("validation_length", "content exceeds the maximum size")
	}
	return nil
}

// ownedItem loads an item and enforces ownership. A foreign item reads as not
// found so item ids are not probeable.
func (u *vaultItemUseCase) ownedItem(ctx context.Context, ownerID, itemID uuid.UUID) (*domain.VaultItem, error) {
	item, err := u.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, domain.ErrItemNotFound
	}
	return item, nil
}

func (u *vaultItemUseCase) appendAudit(ctx context.Context, ownerID uuid.UUID, action auditDomain.Action, itemID uuid.UUID, details map[string]any) error {
	_, err := u.audit.Append(ctx, auditUseCase.AppendInput{
		TenantID:     ownerID,
		UserID:       ownerID,
		Action:       action,
		ResourceType: "vault_item",
		ResourceID:   itemID.String(),
		Details:      details,
	})
	return err
}

// sealVersion wraps a fresh content key and encrypts content into a new
// version row. The plaintext content key is zeroized before returning.
func (u *vaultItemUseCase) sealVersion(itemID uuid.UUID, version int, content []byte, vmk *cryptoDomain.VaultMasterKey, alg cryptoDomain.Algorithm) (*domain.ItemVersion, error) {
	if alg == "" {
		alg = cryptoDomain.AESGCM
	}

	cek, err := u.keyManager.WrapNewKey(vmk, alg)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(cek.Key)

	blob, err := u.keyManager.EncryptPayload(content, &cek)
	if err != nil {
		return nil, err
	}

	return &domain.ItemVersion{
		ID:         cek.ID,
		ItemID:     itemID,
		Version:    version,
		Algorithm:  alg,
		WrappedKey: cek.WrappedKey,
		WrapNonce:  cek.WrapNonce,
		Ciphertext: blob.Ciphertext,
		Nonce:      blob.Nonce,
		Checksum:   blob.Checksum,
	}, nil
}

// CreateItem encrypts and stores a new document as version 1.
func (u *vaultItemUseCase) CreateItem(ctx context.Context, ownerID uuid.UUID, vmk *cryptoDomain.VaultMasterKey, input CreateItemInput) (*domain.VaultItem, error) {
	if err := validateCreateItemInput(input); err != nil {
		return nil, err
	}

	item := &domain.VaultItem{
		ID:             uuid.Must(uuid.NewV7()),
		OwnerID:        ownerID,
		Title:          input.Title,
		ContentType:    input.ContentType,
		CurrentVersion: 1,
	}

	version, err := u.sealVersion(item.ID, 1, input.Content, vmk, input.Algorithm)
	if err != nil {
		return nil, err
	}

	err = u.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := u.itemRepo.Create(ctx, item); err != nil {
			return err
		}
		if err := u.versionRepo.Create(ctx, version); err != nil {
			return err
		}
		return u.appendAudit(ctx, ownerID, auditDomain.ActionItemEncrypted, item.ID, map[string]any{
			"version":   1,
			"algorithm": string(version.Algorithm),
		})
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// decryptVersion unwraps the version's content key and decrypts its payload.
func (u *vaultItemUseCase) decryptVersion(version *domain.ItemVersion, vmk *cryptoDomain.VaultMasterKey) ([]byte, error) {
	cek := version.ContentKey()
	key, err := u.keyManager.Unwrap(&cek, vmk)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(key)
	cek.Key = key

	blob := version.Blob()
	return u.keyManager.DecryptPayload(&blob, &cek)
}

func (u *vaultItemUseCase) getVersion(ctx context.Context, ownerID, itemID uuid.UUID, versionNumber int, vmk *cryptoDomain.VaultMasterKey) (*ItemContent, error) {
	item, err := u.ownedItem(ctx, ownerID, itemID)
	if err != nil {
		return nil, err
	}
	if versionNumber == 0 {
		versionNumber = item.CurrentVersion
	}

	version, err := u.versionRepo.GetByItemAndVersion(ctx, itemID, versionNumber)
	if err != nil {
		return nil, err
	}

	content, err := u.decryptVersion(version, vmk)
	if err != nil {
		return nil, err
	}

	err = u.txManager.WithTx(ctx, func(ctx context.Context) error {
		return u.appendAudit(ctx, ownerID, auditDomain.ActionItemDecrypted, itemID, map[string]any{
			"version": versionNumber,
		})
	})
	if err != nil {
		cryptoDomain.Zero(content)
		return nil, err
	}

	return &ItemContent{Item: item, Version: versionNumber, Content: content}, nil
}

// GetItem decrypts and returns the item's current version.
func (u *vaultItemUseCase) GetItem(ctx context.Context, ownerID, itemID uuid.UUID, vmk *cryptoDomain.VaultMasterKey) (*ItemContent, error) {
	return u.getVersion(ctx, ownerID, itemID, 0, vmk)
}

// GetItemVersion decrypts and returns a specific version.
func (u *vaultItemUseCase) GetItemVersion(ctx context.Context, ownerID, itemID uuid.UUID, version int, vmk *cryptoDomain.VaultMasterKey) (*ItemContent, error) {
	if version < 1 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("invalid version %d", version))
	}
	return u.getVersion(ctx, ownerID, itemID, version, vmk)
}

// UpdateItem stores new content as the next version under a fresh content key.
func (u *vaultItemUseCase) UpdateItem(ctx context.Context, ownerID, itemID uuid.UUID, vmk *cryptoDomain.VaultMasterKey, input UpdateItemInput) (*domain.VaultItem, error) {
	if err := appValidation.WrapValidationError(validation.Errors{"content": validateContent(input.Content)}.Filter()); err != nil {
		return nil, err
	}

	item, err := u.ownedItem(ctx, ownerID, itemID)
	if err != nil {
		return nil, err
	}

	next := item.CurrentVersion + 1
	version, err := u.sealVersion(itemID, next, input.Content, vmk, input.Algorithm)
	if err != nil {
		return nil, err
	}

	item.CurrentVersion = next
	err = u.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := u.versionRepo.Create(ctx, version); err != nil {
			return err
		}
		if err := u.itemRepo.UpdateVersion(ctx, item); err != nil {
			return err
		}
		return u.appendAudit(ctx, ownerID, auditDomain.ActionItemEncrypted, itemID, map[string]any{
			"version":   next,
			"algorithm": string(version.Algorithm),
		})
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// ListItems returns the owner's item metadata.
func (u *vaultItemUseCase) ListItems(ctx context.Context, ownerID uuid.UUID, limit, offset uint) ([]*domain.VaultItem, error) {
	return u.itemRepo.ListByOwner(ctx, ownerID, limit, offset)
}

// VerifyRecoverable checks that vmk unwraps the item's current content key.
// No ownership check: the recovery engine calls this with a key reconstructed
// by a quorum, which is itself the authorization.
func (u *vaultItemUseCase) VerifyRecoverable(ctx context.Context, itemID uuid.UUID, vmk *cryptoDomain.VaultMasterKey) error {
	item, err := u.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return err
	}

	version, err := u.versionRepo.GetByItemAndVersion(ctx, itemID, item.CurrentVersion)
	if err != nil {
		return err
	}

	cek := version.ContentKey()
	key, err := u.keyManager.Unwrap(&cek, vmk)
	if err != nil {
		return domain.ErrItemNotRecoverable
	}
	cryptoDomain.Zero(key)
	return nil
}
