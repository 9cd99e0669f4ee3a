package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/keepsakevault/keepsake/internal/crypto/domain"
	"github.com/keepsakevault/keepsake/internal/metrics"
	"github.com/keepsakevault/keepsake/internal/vault/domain"
)

// vaultItemUseCaseWithMetrics decorates VaultItemUseCase with metrics instrumentation.
type vaultItemUseCaseWithMetrics struct {
	next    VaultItemUseCase
	metrics metrics.BusinessMetrics
}

// NewVaultItemUseCaseWithMetrics wraps a VaultItemUseCase with metrics recording.
func NewVaultItemUseCaseWithMetrics(useCase VaultItemUseCase, m metrics.BusinessMetrics) VaultItemUseCase {
	return &vaultItemUseCaseWithMetrics{next: useCase, metrics: m}
}

func (v *vaultItemUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	v.metrics.RecordOperation(ctx, "vault", operation, status)
	v.metrics.RecordDuration(ctx, "vault", operation, time.Since(start), status)
}

func (v *vaultItemUseCaseWithMetrics) CreateItem(ctx context.Context, ownerID uuid.UUID, vmk *cryptoDomain.VaultMasterKey, input CreateItemInput) (*domain.VaultItem, error) {
	start := time.Now()
	item, err := v.next.CreateItem(ctx, ownerID, vmk, input)
	v.record(ctx, "item_create", start, err)
	return item, err
}

func (v *vaultItemUseCaseWithMetrics) GetItem(ctx context.Context, ownerID, itemID uuid.UUID, vmk *cryptoDomain.VaultMasterKey) (*ItemContent, error) {
	start := time.Now()
	content, err := v.next.GetItem(ctx, ownerID, itemID, vmk)
	v.record(ctx, "item_get", start, err)
	return content, err
}

func (v *vaultItemUseCaseWithMetrics) GetItemVersion(ctx context.Context, ownerID, itemID uuid.UUID, version int, vmk *cryptoDomain.VaultMasterKey) (*ItemContent, error) {
	start := time.Now()
	content, err := v.next.GetItemVersion(ctx, ownerID, itemID, version, vmk)
	v.record(ctx, "item_get_version", start, err)
	return content, err
}

func (v *vaultItemUseCaseWithMetrics) UpdateItem(ctx context.Context, ownerID, itemID uuid.UUID, vmk *cryptoDomain.VaultMasterKey, input UpdateItemInput) (*domain.VaultItem, error) {
	start := time.Now()
	item, err := v.next.UpdateItem(ctx, ownerID, itemID, vmk, input)
	v.record(ctx, "item_update", start, err)
	return item, err
}

func (v *vaultItemUseCaseWithMetrics) ListItems(ctx context.Context, ownerID uuid.UUID, limit, offset uint) ([]*domain.VaultItem, error) {
	start := time.Now()
	items, err := v.next.ListItems(ctx, ownerID, limit, offset)
	v.record(ctx, "item_list", start, err)
	return items, err
}

func (v *vaultItemUseCaseWithMetrics) VerifyRecoverable(ctx context.Context, itemID uuid.UUID, vmk *cryptoDomain.VaultMasterKey) error {
	start := time.Now()
	err := v.next.VerifyRecoverable(ctx, itemID, vmk)
	v.record(ctx, "item_verify_recoverable", start, err)
	return err
}
