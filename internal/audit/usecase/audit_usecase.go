package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/keepsakevault/keepsake/internal/audit/domain"
	auditService "github.com/keepsakevault/keepsake/internal/audit/service"
	"github.com/keepsakevault/keepsake/internal/database"
	apperrors "github.com/keepsakevault/keepsake/internal/errors"
)

// auditUseCase implements AuditUseCase.
//
// A per-tenant mutex serializes appends within one chain scope; the last hash
// read and the insert happen inside one transaction so a crashed append never
// leaves a dangling predecessor.
type auditUseCase struct {
	txManager database.TxManager
	repo      AuditRecordRepository
	hasher    auditService.ChainHasher
	signer    auditService.RecordSigner // nil when no signing seed is configured

	scopeLocks sync.Map // tenantID -> *sync.Mutex
}

// NewAuditUseCase creates an AuditUseCase. The signer may be nil, in which
// case records are appended unsigned.
func NewAuditUseCase(
	txManager database.TxManager,
	repo AuditRecordRepository,
	hasher auditService.ChainHasher,
	signer auditService.RecordSigner,
) AuditUseCase {
	return &auditUseCase{
		txManager: txManager,
		repo:      repo,
		hasher:    hasher,
		signer:    signer,
	}
}

// scopeLock returns the mutex serializing appends for one tenant.
func (a *auditUseCase) scopeLock(tenantID uuid.UUID) *sync.Mutex {
	lock, _ := a.scopeLocks.LoadOrStore(tenantID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// Append creates the next record in the tenant's hash chain.
//
// The record's PreviousHash is the predecessor's CurrentHash, or GenesisHash
// for the first record of the scope. The computed hashes are persisted exactly
// as produced.
func (a *auditUseCase) Append(ctx context.Context, input AppendInput) (*auditDomain.AuditRecord, error) {
	lock := a.scopeLock(input.TenantID)
	lock.Lock()
	defer lock.Unlock()

	record := &auditDomain.AuditRecord{
		ID:           uuid.Must(uuid.NewV7()),
		TenantID:     input.TenantID,
		UserID:       input.UserID,
		Action:       input.Action,
		ResourceType: input.ResourceType,
		ResourceID:   input.ResourceID,
		Details:      input.Details,
		// The timestamp column rounds to microseconds; truncate up front so
		// the stored value equals the one the hash was computed over.
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	err := a.txManager.WithTx(ctx, func(txCtx context.Context) error {
		last, err := a.repo.LastByTenant(txCtx, input.TenantID)
		switch {
		case err == nil:
			record.PreviousHash = last.CurrentHash
		case apperrors.Is(err, apperrors.ErrNotFound):
			record.PreviousHash = auditDomain.GenesisHash
		default:
			return err
		}

		currentHash, err := a.hasher.ComputeHash(record.PreviousHash, record)
		if err != nil {
			return err
		}
		record.CurrentHash = currentHash

		if a.signer != nil {
			signature, err := a.signer.Sign(record)
			if err != nil {
				return err
			}
			record.Signature = signature
		}

		return a.repo.Create(txCtx, record)
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// Verify recomputes the tenant's full chain in insertion order.
//
// Hash verification always runs; signature verification runs additionally when
// a signer is configured, and a bad signature breaks the chain at that record
// even if its hashes recompute.
func (a *auditUseCase) Verify(ctx context.Context, tenantID uuid.UUID) (VerifyResult, error) {
	const pageSize = 500

	var records []*auditDomain.AuditRecord
	for offset := uint(0); ; offset += pageSize {
		page, err := a.repo.ListByTenant(ctx, tenantID, pageSize, offset)
		if err != nil {
			return VerifyResult{}, err
		}
		records = append(records, page...)
		if len(page) < pageSize {
			break
		}
	}

	valid, firstBreak := a.hasher.VerifyChain(records)
	if valid && a.signer != nil {
		for i, record := range records {
			if len(record.Signature) == 0 {
				continue
			}
			if err := a.signer.Verify(record); err != nil {
				valid = false
				firstBreak = i
				break
			}
		}
	}

	return VerifyResult{Valid: valid, FirstBreakIndex: firstBreak, Records: len(records)}, nil
}

// List returns records for a tenant in insertion order.
func (a *auditUseCase) List(
	ctx context.Context,
	tenantID uuid.UUID,
	limit, offset uint,
) ([]*auditDomain.AuditRecord, error) {
	return a.repo.ListByTenant(ctx, tenantID, limit, offset)
}
