// Package usecase implements the append and verify operations of the audit chain.
//
// Appends for one tenant scope are strictly serialized so no two records can
// ever claim the same predecessor hash; appends across different tenants are
// independent. Records are write-once: no update or delete path exists here.
package usecase

import (
	"context"

	"github.com/google/uuid"

	auditDomain "github.com/keepsakevault/keepsake/internal/audit/domain"
)

// AuditRecordRepository defines the interface for audit record persistence.
// The storage layer persists hashes exactly as produced, never recomputing them.
type AuditRecordRepository interface {
	Create(ctx context.Context, record *auditDomain.AuditRecord) error
	// LastByTenant returns the most recently appended record for the scope, or
	// errors.ErrNotFound when the chain is empty.
	LastByTenant(ctx context.Context, tenantID uuid.UUID) (*auditDomain.AuditRecord, error)
	// ListByTenant returns records for the scope in insertion order.
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset uint) ([]*auditDomain.AuditRecord, error)
}

// AppendInput carries the caller-supplied fields of a new audit record.
type AppendInput struct {
	TenantID     uuid.UUID
	UserID       uuid.UUID
	Action       auditDomain.Action
	ResourceType string
	ResourceID   string
	Details      map[string]any
}

// VerifyResult is the outcome of a chain verification pass.
type VerifyResult struct {
	Valid bool
	// FirstBreakIndex is the 0-based index of the first record that fails
	// verification; -1 when the chain is valid.
	FirstBreakIndex int
	// Records is the number of records examined.
	Records int
}

// AuditUseCase defines the tamper-evident audit log operations consumed by
// every other subsystem.
type AuditUseCase interface {
	// Append creates the next record in the tenant's hash chain.
	Append(ctx context.Context, input AppendInput) (*auditDomain.AuditRecord, error)

	// Verify recomputes the tenant's full chain and reports the first break, if any.
	Verify(ctx context.Context, tenantID uuid.UUID) (VerifyResult, error)

	// List returns records for a tenant in insertion order.
	List(ctx context.Context, tenantID uuid.UUID, limit, offset uint) ([]*auditDomain.AuditRecord, error)
}
