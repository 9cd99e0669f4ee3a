package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/keepsakevault/keepsake/internal/audit/domain"
	"github.com/keepsakevault/keepsake/internal/metrics"
)

// auditUseCaseWithMetrics decorates AuditUseCase with metrics instrumentation.
type auditUseCaseWithMetrics struct {
	next    AuditUseCase
	metrics metrics.BusinessMetrics
}

// NewAuditUseCaseWithMetrics wraps an AuditUseCase with metrics recording.
func NewAuditUseCaseWithMetrics(useCase AuditUseCase, m metrics.BusinessMetrics) AuditUseCase {
	return &auditUseCaseWithMetrics{next: useCase, metrics: m}
}

// Append records metrics for audit append operations.
func (a *auditUseCaseWithMetrics) Append(
	ctx context.Context,
	input AppendInput,
) (*auditDomain.AuditRecord, error) {
	start := time.Now()
	record, err := a.next.Append(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "audit", "record_append", status)
	a.metrics.RecordDuration(ctx, "audit", "record_append", time.Since(start), status)

	return record, err
}

// Verify records metrics for chain verification operations.
func (a *auditUseCaseWithMetrics) Verify(ctx context.Context, tenantID uuid.UUID) (VerifyResult, error) {
	start := time.Now()
	result, err := a.next.Verify(ctx, tenantID)

	status := "success"
	if err != nil || !result.Valid {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "audit", "chain_verify", status)
	a.metrics.RecordDuration(ctx, "audit", "chain_verify", time.Since(start), status)

	return result, err
}

// List records metrics for audit list operations.
func (a *auditUseCaseWithMetrics) List(
	ctx context.Context,
	tenantID uuid.UUID,
	limit, offset uint,
) ([]*auditDomain.AuditRecord, error) {
	start := time.Now()
	records, err := a.next.List(ctx, tenantID, limit, offset)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "audit", "record_list", status)
	a.metrics.RecordDuration(ctx, "audit", "record_list", time.Since(start), status)

	return records, err
}
