package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/keepsakevault/keepsake/internal/crypto/domain"
	"github.com/keepsakevault/keepsake/internal/metrics"
	"github.com/keepsakevault/keepsake/internal/recovery/domain"
)

// planEngineWithMetrics decorates RecoveryPlanUseCase with metrics instrumentation.
type planEngineWithMetrics struct {
	next    RecoveryPlanUseCase
	metrics metrics.BusinessMetrics
}

// NewRecoveryPlanUseCaseWithMetrics wraps a RecoveryPlanUseCase with metrics recording.
func NewRecoveryPlanUseCaseWithMetrics(useCase RecoveryPlanUseCase, m metrics.BusinessMetrics) RecoveryPlanUseCase {
	return &planEngineWithMetrics{next: useCase, metrics: m}
}

func (p *planEngineWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	p.metrics.RecordOperation(ctx, "recovery", operation, status)
	p.metrics.RecordDuration(ctx, "recovery", operation, time.Since(start), status)
}

func (p *planEngineWithMetrics) CreatePlan(ctx context.Context, ownerID uuid.UUID, input CreatePlanInput) (*domain.RecoveryPlan, error) {
	start := time.Now()
	plan, err := p.next.CreatePlan(ctx, ownerID, input)
	p.record(ctx, "plan_create", start, err)
	return plan, err
}

func (p *planEngineWithMetrics) GetPlan(ctx context.Context, ownerID, planID uuid.UUID) (*PlanDetails, error) {
	start := time.Now()
	details, err := p.next.GetPlan(ctx, ownerID, planID)
	p.record(ctx, "plan_get", start, err)
	return details, err
}

func (p *planEngineWithMetrics) ListPlans(ctx context.Context, ownerID uuid.UUID, limit, offset uint) ([]*domain.RecoveryPlan, error) {
	start := time.Now()
	plans, err := p.next.ListPlans(ctx, ownerID, limit, offset)
	p.record(ctx, "plan_list", start, err)
	return plans, err
}

func (p *planEngineWithMetrics) RegisterTrustee(ctx context.Context, ownerID, planID uuid.UUID, input RegisterTrusteeInput) (*domain.Trustee, error) {
	start := time.Now()
	trustee, err := p.next.RegisterTrustee(ctx, ownerID, planID, input)
	p.record(ctx, "trustee_register", start, err)
	return trustee, err
}

func (p *planEngineWithMetrics) RegisterBeneficiary(ctx context.Context, ownerID, planID uuid.UUID, input RegisterBeneficiaryInput) (*domain.Beneficiary, error) {
	start := time.Now()
	beneficiary, err := p.next.RegisterBeneficiary(ctx, ownerID, planID, input)
	p.record(ctx, "beneficiary_register", start, err)
	return beneficiary, err
}

func (p *planEngineWithMetrics) CoverItem(ctx context.Context, ownerID, planID, itemID uuid.UUID) error {
	start := time.Now()
	err := p.next.CoverItem(ctx, ownerID, planID, itemID)
	p.record(ctx, "item_cover", start, err)
	return err
}

func (p *planEngineWithMetrics) MarkReady(ctx context.Context, ownerID, planID uuid.UUID, vmk *cryptoDomain.VaultMasterKey) ([]TrusteeKeyGrant, error) {
	start := time.Now()
	grants, err := p.next.MarkReady(ctx, ownerID, planID, vmk)
	p.record(ctx, "plan_ready", start, err)
	return grants, err
}

func (p *planEngineWithMetrics) Approve(ctx context.Context, planID uuid.UUID, shareIndex int, trusteeKey []byte) error {
	start := time.Now()
	err := p.next.Approve(ctx, planID, shareIndex, trusteeKey)
	p.record(ctx, "trustee_approve", start, err)
	return err
}

func (p *planEngineWithMetrics) RevokeApproval(ctx context.Context, planID uuid.UUID, shareIndex int, trusteeKey []byte) error {
	start := time.Now()
	err := p.next.RevokeApproval(ctx, planID, shareIndex, trusteeKey)
	p.record(ctx, "trustee_revoke", start, err)
	return err
}

func (p *planEngineWithMetrics) RequestTrigger(ctx context.Context, planID uuid.UUID) (*domain.RecoveryPlan, error) {
	start := time.Now()
	plan, err := p.next.RequestTrigger(ctx, planID)
	p.record(ctx, "plan_trigger", start, err)
	return plan, err
}

func (p *planEngineWithMetrics) Complete(ctx context.Context, planID uuid.UUID, submissions []ShareSubmission) (*cryptoDomain.VaultMasterKey, error) {
	start := time.Now()
	vmk, err := p.next.Complete(ctx, planID, submissions)
	p.record(ctx, "plan_complete", start, err)
	return vmk, err
}

func (p *planEngineWithMetrics) Cancel(ctx context.Context, ownerID, planID uuid.UUID) error {
	start := time.Now()
	err := p.next.Cancel(ctx, ownerID, planID)
	p.record(ctx, "plan_cancel", start, err)
	return err
}
