package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/keepsakevault/keepsake/internal/audit/domain"
	auditUseCase "github.com/keepsakevault/keepsake/internal/audit/usecase"
	cryptoDomain "github.com/keepsakevault/keepsake/internal/crypto/domain"
	"github.com/keepsakevault/keepsake/internal/database"
	apperrors "github.com/keepsakevault/keepsake/internal/errors"
	outboxDomain "github.com/keepsakevault/keepsake/internal/outbox/domain"
	outboxUseCase "github.com/keepsakevault/keepsake/internal/outbox/usecase"
	"github.com/keepsakevault/keepsake/internal/recovery/domain"
	recoveryService "github.com/keepsakevault/keepsake/internal/recovery/service"
)

// planEngine implements RecoveryPlanUseCase.
//
// A per-plan mutex serializes every mutating operation for one plan id, and
// status updates are additionally conditioned on the expected current status
// in SQL, so a transition observed by two callers applies exactly once.
type planEngine struct {
	txManager       database.TxManager
	planRepo        RecoveryPlanRepository
	trusteeRepo     TrusteeRepository
	beneficiaryRepo BeneficiaryRepository
	coveredItemRepo CoveredItemRepository
	outboxRepo      outboxUseCase.OutboxEventRepository
	sharer          recoveryService.SecretSharer
	sealer          recoveryService.ShareSealer
	audit           auditUseCase.AuditUseCase
	verifier        RecoverabilityVerifier // nil skips post-reconstruction checks

	planLocks sync.Map // planID -> *sync.Mutex
}

// NewPlanEngine creates a RecoveryPlanUseCase. The verifier may be nil.
func NewPlanEngine(
	txManager database.TxManager,
	planRepo RecoveryPlanRepository,
	trusteeRepo TrusteeRepository,
	beneficiaryRepo BeneficiaryRepository,
	coveredItemRepo CoveredItemRepository,
	outboxRepo outboxUseCase.OutboxEventRepository,
	sharer recoveryService.SecretSharer,
	sealer recoveryService.ShareSealer,
	audit auditUseCase.AuditUseCase,
	verifier RecoverabilityVerifier,
) RecoveryPlanUseCase {
	return &planEngine{
		txManager:       txManager,
		planRepo:        planRepo,
		trusteeRepo:     trusteeRepo,
		beneficiaryRepo: beneficiaryRepo,
		coveredItemRepo: coveredItemRepo,
		outboxRepo:      outboxRepo,
		sharer:          sharer,
		sealer:          sealer,
		audit:           audit,
		verifier:        verifier,
	}
}

func (e *planEngine) planLock(planID uuid.UUID) *sync.Mutex {
	lock, _ := e.planLocks.LoadOrStore(planID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// ownedPlan loads a plan and enforces ownership. A foreign plan is reported
// as not found rather than forbidden so plan ids are not probeable.
func (e *planEngine) ownedPlan(ctx context.Context, ownerID, planID uuid.UUID) (*domain.RecoveryPlan, error) {
	plan, err := e.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.OwnerID != ownerID {
		return nil, domain.ErrPlanNotFound
	}
	return plan, nil
}

func (e *planEngine) appendAudit(ctx context.Context, plan *domain.RecoveryPlan, action auditDomain.Action, details map[string]any) error {
	_, err := e.audit.Append(ctx, auditUseCase.AppendInput{
		TenantID:     plan.OwnerID,
		UserID:       plan.OwnerID,
		Action:       action,
		ResourceType: "recovery_plan",
		ResourceID:   plan.ID.String(),
		Details:      details,
	})
	return err
}

func (e *planEngine) emitEvent(ctx context.Context, eventType string, payload map[string]any) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal event payload")
	}

	event := &outboxDomain.OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		Payload:   string(payloadJSON),
		Status:    outboxDomain.OutboxEventStatusPending,
	}
	if err := e.outboxRepo.Create(ctx, event); err != nil {
		return apperrors.Wrap(err, "failed to create outbox event")
	}
	return nil
}

// CreatePlan creates an active plan.
func (e *planEngine) CreatePlan(ctx context.Context, ownerID uuid.UUID, input CreatePlanInput) (*domain.RecoveryPlan, error) {
	plan, err := domain.NewRecoveryPlan(ownerID, input.Name, input.Threshold, input.TotalShares, input.WaitingPeriodDays)
	if err != nil {
		return nil, err
	}

	err = e.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := e.planRepo.Create(ctx, plan); err != nil {
			return err
		}
		return e.appendAudit(ctx, plan, auditDomain.ActionPlanCreated, map[string]any{
			"threshold":           plan.Threshold,
			"total_shares":        plan.TotalShares,
			"waiting_period_days": plan.WaitingPeriodDays,
		})
	})
	if err != nil {
		return nil, err
	}

	return plan, nil
}

// GetPlan returns the plan with its trustees, beneficiaries and coverage.
func (e *planEngine) GetPlan(ctx context.Context, ownerID, planID uuid.UUID) (*PlanDetails, error) {
	plan, err := e.ownedPlan(ctx, ownerID, planID)
	if err != nil {
		return nil, err
	}

	trustees, err := e.trusteeRepo.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	beneficiaries, err := e.beneficiaryRepo.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	coveredItems, err := e.coveredItemRepo.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	return &PlanDetails{
		Plan:          plan,
		Trustees:      trustees,
		Beneficiaries: beneficiaries,
		CoveredItems:  coveredItems,
	}, nil
}

// ListPlans returns the owner's plans.
func (e *planEngine) ListPlans(ctx context.Context, ownerID uuid.UUID, limit, offset uint) ([]*domain.RecoveryPlan, error) {
	return e.planRepo.ListByOwner(ctx, ownerID, limit, offset)
}

// RegisterTrustee adds a trustee to an active plan.
func (e *planEngine) RegisterTrustee(ctx context.Context, ownerID, planID uuid.UUID, input RegisterTrusteeInput) (*domain.Trustee, error) {
	lock := e.planLock(planID)
	lock.Lock()
	defer lock.Unlock()

	plan, err := e.ownedPlan(ctx, ownerID, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status != domain.PlanStatusActive {
		return nil, domain.NewInvalidTransition(
			fmt.Sprintf("trustees can only be registered while the plan is active, not %s", plan.Status))
	}
	if input.ShareIndex < 1 || input.ShareIndex > plan.TotalShares {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput,
			fmt.Sprintf("share index must be in [1, %d]", plan.TotalShares))
	}

	trustee := &domain.Trustee{
		ID:         uuid.Must(uuid.NewV7()),
		PlanID:     planID,
		Name:       input.Name,
		Email:      input.Email,
		ShareIndex: input.ShareIndex,
	}

	err = e.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := e.trusteeRepo.Create(ctx, trustee); err != nil {
			return err
		}
		return e.appendAudit(ctx, plan, auditDomain.ActionTrusteeAdded, map[string]any{
			"trustee_id":  trustee.ID,
			"share_index": trustee.ShareIndex,
		})
	})
	if err != nil {
		return nil, err
	}

	return trustee, nil
}

// RegisterBeneficiary adds a beneficiary while the plan is active or ready.
func (e *planEngine) RegisterBeneficiary(ctx context.Context, ownerID, planID uuid.UUID, input RegisterBeneficiaryInput) (*domain.Beneficiary, error) {
	lock := e.planLock(planID)
	lock.Lock()
	defer lock.Unlock()

	plan, err := e.ownedPlan(ctx, ownerID, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status != domain.PlanStatusActive && plan.Status != domain.PlanStatusReady {
		return nil, domain.NewInvalidTransition(
			fmt.Sprintf("beneficiaries can only be registered while the plan is active or ready, not %s", plan.Status))
	}

	beneficiary := &domain.Beneficiary{
		ID:           uuid.Must(uuid.NewV7()),
		PlanID:       planID,
		Name:         input.Name,
		Email:        input.Email,
		Relationship: input.Relationship,
	}

	if err := e.beneficiaryRepo.Create(ctx, beneficiary); err != nil {
		return nil, err
	}
	return beneficiary, nil
}

// CoverItem places a vault item under the plan.
func (e *planEngine) CoverItem(ctx context.Context, ownerID, planID, itemID uuid.UUID) error {
	lock := e.planLock(planID)
	lock.Lock()
	defer lock.Unlock()

	plan, err := e.ownedPlan(ctx, ownerID, planID)
	if err != nil {
		return err
	}
	if plan.Status != domain.PlanStatusActive && plan.Status != domain.PlanStatusReady {
		return domain.NewInvalidTransition(
			fmt.Sprintf("items can only be covered while the plan is active or ready, not %s", plan.Status))
	}

	return e.coveredItemRepo.Create(ctx, &domain.CoveredItem{PlanID: planID, ItemID: itemID})
}

// MarkReady transitions active -> ready, splitting and sealing the shares.
func (e *planEngine) MarkReady(ctx context.Context, ownerID, planID uuid.UUID, vmk *cryptoDomain.VaultMasterKey) ([]TrusteeKeyGrant, error) {
	lock := e.planLock(planID)
	lock.Lock()
	defer lock.Unlock()

	plan, err := e.ownedPlan(ctx, ownerID, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status == domain.PlanStatusReady {
		// Idempotent retry; the grants were handed out on the first call and
		// cannot be reproduced.
		return nil, nil
	}
	if plan.Status != domain.PlanStatusActive {
		return nil, domain.NewInvalidTransition(
			fmt.Sprintf("only an active plan can become ready, not %s", plan.Status))
	}

	trustees, err := e.trusteeRepo.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if len(trustees) != plan.TotalShares {
		return nil, domain.NewInvalidTransition(
			fmt.Sprintf("plan requires %d trustees, has %d", plan.TotalShares, len(trustees)))
	}
	byIndex := make(map[int]*domain.Trustee, len(trustees))
	for _, trustee := range trustees {
		byIndex[trustee.ShareIndex] = trustee
	}
	for index := 1; index <= plan.TotalShares; index++ {
		if _, ok := byIndex[index]; !ok {
			return nil, domain.NewInvalidTransition(
				fmt.Sprintf("share index %d has no trustee", index))
		}
	}

	shares, err := e.sharer.Split(vmk.Key, plan.Threshold, plan.TotalShares)
	if err != nil {
		return nil, err
	}
	defer func() {
		for i := range shares {
			cryptoDomain.Zero(shares[i].Payload)
		}
	}()

	grants := make([]TrusteeKeyGrant, 0, len(shares))
	err = e.txManager.WithTx(ctx, func(ctx context.Context) error {
		for _, share := range shares {
			trustee := byIndex[share.Index]

			sealed, trusteeKey, err := e.sealer.Seal(planID, share)
			if err != nil {
				return err
			}

			trustee.EncryptedShare = sealed.Ciphertext
			trustee.ShareNonce = sealed.Nonce
			if err := e.trusteeRepo.UpdateShare(ctx, trustee); err != nil {
				cryptoDomain.Zero(trusteeKey)
				return err
			}

			grants = append(grants, TrusteeKeyGrant{
				TrusteeID:  trustee.ID,
				ShareIndex: trustee.ShareIndex,
				Email:      trustee.Email,
				Key:        trusteeKey,
			})
		}

		plan.Status = domain.PlanStatusReady
		if err := e.planRepo.UpdateStatus(ctx, plan, domain.PlanStatusActive); err != nil {
			return err
		}

		return e.appendAudit(ctx, plan, auditDomain.ActionPlanReady, nil)
	})
	if err != nil {
		for i := range grants {
			cryptoDomain.Zero(grants[i].Key)
		}
		return nil, err
	}

	return grants, nil
}

// proveTrustee loads the trustee and checks the submitted key opens their
// sealed share. The opened payload is discarded; only the proof matters here.
func (e *planEngine) proveTrustee(ctx context.Context, plan *domain.RecoveryPlan, shareIndex int, trusteeKey []byte) (*domain.Trustee, error) {
	trustee, err := e.trusteeRepo.GetByPlanAndIndex(ctx, plan.ID, shareIndex)
	if err != nil {
		return nil, err
	}
	if !trustee.HasShare() {
		return nil, domain.NewInvalidTransition("shares have not been assigned yet")
	}

	payload, err := e.sealer.Open(plan.ID, trustee.ShareIndex, trustee.EncryptedShare, trustee.ShareNonce, trusteeKey)
	if err != nil {
		return nil, err
	}
	cryptoDomain.Zero(payload)

	return trustee, nil
}

// Approve records a trustee's approval.
func (e *planEngine) Approve(ctx context.Context, planID uuid.UUID, shareIndex int, trusteeKey []byte) error {
	lock := e.planLock(planID)
	lock.Lock()
	defer lock.Unlock()

	plan, err := e.planRepo.GetByID(ctx, planID)
	if err != nil {
		return err
	}
	if plan.Status != domain.PlanStatusReady && plan.Status != domain.PlanStatusTriggered {
		return domain.NewInvalidTransition(
			fmt.Sprintf("approvals are only accepted while the plan is ready or triggered, not %s", plan.Status))
	}

	trustee, err := e.proveTrustee(ctx, plan, shareIndex, trusteeKey)
	if err != nil {
		return err
	}
	if trustee.HasApproved {
		return nil
	}

	now := time.Now().UTC()
	trustee.HasApproved = true
	trustee.ApprovedAt = &now

	return e.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := e.trusteeRepo.UpdateApproval(ctx, trustee); err != nil {
			return err
		}
		return e.appendAudit(ctx, plan, auditDomain.ActionTrusteeApproved, map[string]any{
			"share_index": trustee.ShareIndex,
		})
	})
}

// RevokeApproval withdraws a trustee's approval before completion.
func (e *planEngine) RevokeApproval(ctx context.Context, planID uuid.UUID, shareIndex int, trusteeKey []byte) error {
	lock := e.planLock(planID)
	lock.Lock()
	defer lock.Unlock()

	plan, err := e.planRepo.GetByID(ctx, planID)
	if err != nil {
		return err
	}
	if plan.Status != domain.PlanStatusReady && plan.Status != domain.PlanStatusTriggered {
		return domain.NewInvalidTransition(
			fmt.Sprintf("approvals can only be revoked while the plan is ready or triggered, not %s", plan.Status))
	}

	trustee, err := e.proveTrustee(ctx, plan, shareIndex, trusteeKey)
	if err != nil {
		return err
	}
	if !trustee.HasApproved {
		return nil
	}

	trustee.HasApproved = false
	trustee.ApprovedAt = nil

	return e.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := e.trusteeRepo.UpdateApproval(ctx, trustee); err != nil {
			return err
		}
		return e.appendAudit(ctx, plan, auditDomain.ActionTrusteeRevoked, map[string]any{
			"share_index": trustee.ShareIndex,
		})
	})
}

func approvedCount(trustees []*domain.Trustee) int {
	count := 0
	for _, trustee := range trustees {
		if trustee.HasApproved {
			count++
		}
	}
	return count
}

// RequestTrigger transitions ready -> triggered, starting the waiting period.
func (e *planEngine) RequestTrigger(ctx context.Context, planID uuid.UUID) (*domain.RecoveryPlan, error) {
	lock := e.planLock(planID)
	lock.Lock()
	defer lock.Unlock()

	plan, err := e.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status == domain.PlanStatusTriggered {
		return plan, nil
	}
	if plan.Status != domain.PlanStatusReady {
		return nil, domain.NewInvalidTransition(
			fmt.Sprintf("only a ready plan can be triggered, not %s", plan.Status))
	}

	trustees, err := e.trusteeRepo.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if approvals := approvedCount(trustees); approvals < plan.Threshold {
		return nil, domain.NewInvalidTransition(
			fmt.Sprintf("insufficient approvals: %d of %d required", approvals, plan.Threshold))
	}

	now := time.Now().UTC()
	plan.Status = domain.PlanStatusTriggered
	plan.TriggeredAt = &now

	err = e.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := e.planRepo.UpdateStatus(ctx, plan, domain.PlanStatusReady); err != nil {
			return err
		}
		if err := e.appendAudit(ctx, plan, auditDomain.ActionPlanTriggered, map[string]any{
			"waiting_period_days": plan.WaitingPeriodDays,
		}); err != nil {
			return err
		}
		return e.emitEvent(ctx, "plan.triggered", map[string]any{
			"plan_id":      plan.ID,
			"owner_id":     plan.OwnerID,
			"triggered_at": now,
		})
	})
	if err != nil {
		return nil, err
	}

	return plan, nil
}

// Complete transitions triggered -> completed and reconstructs the master key.
func (e *planEngine) Complete(ctx context.Context, planID uuid.UUID, submissions []ShareSubmission) (*cryptoDomain.VaultMasterKey, error) {
	lock := e.planLock(planID)
	lock.Lock()
	defer lock.Unlock()

	plan, err := e.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status == domain.PlanStatusCompleted {
		return nil, nil
	}
	if plan.Status != domain.PlanStatusTriggered {
		return nil, domain.NewInvalidTransition(
			fmt.Sprintf("only a triggered plan can be completed, not %s", plan.Status))
	}
	if !plan.WaitingPeriodElapsed(time.Now().UTC()) {
		return nil, domain.NewInvalidTransition("waiting period has not elapsed")
	}

	trustees, err := e.trusteeRepo.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	// The quorum is re-validated here because approvals may have been revoked
	// during the waiting period.
	if approvals := approvedCount(trustees); approvals < plan.Threshold {
		return nil, domain.NewInvalidTransition(
			fmt.Sprintf("insufficient approvals: %d of %d required", approvals, plan.Threshold))
	}

	if len(submissions) < plan.Threshold {
		return nil, domain.ErrInsufficientShares
	}

	byIndex := make(map[int]*domain.Trustee, len(trustees))
	for _, trustee := range trustees {
		byIndex[trustee.ShareIndex] = trustee
	}

	shares := make([]recoveryService.Share, 0, len(submissions))
	defer func() {
		for i := range shares {
			cryptoDomain.Zero(shares[i].Payload)
		}
	}()
	for _, submission := range submissions {
		trustee, ok := byIndex[submission.ShareIndex]
		if !ok {
			return nil, domain.ErrTrusteeNotFound
		}

		payload, err := e.sealer.Open(planID, trustee.ShareIndex, trustee.EncryptedShare, trustee.ShareNonce, submission.TrusteeKey)
		if err != nil {
			return nil, err
		}
		shares = append(shares, recoveryService.Share{Index: trustee.ShareIndex, Payload: payload})
	}

	secret, err := e.sharer.Combine(shares, plan.Threshold)
	if err != nil {
		return nil, err
	}

	vmk := &cryptoDomain.VaultMasterKey{Key: secret}

	if e.verifier != nil {
		coveredItems, err := e.coveredItemRepo.ListByPlan(ctx, planID)
		if err != nil {
			cryptoDomain.Zero(vmk.Key)
			return nil, err
		}
		for _, item := range coveredItems {
			if err := e.verifier.VerifyRecoverable(ctx, item.ItemID, vmk); err != nil {
				cryptoDomain.Zero(vmk.Key)
				return nil, err
			}
		}
	}

	now := time.Now().UTC()
	plan.Status = domain.PlanStatusCompleted
	plan.CompletedAt = &now

	err = e.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := e.planRepo.UpdateStatus(ctx, plan, domain.PlanStatusTriggered); err != nil {
			return err
		}
		for _, submission := range submissions {
			if err := e.appendAudit(ctx, plan, auditDomain.ActionShareSubmitted, map[string]any{
				"share_index": submission.ShareIndex,
			}); err != nil {
				return err
			}
		}
		if err := e.appendAudit(ctx, plan, auditDomain.ActionPlanCompleted, map[string]any{
			"shares_submitted": len(submissions),
		}); err != nil {
			return err
		}
		return e.emitEvent(ctx, "plan.completed", map[string]any{
			"plan_id":      plan.ID,
			"owner_id":     plan.OwnerID,
			"completed_at": now,
		})
	})
	if err != nil {
		cryptoDomain.Zero(vmk.Key)
		return nil, err
	}

	return vmk, nil
}

// Cancel aborts the plan from any non-terminal state.
func (e *planEngine) Cancel(ctx context.Context, ownerID, planID uuid.UUID) error {
	lock := e.planLock(planID)
	lock.Lock()
	defer lock.Unlock()

	plan, err := e.ownedPlan(ctx, ownerID, planID)
	if err != nil {
		return err
	}
	if plan.Status == domain.PlanStatusCancelled {
		return nil
	}
	if plan.Status == domain.PlanStatusCompleted {
		return domain.NewInvalidTransition("a completed plan cannot be cancelled")
	}

	previous := plan.Status
	plan.Status = domain.PlanStatusCancelled

	return e.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := e.planRepo.UpdateStatus(ctx, plan, previous); err != nil {
			return err
		}
		return e.appendAudit(ctx, plan, auditDomain.ActionPlanCancelled, map[string]any{
			"previous_status": string(previous),
		})
	})
}
