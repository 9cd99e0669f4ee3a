// Package usecase implements the recovery plan lifecycle state machine.
//
// Transitions are atomic and idempotent per plan: re-invoking a transition
// whose outcome already holds is a no-op, while an unmet precondition fails
// with ErrInvalidTransition naming the precondition and leaves state
// unchanged. Completion attempts for one plan are serialized so two callers
// can never both reconstruct the secret.
package usecase

import (
	"context"

	"github.com/google/uuid"

	cryptoDomain "github.com/keepsakevault/keepsake/internal/crypto/domain"
	"github.com/keepsakevault/keepsake/internal/recovery/domain"
)

// CreatePlanInput carries the parameters for a new recovery plan.
type CreatePlanInput struct {
	Name              string
	Threshold         int
	TotalShares       int
	WaitingPeriodDays int
}

// RegisterTrusteeInput carries the parameters for registering a trustee.
type RegisterTrusteeInput struct {
	Name       string
	Email      string
	ShareIndex int
}

// RegisterBeneficiaryInput carries the parameters for registering a beneficiary.
type RegisterBeneficiaryInput struct {
	Name         string
	Email        string
	Relationship string
}

// ShareSubmission is one trustee's contribution to a completion attempt: the
// share index and the trustee key that opens the sealed share stored for it.
type ShareSubmission struct {
	ShareIndex int
	TrusteeKey []byte
}

// TrusteeKeyGrant pairs a trustee with the key produced when their share was
// sealed. Returned exactly once, at the readiness transition, for the owner
// to deliver out of band.
type TrusteeKeyGrant struct {
	TrusteeID  uuid.UUID
	ShareIndex int
	Email      string
	Key        []byte
}

// PlanDetails aggregates a plan with its registered parties and coverage.
type PlanDetails struct {
	Plan          *domain.RecoveryPlan
	Trustees      []*domain.Trustee
	Beneficiaries []*domain.Beneficiary
	CoveredItems  []*domain.CoveredItem
}

// RecoveryPlanRepository defines plan persistence operations.
type RecoveryPlanRepository interface {
	Create(ctx context.Context, plan *domain.RecoveryPlan) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.RecoveryPlan, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset uint) ([]*domain.RecoveryPlan, error)
	// UpdateStatus persists the plan's status and timestamps only when the
	// stored status still equals expected; a lost race surfaces as
	// ErrPlanNotFound so the caller re-reads and re-evaluates idempotently.
	UpdateStatus(ctx context.Context, plan *domain.RecoveryPlan, expected domain.PlanStatus) error
}

// TrusteeRepository defines trustee persistence operations.
type TrusteeRepository interface {
	Create(ctx context.Context, trustee *domain.Trustee) error
	GetByPlanAndIndex(ctx context.Context, planID uuid.UUID, shareIndex int) (*domain.Trustee, error)
	ListByPlan(ctx context.Context, planID uuid.UUID) ([]*domain.Trustee, error)
	UpdateShare(ctx context.Context, trustee *domain.Trustee) error
	UpdateApproval(ctx context.Context, trustee *domain.Trustee) error
}

// BeneficiaryRepository defines beneficiary persistence operations.
type BeneficiaryRepository interface {
	Create(ctx context.Context, beneficiary *domain.Beneficiary) error
	ListByPlan(ctx context.Context, planID uuid.UUID) ([]*domain.Beneficiary, error)
}

// CoveredItemRepository defines covered item persistence operations.
type CoveredItemRepository interface {
	Create(ctx context.Context, item *domain.CoveredItem) error
	ListByPlan(ctx context.Context, planID uuid.UUID) ([]*domain.CoveredItem, error)
}

// RecoverabilityVerifier checks that a reconstructed master key can actually
// unwrap a covered item's content key. Implemented by the vault use case;
// keeps completion from reporting success with a key that opens nothing.
type RecoverabilityVerifier interface {
	VerifyRecoverable(ctx context.Context, itemID uuid.UUID, vmk *cryptoDomain.VaultMasterKey) error
}

// RecoveryPlanUseCase defines the plan lifecycle operations.
type RecoveryPlanUseCase interface {
	// CreatePlan creates an active plan owned by ownerID.
	CreatePlan(ctx context.Context, ownerID uuid.UUID, input CreatePlanInput) (*domain.RecoveryPlan, error)

	// GetPlan returns the plan with trustees, beneficiaries and coverage.
	// Only the owner can read a plan.
	GetPlan(ctx context.Context, ownerID, planID uuid.UUID) (*PlanDetails, error)

	// ListPlans returns the owner's plans.
	ListPlans(ctx context.Context, ownerID uuid.UUID, limit, offset uint) ([]*domain.RecoveryPlan, error)

	// RegisterTrustee adds a trustee while the plan is active. The share is
	// not assigned here; shares are split and sealed at the readiness
	// transition, when all n trustees exist.
	RegisterTrustee(ctx context.Context, ownerID, planID uuid.UUID, input RegisterTrusteeInput) (*domain.Trustee, error)

	// RegisterBeneficiary adds a beneficiary while the plan is active or ready.
	RegisterBeneficiary(ctx context.Context, ownerID, planID uuid.UUID, input RegisterBeneficiaryInput) (*domain.Beneficiary, error)

	// CoverItem places a vault item under the plan while it is active or ready.
	CoverItem(ctx context.Context, ownerID, planID, itemID uuid.UUID) error

	// MarkReady transitions active -> ready: verifies the structural
	// invariants (n trustees, indices exactly 1..n), splits the master key
	// into n shares and seals one to each trustee. The returned grants carry
	// the trustee keys and are never reproducible; calling MarkReady on a
	// ready plan is a no-op returning no grants.
	MarkReady(ctx context.Context, ownerID, planID uuid.UUID, vmk *cryptoDomain.VaultMasterKey) ([]TrusteeKeyGrant, error)

	// Approve records a trustee's approval. The trustee key proves the caller
	// holds the sealed share. Approving twice is a no-op.
	Approve(ctx context.Context, planID uuid.UUID, shareIndex int, trusteeKey []byte) error

	// RevokeApproval withdraws an approval before completion. Revoking an
	// absent approval is a no-op.
	RevokeApproval(ctx context.Context, planID uuid.UUID, shareIndex int, trusteeKey []byte) error

	// RequestTrigger transitions ready -> triggered when at least k trustees
	// have approved, starting the waiting period.
	RequestTrigger(ctx context.Context, planID uuid.UUID) (*domain.RecoveryPlan, error)

	// Complete transitions triggered -> completed when the waiting period has
	// elapsed and the quorum still holds. It opens the submitted shares,
	// reconstructs the master key and verifies it against the covered items.
	// The recovered key is returned only on the transition itself; completing
	// an already completed plan is a no-op returning nil.
	Complete(ctx context.Context, planID uuid.UUID, submissions []ShareSubmission) (*cryptoDomain.VaultMasterKey, error)

	// Cancel aborts the plan from any non-terminal state. Irreversible.
	Cancel(ctx context.Context, ownerID, planID uuid.UUID) error
}
