package usecase

import (
	"context"
	"crypto/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/keepsakevault/keepsake/internal/audit/domain"
	auditUseCase "github.com/keepsakevault/keepsake/internal/audit/usecase"
	cryptoDomain "github.com/keepsakevault/keepsake/internal/crypto/domain"
	cryptoService "github.com/keepsakevault/keepsake/internal/crypto/service"
	apperrors "github.com/keepsakevault/keepsake/internal/errors"
	outboxDomain "github.com/keepsakevault/keepsake/internal/outbox/domain"
	"github.com/keepsakevault/keepsake/internal/recovery/domain"
	recoveryService "github.com/keepsakevault/keepsake/internal/recovery/service"
)

// fakeTxManager runs the function directly; the memory repositories have no
// transactional behavior to coordinate.
type fakeTxManager struct{}

func (f *fakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memoryPlanRepository struct {
	mu    sync.Mutex
	plans map[uuid.UUID]*domain.RecoveryPlan
}

func newMemoryPlanRepository() *memoryPlanRepository {
	return &memoryPlanRepository{plans: make(map[uuid.UUID]*domain.RecoveryPlan)}
}

func (r *memoryPlanRepository) Create(_ context.Context, plan *domain.RecoveryPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *plan
	r.plans[plan.ID] = &stored
	return nil
}

func (r *memoryPlanRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.RecoveryPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan, ok := r.plans[id]
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	copied := *plan
	return &copied, nil
}

func (r *memoryPlanRepository) ListByOwner(_ context.Context, ownerID uuid.UUID, _, _ uint) ([]*domain.RecoveryPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	plans := make([]*domain.RecoveryPlan, 0)
	for _, plan := range r.plans {
		if plan.OwnerID == ownerID {
			copied := *plan
			plans = append(plans, &copied)
		}
	}
	return plans, nil
}

func (r *memoryPlanRepository) UpdateStatus(_ context.Context, plan *domain.RecoveryPlan, expected domain.PlanStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.plans[plan.ID]
	if !ok || stored.Status != expected {
		return domain.ErrPlanNotFound
	}
	stored.Status = plan.Status
	stored.TriggeredAt = plan.TriggeredAt
	stored.CompletedAt = plan.CompletedAt
	return nil
}

// backdateTrigger moves the stored trigger timestamp into the past so waiting
// period checks can be exercised without sleeping.
func (r *memoryPlanRepository) backdateTrigger(id uuid.UUID, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if plan, ok := r.plans[id]; ok && plan.TriggeredAt != nil {
		backdated := plan.TriggeredAt.Add(-d)
		plan.TriggeredAt = &backdated
	}
}

type memoryTrusteeRepository struct {
	mu       sync.Mutex
	trustees map[uuid.UUID]*domain.Trustee
}

func newMemoryTrusteeRepository() *memoryTrusteeRepository {
	return &memoryTrusteeRepository{trustees: make(map[uuid.UUID]*domain.Trustee)}
}

func (r *memoryTrusteeRepository) Create(_ context.Context, trustee *domain.Trustee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.trustees {
		if existing.PlanID != trustee.PlanID {
			continue
		}
		if existing.ShareIndex == trustee.ShareIndex {
			return domain.ErrShareIndexTaken
		}
		if existing.Email == trustee.Email {
			return domain.ErrTrusteeAlreadyExists
		}
	}
	stored := *trustee
	r.trustees[trustee.ID] = &stored
	return nil
}

func (r *memoryTrusteeRepository) GetByPlanAndIndex(_ context.Context, planID uuid.UUID, shareIndex int) (*domain.Trustee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, trustee := range r.trustees {
		if trustee.PlanID == planID && trustee.ShareIndex == shareIndex {
			copied := *trustee
			return &copied, nil
		}
	}
	return nil, domain.ErrTrusteeNotFound
}

func (r *memoryTrusteeRepository) ListByPlan(_ context.Context, planID uuid.UUID) ([]*domain.Trustee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	trustees := make([]*domain.Trustee, 0)
	for _, trustee := range r.trustees {
		if trustee.PlanID == planID {
			copied := *trustee
			trustees = append(trustees, &copied)
		}
	}
	return trustees, nil
}

func (r *memoryTrusteeRepository) UpdateShare(_ context.Context, trustee *domain.Trustee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.trustees[trustee.ID]
	if !ok {
		return domain.ErrTrusteeNotFound
	}
	stored.EncryptedShare = append([]byte(nil), trustee.EncryptedShare...)
	stored.ShareNonce = append([]byte(nil), trustee.ShareNonce...)
	return nil
}

func (r *memoryTrusteeRepository) UpdateApproval(_ context.Context, trustee *domain.Trustee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.trustees[trustee.ID]
	if !ok {
		return domain.ErrTrusteeNotFound
	}
	stored.HasApproved = trustee.HasApproved
	stored.ApprovedAt = trustee.ApprovedAt
	return nil
}

type memoryBeneficiaryRepository struct {
	mu            sync.Mutex
	beneficiaries []*domain.Beneficiary
}

func (r *memoryBeneficiaryRepository) Create(_ context.Context, beneficiary *domain.Beneficiary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.beneficiaries {
		if existing.PlanID == beneficiary.PlanID && existing.Email == beneficiary.Email {
			return domain.ErrBeneficiaryAlreadyExists
		}
	}
	stored := *beneficiary
	r.beneficiaries = append(r.beneficiaries, &stored)
	return nil
}

func (r *memoryBeneficiaryRepository) ListByPlan(_ context.Context, planID uuid.UUID) ([]*domain.Beneficiary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*domain.Beneficiary, 0)
	for _, beneficiary := range r.beneficiaries {
		if beneficiary.PlanID == planID {
			result = append(result, beneficiary)
		}
	}
	return result, nil
}

type memoryCoveredItemRepository struct {
	mu    sync.Mutex
	items []*domain.CoveredItem
}

func (r *memoryCoveredItemRepository) Create(_ context.Context, item *domain.CoveredItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.PlanID == item.PlanID && existing.ItemID == item.ItemID {
			return nil
		}
	}
	stored := *item
	r.items = append(r.items, &stored)
	return nil
}

func (r *memoryCoveredItemRepository) ListByPlan(_ context.Context, planID uuid.UUID) ([]*domain.CoveredItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*domain.CoveredItem, 0)
	for _, item := range r.items {
		if item.PlanID == planID {
			result = append(result, item)
		}
	}
	return result, nil
}

type memoryOutboxRepository struct {
	mu     sync.Mutex
	events []*outboxDomain.OutboxEvent
}

func (r *memoryOutboxRepository) Create(_ context.Context, event *outboxDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *memoryOutboxRepository) GetPendingEvents(_ context.Context, limit int) ([]*outboxDomain.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit > len(r.events) {
		limit = len(r.events)
	}
	return r.events[:limit], nil
}

func (r *memoryOutboxRepository) Update(_ context.Context, _ *outboxDomain.OutboxEvent) error {
	return nil
}

func (r *memoryOutboxRepository) eventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, event := range r.events {
		types = append(types, event.EventType)
	}
	return types
}

// recordingAudit captures appended actions; chain semantics are covered by
// the audit package's own tests.
type recordingAudit struct {
	mu      sync.Mutex
	actions []auditDomain.Action
}

func (a *recordingAudit) Append(_ context.Context, input auditUseCase.AppendInput) (*auditDomain.AuditRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, input.Action)
	return &auditDomain.AuditRecord{Action: input.Action}, nil
}

func (a *recordingAudit) Verify(context.Context, uuid.UUID) (auditUseCase.VerifyResult, error) {
	return auditUseCase.VerifyResult{Valid: true, FirstBreakIndex: -1}, nil
}

func (a *recordingAudit) List(context.Context, uuid.UUID, uint, uint) ([]*auditDomain.AuditRecord, error) {
	return nil, nil
}

func (a *recordingAudit) recorded() []auditDomain.Action {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]auditDomain.Action(nil), a.actions...)
}

type engineHarness struct {
	engine   RecoveryPlanUseCase
	planRepo *memoryPlanRepository
	trustees *memoryTrusteeRepository
	outbox   *memoryOutboxRepository
	audit    *recordingAudit
	ownerID  uuid.UUID
	vmk      *cryptoDomain.VaultMasterKey
}

type failingVerifier struct{ err error }

func (v *failingVerifier) VerifyRecoverable(context.Context, uuid.UUID, *cryptoDomain.VaultMasterKey) error {
	return v.err
}

func newEngineHarness(t *testing.T, verifier RecoverabilityVerifier) *engineHarness {
	t.Helper()

	key := make([]byte, cryptoDomain.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)

	h := &engineHarness{
		planRepo: newMemoryPlanRepository(),
		trustees: newMemoryTrusteeRepository(),
		outbox:   &memoryOutboxRepository{},
		audit:    &recordingAudit{},
		ownerID:  uuid.Must(uuid.NewV7()),
		vmk:      &cryptoDomain.VaultMasterKey{Key: key},
	}
	h.engine = NewPlanEngine(
		&fakeTxManager{},
		h.planRepo,
		h.trustees,
		&memoryBeneficiaryRepository{},
		&memoryCoveredItemRepository{},
		h.outbox,
		recoveryService.NewSecretSharer(),
		recoveryService.NewShareSealer(cryptoService.NewAEADManager()),
		h.audit,
		verifier,
	)
	return h
}

// readyPlan creates a plan, registers n trustees and marks it ready,
// returning the plan and the grants keyed by share index.
func (h *engineHarness) readyPlan(t *testing.T, k, n, waitingDays int) (*domain.RecoveryPlan, map[int][]byte) {
	t.Helper()
	ctx := context.Background()

	plan, err := h.engine.CreatePlan(ctx, h.ownerID, CreatePlanInput{
		Name:              "estate plan",
		Threshold:         k,
		TotalShares:       n,
		WaitingPeriodDays: waitingDays,
	})
	require.NoError(t, err)

	for i := 1; i <= n; i++ {
		_, err := h.engine.RegisterTrustee(ctx, h.ownerID, plan.ID, RegisterTrusteeInput{
			Name:       "Trustee",
			Email:      trusteeEmail(i),
			ShareIndex: i,
		})
		require.NoError(t, err)
	}

	grants, err := h.engine.MarkReady(ctx, h.ownerID, plan.ID, h.vmk)
	require.NoError(t, err)
	require.Len(t, grants, n)

	keys := make(map[int][]byte, n)
	for _, grant := range grants {
		keys[grant.ShareIndex] = append([]byte(nil), grant.Key...)
	}
	return plan, keys
}

func trusteeEmail(i int) string {
	return string(rune('a'+i)) + "@trustees.example"
}

func TestPlanEngine_CreatePlan(t *testing.T) {
	h := newEngineHarness(t, nil)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		plan, err := h.engine.CreatePlan(ctx, h.ownerID, CreatePlanInput{
			Name:              "estate plan",
			Threshold:         3,
			TotalShares:       5,
			WaitingPeriodDays: 7,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.PlanStatusActive, plan.Status)
		assert.Contains(t, h.audit.recorded(), auditDomain.ActionPlanCreated)
	})

	t.Run("Error_ThresholdAboveTotal", func(t *testing.T) {
		_, err := h.engine.CreatePlan(ctx, h.ownerID, CreatePlanInput{
			Name:              "bad",
			Threshold:         6,
			TotalShares:       5,
			WaitingPeriodDays: 7,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidPlanParameters)
	})

	t.Run("Error_TooManyShares", func(t *testing.T) {
		_, err := h.engine.CreatePlan(ctx, h.ownerID, CreatePlanInput{
			Name:              "bad",
			Threshold:         2,
			TotalShares:       domain.MaxTotalShares + 1,
			WaitingPeriodDays: 7,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidPlanParameters)
	})

	t.Run("Error_NoWaitingPeriod", func(t *testing.T) {
		_, err := h.engine.CreatePlan(ctx, h.ownerID, CreatePlanInput{
			Name:              "bad",
			Threshold:         2,
			TotalShares:       3,
			WaitingPeriodDays: 0,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidPlanParameters)
	})
}

func TestPlanEngine_Ownership(t *testing.T) {
	h := newEngineHarness(t, nil)
	ctx := context.Background()

	plan, err := h.engine.CreatePlan(ctx, h.ownerID, CreatePlanInput{
		Name: "estate plan", Threshold: 2, TotalShares: 3, WaitingPeriodDays: 7,
	})
	require.NoError(t, err)

	stranger := uuid.Must(uuid.NewV7())

	t.Run("ForeignPlanReadsAsNotFound", func(t *testing.T) {
		_, err := h.engine.GetPlan(ctx, stranger, plan.ID)
		assert.ErrorIs(t, err, domain.ErrPlanNotFound)
	})

	t.Run("ForeignPlanCancelsAsNotFound", func(t *testing.T) {
		err := h.engine.Cancel(ctx, stranger, plan.ID)
		assert.ErrorIs(t, err, domain.ErrPlanNotFound)
	})
}

func TestPlanEngine_RegisterTrustee(t *testing.T) {
	h := newEngineHarness(t, nil)
	ctx := context.Background()

	plan, err := h.engine.CreatePlan(ctx, h.ownerID, CreatePlanInput{
		Name: "estate plan", Threshold: 2, TotalShares: 3, WaitingPeriodDays: 7,
	})
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		trustee, err := h.engine.RegisterTrustee(ctx, h.ownerID, plan.ID, RegisterTrusteeInput{
			Name: "Ana", Email: "ana@trustees.example", ShareIndex: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, trustee.ShareIndex)
		assert.False(t, trustee.HasShare())
	})

	t.Run("Error_ShareIndexTaken", func(t *testing.T) {
		_, err := h.engine.RegisterTrustee(ctx, h.ownerID, plan.ID, RegisterTrusteeInput{
			Name: "Bob", Email: "bob@trustees.example", ShareIndex: 1,
		})
		assert.ErrorIs(t, err, domain.ErrShareIndexTaken)
	})

	t.Run("Error_ShareIndexOutOfRange", func(t *testing.T) {
		_, err := h.engine.RegisterTrustee(ctx, h.ownerID, plan.ID, RegisterTrusteeInput{
			Name: "Cal", Email: "cal@trustees.example", ShareIndex: 4,
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestPlanEngine_MarkReady(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_GrantsOnePerTrustee", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		_, keys := h.readyPlan(t, 3, 5, 7)
		assert.Len(t, keys, 5)
		for index, key := range keys {
			assert.GreaterOrEqual(t, index, 1)
			assert.LessOrEqual(t, index, 5)
			assert.Len(t, key, 32)
		}
	})

	t.Run("Success_RepeatIsNoOpWithoutGrants", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		plan, _ := h.readyPlan(t, 2, 3, 7)

		grants, err := h.engine.MarkReady(ctx, h.ownerID, plan.ID, h.vmk)
		require.NoError(t, err)
		assert.Empty(t, grants)
	})

	t.Run("Error_MissingTrustees", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		plan, err := h.engine.CreatePlan(ctx, h.ownerID, CreatePlanInput{
			Name: "estate plan", Threshold: 2, TotalShares: 3, WaitingPeriodDays: 7,
		})
		require.NoError(t, err)

		_, err = h.engine.RegisterTrustee(ctx, h.ownerID, plan.ID, RegisterTrusteeInput{
			Name: "Ana", Email: "ana@trustees.example", ShareIndex: 1,
		})
		require.NoError(t, err)

		_, err = h.engine.MarkReady(ctx, h.ownerID, plan.ID, h.vmk)
		assert.ErrorIs(t, err, apperrors.ErrPreconditionFailed)

		stored, err := h.planRepo.GetByID(ctx, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PlanStatusActive, stored.Status)
	})

	t.Run("Error_TrusteeRegistrationClosesAfterReady", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		plan, _ := h.readyPlan(t, 2, 3, 7)

		_, err := h.engine.RegisterTrustee(ctx, h.ownerID, plan.ID, RegisterTrusteeInput{
			Name: "Late", Email: "late@trustees.example", ShareIndex: 1,
		})
		assert.ErrorIs(t, err, apperrors.ErrPreconditionFailed)
	})
}

func TestPlanEngine_Approvals(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_ApproveAndRevoke", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		plan, keys := h.readyPlan(t, 2, 3, 7)

		require.NoError(t, h.engine.Approve(ctx, plan.ID, 1, keys[1]))

		trustee, err := h.trustees.GetByPlanAndIndex(ctx, plan.ID, 1)
		require.NoError(t, err)
		assert.True(t, trustee.HasApproved)
		require.NotNil(t, trustee.ApprovedAt)

		require.NoError(t, h.engine.RevokeApproval(ctx, plan.ID, 1, keys[1]))

		trustee, err = h.trustees.GetByPlanAndIndex(ctx, plan.ID, 1)
		require.NoError(t, err)
		assert.False(t, trustee.HasApproved)
		assert.Nil(t, trustee.ApprovedAt)
	})

	t.Run("Success_ApproveTwiceIsNoOp", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		plan, keys := h.readyPlan(t, 2, 3, 7)

		require.NoError(t, h.engine.Approve(ctx, plan.ID, 2, keys[2]))
		require.NoError(t, h.engine.Approve(ctx, plan.ID, 2, keys[2]))

		actions := h.audit.recorded()
		count := 0
		for _, action := range actions {
			if action == auditDomain.ActionTrusteeApproved {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("Error_WrongTrusteeKey", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		plan, keys := h.readyPlan(t, 2, 3, 7)

		// Trustee 1's key cannot approve for trustee 2.
		err := h.engine.Approve(ctx, plan.ID, 2, keys[1])
		assert.ErrorIs(t, err, domain.ErrInvalidShare)
	})

	t.Run("Error_BeforeShares", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		plan, err := h.engine.CreatePlan(ctx, h.ownerID, CreatePlanInput{
			Name: "estate plan", Threshold: 2, TotalShares: 3, WaitingPeriodDays: 7,
		})
		require.NoError(t, err)

		err = h.engine.Approve(ctx, plan.ID, 1, make([]byte, 32))
		assert.ErrorIs(t, err, apperrors.ErrPreconditionFailed)
	})
}

func TestPlanEngine_RequestTrigger(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_QuorumReached", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		plan, keys := h.readyPlan(t, 3, 5, 7)

		for _, index := range []int{1, 3, 5} {
			require.NoError(t, h.engine.Approve(ctx, plan.ID, index, keys[index]))
		}

		triggered, err := h.engine.RequestTrigger(ctx, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PlanStatusTriggered, triggered.Status)
		require.NotNil(t, triggered.TriggeredAt)
		assert.Contains(t, h.outbox.eventTypes(), "plan.triggered")
	})

	t.Run("Success_RepeatReturnsTriggeredPlan", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		plan, keys := h.readyPlan(t, 2, 3, 7)

		require.NoError(t, h.engine.Approve(ctx, plan.ID, 1, keys[1]))
		require.NoError(t, h.engine.Approve(ctx, plan.ID, 2, keys[2]))

		first, err := h.engine.RequestTrigger(ctx, plan.ID)
		require.NoError(t, err)
		second, err := h.engine.RequestTrigger(ctx, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, first.Status, second.Status)
		assert.Equal(t, first.TriggeredAt.Unix(), second.TriggeredAt.Unix())
	})

	t.Run("Error_InsufficientApprovals", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		plan, keys := h.readyPlan(t, 3, 5, 7)

		require.NoError(t, h.engine.Approve(ctx, plan.ID, 1, keys[1]))
		require.NoError(t, h.engine.Approve(ctx, plan.ID, 2, keys[2]))

		_, err := h.engine.RequestTrigger(ctx, plan.ID)
		assert.ErrorIs(t, err, apperrors.ErrPreconditionFailed)
	})

	t.Run("Error_RevocationDropsQuorum", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		plan, keys := h.readyPlan(t, 2, 3, 7)

		require.NoError(t, h.engine.Approve(ctx, plan.ID, 1, keys[1]))
		require.NoError(t, h.engine.Approve(ctx, plan.ID, 2, keys[2]))
		require.NoError(t, h.engine.RevokeApproval(ctx, plan.ID, 2, keys[2]))

		_, err := h.engine.RequestTrigger(ctx, plan.ID)
		assert.ErrorIs(t, err, apperrors.ErrPreconditionFailed)
	})

	t.Run("Error_ActivePlan", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		plan, err := h.engine.CreatePlan(ctx, h.ownerID, CreatePlanInput{
			Name: "estate plan", Threshold: 2, TotalShares: 3, WaitingPeriodDays: 7,
		})
		require.NoError(t, err)

		_, err = h.engine.RequestTrigger(ctx, plan.ID)
		assert.ErrorIs(t, err, apperrors.ErrPreconditionFailed)
	})
}

// triggeredPlan drives a fresh plan through approval and trigger with the
// given quorum indices.
func (h *engineHarness) triggeredPlan(t *testing.T, k, n, waitingDays int, quorum []int) (*domain.RecoveryPlan, map[int][]byte) {
	t.Helper()
	ctx := context.Background()

	plan, keys := h.readyPlan(t, k, n, waitingDays)
	for _, index := range quorum {
		require.NoError(t, h.engine.Approve(ctx, plan.ID, index, keys[index]))
	}
	_, err := h.engine.RequestTrigger(ctx, plan.ID)
	require.NoError(t, err)
	return plan, keys
}

func submissionsFor(keys map[int][]byte, indices []int) []ShareSubmission {
	submissions := make([]ShareSubmission, 0, len(indices))
	for _, index := range indices {
		submissions = append(submissions, ShareSubmission{ShareIndex: index, TrusteeKey: keys[index]})
	}
	return submissions
}

func TestPlanEngine_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_AfterWaitingPeriod", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		quorum := []int{1, 3, 5}
		plan, keys := h.triggeredPlan(t, 3, 5, 7, quorum)

		h.planRepo.backdateTrigger(plan.ID, 7*24*time.Hour)

		vmk, err := h.engine.Complete(ctx, plan.ID, submissionsFor(keys, quorum))
		require.NoError(t, err)
		require.NotNil(t, vmk)
		assert.Equal(t, h.vmk.Key, vmk.Key)

		stored, err := h.planRepo.GetByID(ctx, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PlanStatusCompleted, stored.Status)
		require.NotNil(t, stored.CompletedAt)
		assert.Contains(t, h.outbox.eventTypes(), "plan.completed")
		assert.Contains(t, h.audit.recorded(), auditDomain.ActionShareSubmitted)
	})

	t.Run("Success_AnyQuorumSubsetCompletes", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		plan, keys := h.triggeredPlan(t, 3, 5, 7, []int{1, 2, 3, 4, 5})

		h.planRepo.backdateTrigger(plan.ID, 7*24*time.Hour)

		vmk, err := h.engine.Complete(ctx, plan.ID, submissionsFor(keys, []int{2, 4, 5}))
		require.NoError(t, err)
		require.NotNil(t, vmk)
		assert.Equal(t, h.vmk.Key, vmk.Key)
	})

	t.Run("Success_RepeatIsNoOpWithoutKey", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		quorum := []int{1, 2}
		plan, keys := h.triggeredPlan(t, 2, 3, 7, quorum)

		h.planRepo.backdateTrigger(plan.ID, 7*24*time.Hour)

		vmk, err := h.engine.Complete(ctx, plan.ID, submissionsFor(keys, quorum))
		require.NoError(t, err)
		require.NotNil(t, vmk)

		again, err := h.engine.Complete(ctx, plan.ID, submissionsFor(keys, quorum))
		require.NoError(t, err)
		assert.Nil(t, again)
	})

	t.Run("Error_WaitingPeriodNotElapsed", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		quorum := []int{1, 3, 5}
		plan, keys := h.triggeredPlan(t, 3, 5, 7, quorum)

		// Six of the seven required days have passed.
		h.planRepo.backdateTrigger(plan.ID, 6*24*time.Hour)

		_, err := h.engine.Complete(ctx, plan.ID, submissionsFor(keys, quorum))
		assert.ErrorIs(t, err, apperrors.ErrPreconditionFailed)

		stored, err := h.planRepo.GetByID(ctx, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PlanStatusTriggered, stored.Status)
	})

	t.Run("Error_RevocationDuringWaitDropsQuorum", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		quorum := []int{1, 2}
		plan, keys := h.triggeredPlan(t, 2, 3, 7, quorum)

		require.NoError(t, h.engine.RevokeApproval(ctx, plan.ID, 2, keys[2]))
		h.planRepo.backdateTrigger(plan.ID, 7*24*time.Hour)

		_, err := h.engine.Complete(ctx, plan.ID, submissionsFor(keys, quorum))
		assert.ErrorIs(t, err, apperrors.ErrPreconditionFailed)
	})

	t.Run("Error_TooFewSubmissions", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		quorum := []int{1, 2, 3}
		plan, keys := h.triggeredPlan(t, 3, 5, 7, quorum)

		h.planRepo.backdateTrigger(plan.ID, 7*24*time.Hour)

		_, err := h.engine.Complete(ctx, plan.ID, submissionsFor(keys, []int{1, 2}))
		assert.ErrorIs(t, err, domain.ErrInsufficientShares)
	})

	t.Run("Error_WrongTrusteeKeyInSubmission", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		quorum := []int{1, 2}
		plan, keys := h.triggeredPlan(t, 2, 3, 7, quorum)

		h.planRepo.backdateTrigger(plan.ID, 7*24*time.Hour)

		submissions := []ShareSubmission{
			{ShareIndex: 1, TrusteeKey: keys[1]},
			{ShareIndex: 2, TrusteeKey: keys[1]},
		}
		_, err := h.engine.Complete(ctx, plan.ID, submissions)
		assert.ErrorIs(t, err, domain.ErrInvalidShare)
	})

	t.Run("Error_VerifierRejectsRecoveredKey", func(t *testing.T) {
		h := newEngineHarness(t, &failingVerifier{err: apperrors.ErrIntegrity})
		quorum := []int{1, 2}
		plan, keys := h.triggeredPlan(t, 2, 3, 7, quorum)

		require.NoError(t, h.engine.CoverItem(ctx, h.ownerID, plan.ID, uuid.Must(uuid.NewV7())))

		h.planRepo.backdateTrigger(plan.ID, 7*24*time.Hour)

		_, err := h.engine.Complete(ctx, plan.ID, submissionsFor(keys, quorum))
		assert.ErrorIs(t, err, apperrors.ErrIntegrity)

		stored, err := h.planRepo.GetByID(ctx, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PlanStatusTriggered, stored.Status)
	})
}

func TestPlanEngine_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_FromActive", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		plan, err := h.engine.CreatePlan(ctx, h.ownerID, CreatePlanInput{
			Name: "estate plan", Threshold: 2, TotalShares: 3, WaitingPeriodDays: 7,
		})
		require.NoError(t, err)

		require.NoError(t, h.engine.Cancel(ctx, h.ownerID, plan.ID))

		stored, err := h.planRepo.GetByID(ctx, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PlanStatusCancelled, stored.Status)
	})

	t.Run("Success_FromTriggered", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		plan, _ := h.triggeredPlan(t, 2, 3, 7, []int{1, 2})

		require.NoError(t, h.engine.Cancel(ctx, h.ownerID, plan.ID))
	})

	t.Run("Success_CancelTwiceIsNoOp", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		plan, _ := h.readyPlan(t, 2, 3, 7)

		require.NoError(t, h.engine.Cancel(ctx, h.ownerID, plan.ID))
		require.NoError(t, h.engine.Cancel(ctx, h.ownerID, plan.ID))
	})

	t.Run("Error_CompletedPlan", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		quorum := []int{1, 2}
		plan, keys := h.triggeredPlan(t, 2, 3, 7, quorum)

		h.planRepo.backdateTrigger(plan.ID, 7*24*time.Hour)
		_, err := h.engine.Complete(ctx, plan.ID, submissionsFor(keys, quorum))
		require.NoError(t, err)

		err = h.engine.Cancel(ctx, h.ownerID, plan.ID)
		assert.ErrorIs(t, err, apperrors.ErrPreconditionFailed)
	})

	t.Run("Error_ApprovalAfterCancel", func(t *testing.T) {
		h := newEngineHarness(t, nil)
		plan, keys := h.readyPlan(t, 2, 3, 7)

		require.NoError(t, h.engine.Cancel(ctx, h.ownerID, plan.ID))

		err := h.engine.Approve(ctx, plan.ID, 1, keys[1])
		assert.ErrorIs(t, err, apperrors.ErrPreconditionFailed)
	})
}
