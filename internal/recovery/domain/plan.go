// Package domain defines the recovery plan entities and state machine types.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlanStatus represents the lifecycle state of a recovery plan.
type PlanStatus string

// Plan lifecycle: active -> ready -> triggered -> completed, with cancelled
// reachable from any non-terminal state. Completed and cancelled are terminal.
const (
	PlanStatusActive    PlanStatus = "active"
	PlanStatusReady     PlanStatus = "ready"
	PlanStatusTriggered PlanStatus = "triggered"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusCancelled PlanStatus = "cancelled"
)

// Terminal reports whether no further transitions are possible from s.
func (s PlanStatus) Terminal() bool {
	return s == PlanStatusCompleted || s == PlanStatusCancelled
}

// RecoveryPlan pre-authorizes a set of trustees to jointly reconstruct the
// owner's vault master key after a waiting period. Plans are never hard
// deleted; they only move to a terminal status.
type RecoveryPlan struct {
	ID                uuid.UUID
	OwnerID           uuid.UUID
	Name              string
	Threshold         int // k: approvals and shares required for recovery
	TotalShares       int // n: number of trustees
	WaitingPeriodDays int
	Status            PlanStatus
	TriggeredAt       *time.Time
	CompletedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// MaxTotalShares is the upper bound on n. Shamir share indices are single
// bytes, so no plan can hand out more than 255 shares.
const MaxTotalShares = 255

// NewRecoveryPlan creates an active plan after checking the structural
// invariants: 2 <= k <= n <= 255 and a waiting period of at least one day.
func NewRecoveryPlan(ownerID uuid.UUID, name string, threshold, totalShares, waitingPeriodDays int) (*RecoveryPlan, error) {
	if threshold < 2 || threshold > totalShares || totalShares > MaxTotalShares {
		return nil, ErrInvalidPlanParameters
	}
	if waitingPeriodDays < 1 {
		return nil, ErrInvalidPlanParameters
	}

	return &RecoveryPlan{
		ID:                uuid.Must(uuid.NewV7()),
		OwnerID:           ownerID,
		Name:              name,
		Threshold:         threshold,
		TotalShares:       totalShares,
		WaitingPeriodDays: waitingPeriodDays,
		Status:            PlanStatusActive,
	}, nil
}

// WaitingPeriodElapsed reports whether the waiting period that started at
// TriggeredAt has passed. Enforcement is a lazy time comparison re-checked on
// each completion attempt, never a scheduled timer.
func (p *RecoveryPlan) WaitingPeriodElapsed(now time.Time) bool {
	if p.TriggeredAt == nil {
		return false
	}
	deadline := p.TriggeredAt.Add(time.Duration(p.WaitingPeriodDays) * 24 * time.Hour)
	return !now.Before(deadline)
}
