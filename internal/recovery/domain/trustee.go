package domain

import (
	"time"

	"github.com/google/uuid"
)

// Trustee holds one encrypted threshold share of a plan's secret. ShareIndex
// is unique per plan and lives in [1, TotalShares]. EncryptedShare is sealed
// under a key only the trustee receives, so plan storage alone can never use
// the share.
type Trustee struct {
	ID             uuid.UUID
	PlanID         uuid.UUID
	Name           string
	Email          string
	ShareIndex     int
	EncryptedShare []byte
	ShareNonce     []byte
	HasApproved    bool
	ApprovedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasShare reports whether a sealed share has been assigned to this trustee.
// Shares are assigned at the readiness transition, not at registration.
func (t *Trustee) HasShare() bool {
	return len(t.EncryptedShare) > 0
}

// Beneficiary identifies who gains access on successful recovery. Not a
// secret holder.
type Beneficiary struct {
	ID           uuid.UUID
	PlanID       uuid.UUID
	Name         string
	Email        string
	Relationship string
	CreatedAt    time.Time
}

// CoveredItem links a vault item to the plan that can recover it.
type CoveredItem struct {
	PlanID    uuid.UUID
	ItemID    uuid.UUID
	CreatedAt time.Time
}
