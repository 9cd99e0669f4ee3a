package dto

import (
	"time"

	"github.com/google/uuid"
)

// PlanResponse represents a recovery plan in API responses.
type PlanResponse struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	Threshold         int        `json:"threshold"`
	TotalShares       int        `json:"total_shares"`
	WaitingPeriodDays int        `json:"waiting_period_days"`
	Status            string     `json:"status"`
	TriggeredAt       *time.Time `json:"triggered_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TrusteeResponse represents a trustee in API responses. Share material is
// never exposed here; only whether a sealed share has been assigned.
type TrusteeResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	ShareIndex  int        `json:"share_index"`
	HasShare    bool       `json:"has_share"`
	HasApproved bool       `json:"has_approved"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
}

// BeneficiaryResponse represents a beneficiary in API responses.
type BeneficiaryResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Relationship string    `json:"relationship,omitempty"`
}

// CoveredItemResponse represents a covered vault item in API responses.
type CoveredItemResponse struct {
	ItemID    uuid.UUID `json:"item_id"`
	CoveredAt time.Time `json:"covered_at"`
}

// PlanDetailsResponse aggregates a plan with its parties and coverage.
type PlanDetailsResponse struct {
	Plan          PlanResponse          `json:"plan"`
	Trustees      []TrusteeResponse     `json:"trustees"`
	Beneficiaries []BeneficiaryResponse `json:"beneficiaries"`
	CoveredItems  []CoveredItemResponse `json:"covered_items"`
}

// ListPlansResponse represents the API response for listing plans.
type ListPlansResponse struct {
	Plans []PlanResponse `json:"plans"`
}

// TrusteeKeyGrantResponse carries one trustee's key, base64-encoded. Grants
// appear in exactly one response and cannot be retrieved again.
type TrusteeKeyGrantResponse struct {
	TrusteeID  uuid.UUID `json:"trustee_id"`
	ShareIndex int       `json:"share_index"`
	Email      string    `json:"email"`
	Key        string    `json:"key"`
}

// MarkReadyResponse represents the API response for the readiness transition.
// Grants is empty when the plan was already ready.
type MarkReadyResponse struct {
	Status string                    `json:"status"`
	Grants []TrusteeKeyGrantResponse `json:"grants"`
}

// CompletePlanResponse represents the API response for plan completion.
// MasterKey is present, base64-encoded, only on the completing call itself;
// repeating a completed plan's completion returns the status alone.
type CompletePlanResponse struct {
	Status    string `json:"status"`
	MasterKey string `json:"master_key,omitempty"`
}
