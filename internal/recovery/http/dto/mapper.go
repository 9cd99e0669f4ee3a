package dto

import (
	"encoding/base64"

	"github.com/keepsakevault/keepsake/internal/recovery/domain"
	"github.com/keepsakevault/keepsake/internal/recovery/usecase"
)

// ToPlanResponse converts a domain plan to its API representation.
func ToPlanResponse(plan *domain.RecoveryPlan) PlanResponse {
	return PlanResponse{
		ID:                plan.ID,
		Name:              plan.Name,
		Threshold:         plan.Threshold,
		TotalShares:       plan.TotalShares,
		WaitingPeriodDays: plan.WaitingPeriodDays,
		Status:            string(plan.Status),
		TriggeredAt:       plan.TriggeredAt,
		CompletedAt:       plan.CompletedAt,
		CreatedAt:         plan.CreatedAt,
		UpdatedAt:         plan.UpdatedAt,
	}
}

// ToTrusteeResponse converts a domain trustee to its API representation.
func ToTrusteeResponse(trustee *domain.Trustee) TrusteeResponse {
	return TrusteeResponse{
		ID:          trustee.ID,
		Name:        trustee.Name,
		Email:       trustee.Email,
		ShareIndex:  trustee.ShareIndex,
		HasShare:    trustee.HasShare(),
		HasApproved: trustee.HasApproved,
		ApprovedAt:  trustee.ApprovedAt,
	}
}

// ToBeneficiaryResponse converts a domain beneficiary to its API representation.
func ToBeneficiaryResponse(beneficiary *domain.Beneficiary) BeneficiaryResponse {
	return BeneficiaryResponse{
		ID:           beneficiary.ID,
		Name:         beneficiary.Name,
		Email:        beneficiary.Email,
		Relationship: beneficiary.Relationship,
	}
}

// ToPlanDetailsResponse converts aggregated plan details to the API representation.
func ToPlanDetailsResponse(details *usecase.PlanDetails) PlanDetailsResponse {
	resp := PlanDetailsResponse{
		Plan:          ToPlanResponse(details.Plan),
		Trustees:      make([]TrusteeResponse, 0, len(details.Trustees)),
		Beneficiaries: make([]BeneficiaryResponse, 0, len(details.Beneficiaries)),
		CoveredItems:  make([]CoveredItemResponse, 0, len(details.CoveredItems)),
	}
	for _, trustee := range details.Trustees {
		resp.Trustees = append(resp.Trustees, ToTrusteeResponse(trustee))
	}
	for _, beneficiary := range details.Beneficiaries {
		resp.Beneficiaries = append(resp.Beneficiaries, ToBeneficiaryResponse(beneficiary))
	}
	for _, item := range details.CoveredItems {
		resp.CoveredItems = append(resp.CoveredItems, CoveredItemResponse{
			ItemID:    item.ItemID,
			CoveredAt: item.CreatedAt,
		})
	}
	return resp
}

// ToListPlansResponse converts domain plans to the list API representation.
func ToListPlansResponse(plans []*domain.RecoveryPlan) ListPlansResponse {
	resp := ListPlansResponse{Plans: make([]PlanResponse, 0, len(plans))}
	for _, plan := range plans {
		resp.Plans = append(resp.Plans, ToPlanResponse(plan))
	}
	return resp
}

// ToMarkReadyResponse converts readiness grants to the API representation.
func ToMarkReadyResponse(status domain.PlanStatus, grants []usecase.TrusteeKeyGrant) MarkReadyResponse {
	resp := MarkReadyResponse{
		Status: string(status),
		Grants: make([]TrusteeKeyGrantResponse, 0, len(grants)),
	}
	for _, grant := range grants {
		resp.Grants = append(resp.Grants, TrusteeKeyGrantResponse{
			TrusteeID:  grant.TrusteeID,
			ShareIndex: grant.ShareIndex,
			Email:      grant.Email,
			Key:        base64.StdEncoding.EncodeToString(grant.Key),
		})
	}
	return resp
}
