// Package dto provides data transfer objects for the recovery plan HTTP layer.
package dto

import (
	validation "github.com/jellydator/validation"

	appValidation "github.com/keepsakevault/keepsake/internal/validation"
)

// CreatePlanRequest represents the API request for creating a recovery plan.
type CreatePlanRequest struct {
	Name              string `json:"name"`
	Threshold         int    `json:"threshold"`
	TotalShares       int    `json:"total_shares"`
	WaitingPeriodDays int    `json:"waiting_period_days"`
}

// Validate validates the CreatePlanRequest. The threshold/share relationship
// (2 <= threshold <= total_shares) is enforced by the use case; this layer
// only checks field shape.
func (r *CreatePlanRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
		validation.Field(&r.Threshold,
			validation.Required.Error("threshold is required"),
			validation.Min(2).Error("threshold must be at least 2"),
		),
		validation.Field(&r.TotalShares,
			validation.Required.Error("total_shares is required"),
			validation.Min(2).Error("total_shares must be at least 2"),
			validation.Max(255).Error("total_shares must be at most 255"),
		),
		validation.Field(&r.WaitingPeriodDays,
			validation.Required.Error("waiting_period_days is required"),
			validation.Min(1).Error("waiting_period_days must be at least 1"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// RegisterTrusteeRequest represents the API request for registering a trustee.
type RegisterTrusteeRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	ShareIndex int    `json:"share_index"`
}

// Validate validates the RegisterTrusteeRequest.
func (r *RegisterTrusteeRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
		),
		validation.Field(&r.ShareIndex,
			validation.Required.Error("share_index is required"),
			validation.Min(1).Error("share_index must be at least 1"),
			validation.Max(255).Error("share_index must be at most 255"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// RegisterBeneficiaryRequest represents the API request for registering a beneficiary.
type RegisterBeneficiaryRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Relationship string `json:"relationship"`
}

// Validate validates the RegisterBeneficiaryRequest.
func (r *RegisterBeneficiaryRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
		),
		validation.Field(&r.Relationship,
			validation.Length(0, 255).Error("relationship must be at most 255 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// CoverItemRequest represents the API request for covering a vault item.
type CoverItemRequest struct {
	ItemID string `json:"item_id"`
}

// Validate validates the CoverItemRequest.
func (r *CoverItemRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.ItemID,
			validation.Required.Error("item_id is required"),
			appValidation.UUID,
		),
	)
	return appValidation.WrapValidationError(err)
}

// ApprovalRequest carries a trustee's proof of trusteeship: the share index
// and the base64-encoded key handed out at the readiness transition.
type ApprovalRequest struct {
	ShareIndex int    `json:"share_index"`
	TrusteeKey string `json:"trustee_key"`
}

// Validate validates the ApprovalRequest.
func (r *ApprovalRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.ShareIndex,
			validation.Required.Error("share_index is required"),
			validation.Min(1).Error("share_index must be at least 1"),
		),
		validation.Field(&r.TrusteeKey,
			validation.Required.Error("trustee_key is required"),
			appValidation.Base64,
		),
	)
	return appValidation.WrapValidationError(err)
}

// RevokeApprovalRequest carries the trustee key proving the revocation
// request comes from the share holder; the index lives in the path.
type RevokeApprovalRequest struct {
	TrusteeKey string `json:"trustee_key"`
}

// Validate validates the RevokeApprovalRequest.
func (r *RevokeApprovalRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.TrusteeKey,
			validation.Required.Error("trustee_key is required"),
			appValidation.Base64,
		),
	)
	return appValidation.WrapValidationError(err)
}

// ShareSubmissionRequest is one trustee's contribution to plan completion.
type ShareSubmissionRequest struct {
	ShareIndex int    `json:"share_index"`
	TrusteeKey string `json:"trustee_key"`
}

// CompletePlanRequest represents the API request for completing a plan.
type CompletePlanRequest struct {
	Shares []ShareSubmissionRequest `json:"shares"`
}

// Validate validates the CompletePlanRequest. Quorum size is a use case
// concern; this layer only rejects an empty or malformed submission list.
func (r *CompletePlanRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Shares,
			validation.Required.Error("shares are required"),
			validation.Each(validation.By(func(value interface{}) error {
				submission, _ := value.(ShareSubmissionRequest)
				return validation.ValidateStruct(&submission,
					validation.Field(&submission.ShareIndex,
						validation.Required.Error("share_index is required"),
						validation.Min(1).Error("share_index must be at least 1"),
					),
					validation.Field(&submission.TrusteeKey,
						validation.Required.Error("trustee_key is required"),
						appValidation.Base64,
					),
				)
			})),
		),
	)
	return appValidation.WrapValidationError(err)
}
