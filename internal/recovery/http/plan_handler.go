// Package http provides HTTP handlers for recovery plan operations.
//
// Owner routes resolve the plan through the authenticated session. Trustee
// and beneficiary routes carry no session: approvals and completions are
// authenticated by the trustee key itself, which only someone holding a
// granted share can present.
package http

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	cryptoDomain "github.com/keepsakevault/keepsake/internal/crypto/domain"
	apperrors "github.com/keepsakevault/keepsake/internal/errors"
	"github.com/keepsakevault/keepsake/internal/httputil"
	"github.com/keepsakevault/keepsake/internal/recovery/domain"
	"github.com/keepsakevault/keepsake/internal/recovery/http/dto"
	recoveryUseCase "github.com/keepsakevault/keepsake/internal/recovery/usecase"
	userHTTP "github.com/keepsakevault/keepsake/internal/user/http"
	customValidation "github.com/keepsakevault/keepsake/internal/validation"
)

// PlanHandler handles HTTP requests for recovery plan operations.
type PlanHandler struct {
	planUseCase recoveryUseCase.RecoveryPlanUseCase
	logger      *slog.Logger
}

// NewPlanHandler creates a new plan handler with required dependencies.
func NewPlanHandler(planUseCase recoveryUseCase.RecoveryPlanUseCase, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{
		planUseCase: planUseCase,
		logger:      logger,
	}
}

// CreateHandler creates a new recovery plan.
// POST /v1/plans - Requires a valid session.
// Returns 201 Created with the plan.
func (h *PlanHandler) CreateHandler(c *gin.Context) {
	session, ok := userHTTP.GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.CreatePlanRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	plan, err := h.planUseCase.CreatePlan(c.Request.Context(), session.UserID, recoveryUseCase.CreatePlanInput{
		Name:              req.Name,
		Threshold:         req.Threshold,
		TotalShares:       req.TotalShares,
		WaitingPeriodDays: req.WaitingPeriodDays,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.ToPlanResponse(plan))
}

// ListHandler lists the authenticated user's plans.
// GET /v1/plans?offset=0&limit=50 - Requires a valid session.
func (h *PlanHandler) ListHandler(c *gin.Context) {
	session, ok := userHTTP.GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	plans, err := h.planUseCase.ListPlans(c.Request.Context(), session.UserID, uint(limit), uint(offset))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToListPlansResponse(plans))
}

// GetHandler retrieves a plan with its trustees, beneficiaries and coverage.
// GET /v1/plans/:id - Requires a valid session; only the owner can read.
func (h *PlanHandler) GetHandler(c *gin.Context) {
	session, ok := userHTTP.GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	planID, err := parsePlanID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	details, err := h.planUseCase.GetPlan(c.Request.Context(), session.UserID, planID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToPlanDetailsResponse(details))
}

// RegisterTrusteeHandler adds a trustee to an active plan.
// POST /v1/plans/:id/trustees - Requires a valid session; owner only.
// Returns 201 Created with the trustee. No share material is assigned or
// returned here.
func (h *PlanHandler) RegisterTrusteeHandler(c *gin.Context) {
	session, ok := userHTTP.GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	planID, err := parsePlanID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var req dto.RegisterTrusteeRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	trustee, err := h.planUseCase.RegisterTrustee(c.Request.Context(), session.UserID, planID, recoveryUseCase.RegisterTrusteeInput{
		Name:       req.Name,
		Email:      req.Email,
		ShareIndex: req.ShareIndex,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTrusteeResponse(trustee))
}

// RegisterBeneficiaryHandler adds a beneficiary to a plan.
// POST /v1/plans/:id/beneficiaries - Requires a valid session; owner only.
// Returns 201 Created with the beneficiary.
func (h *PlanHandler) RegisterBeneficiaryHandler(c *gin.Context) {
	session, ok := userHTTP.GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	planID, err := parsePlanID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var req dto.RegisterBeneficiaryRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	beneficiary, err := h.planUseCase.RegisterBeneficiary(c.Request.Context(), session.UserID, planID, recoveryUseCase.RegisterBeneficiaryInput{
		Name:         req.Name,
		Email:        req.Email,
		Relationship: req.Relationship,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.ToBeneficiaryResponse(beneficiary))
}

// CoverItemHandler places a vault item under the plan.
// POST /v1/plans/:id/items - Requires a valid session; owner only.
// Returns 204 No Content. Covering an already covered item is a no-op.
func (h *PlanHandler) CoverItemHandler(c *gin.Context) {
	session, ok := userHTTP.GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	planID, err := parsePlanID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var req dto.CoverItemRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid item ID format: must be a valid UUID"),
			h.logger)
		return
	}

	if err := h.planUseCase.CoverItem(c.Request.Context(), session.UserID, planID, itemID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// ReadyHandler transitions the plan to ready, splitting and sealing shares.
// POST /v1/plans/:id/ready - Requires a valid session with an unlocked vault;
// owner only. Returns 200 OK with the trustee key grants. The grants appear
// in this response only and can never be retrieved again; a repeated call on
// a ready plan returns an empty grant list.
func (h *PlanHandler) ReadyHandler(c *gin.Context) {
	session, ok := userHTTP.GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	planID, err := parsePlanID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	vmk, err := session.Credential.MasterKey()
	if err != nil {
		httputil.HandleErrorGin(c, apperrors.ErrLocked, h.logger)
		return
	}

	grants, err := h.planUseCase.MarkReady(c.Request.Context(), session.UserID, planID, vmk)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer zeroGrants(grants)

	c.JSON(http.StatusOK, dto.ToMarkReadyResponse(domain.PlanStatusReady, grants))
}

// ApproveHandler records a trustee's approval.
// POST /v1/plans/:id/approvals - No session; the trustee key in the body
// proves trusteeship. Returns 204 No Content. Approving twice is a no-op.
func (h *PlanHandler) ApproveHandler(c *gin.Context) {
	var req dto.ApprovalRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	h.handleApproval(c, req.ShareIndex, req.TrusteeKey, h.planUseCase.Approve)
}

// RevokeApprovalHandler withdraws a trustee's approval.
// DELETE /v1/plans/:id/approvals/:index - No session; the trustee key in the
// body proves trusteeship. Returns 204 No Content. Revoking an absent
// approval is a no-op.
func (h *PlanHandler) RevokeApprovalHandler(c *gin.Context) {
	shareIndex, err := strconv.Atoi(c.Param("index"))
	if err != nil || shareIndex < 1 {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid share index: must be a positive integer"),
			h.logger)
		return
	}

	var req dto.RevokeApprovalRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	h.handleApproval(c, shareIndex, req.TrusteeKey, h.planUseCase.RevokeApproval)
}

// TriggerHandler starts the waiting period once the quorum has approved.
// POST /v1/plans/:id/trigger - No session; anyone holding the plan ID may
// request the trigger, the quorum requirement is the safeguard.
func (h *PlanHandler) TriggerHandler(c *gin.Context) {
	planID, err := parsePlanID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	plan, err := h.planUseCase.RequestTrigger(c.Request.Context(), planID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToPlanResponse(plan))
}

// CompleteHandler reconstructs the master key from submitted shares.
// POST /v1/plans/:id/complete - No session; the submitted trustee keys prove
// the quorum. Returns 200 OK with the recovered key, base64-encoded, on the
// completing call; a repeat on a completed plan returns the status alone.
func (h *PlanHandler) CompleteHandler(c *gin.Context) {
	planID, err := parsePlanID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var req dto.CompletePlanRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	submissions := make([]recoveryUseCase.ShareSubmission, 0, len(req.Shares))
	defer func() {
		for i := range submissions {
			cryptoDomain.Zero(submissions[i].TrusteeKey)
		}
	}()
	for _, share := range req.Shares {
		key, err := base64.StdEncoding.DecodeString(share.TrusteeKey)
		if err != nil {
			httputil.HandleValidationErrorGin(c,
				fmt.Errorf("invalid trustee key: must be valid base64"),
				h.logger)
			return
		}
		submissions = append(submissions, recoveryUseCase.ShareSubmission{
			ShareIndex: share.ShareIndex,
			TrusteeKey: key,
		})
	}

	vmk, err := h.planUseCase.Complete(c.Request.Context(), planID, submissions)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	resp := dto.CompletePlanResponse{Status: string(domain.PlanStatusCompleted)}
	if vmk != nil {
		resp.MasterKey = base64.StdEncoding.EncodeToString(vmk.Key)
		defer cryptoDomain.Zero(vmk.Key)
	}

	c.JSON(http.StatusOK, resp)
}

// CancelHandler aborts the plan.
// POST /v1/plans/:id/cancel - Requires a valid session; owner only.
// Returns 204 No Content. Cancelling a cancelled plan is a no-op.
func (h *PlanHandler) CancelHandler(c *gin.Context) {
	session, ok := userHTTP.GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	planID, err := parsePlanID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := h.planUseCase.Cancel(c.Request.Context(), session.UserID, planID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// handleApproval decodes the trustee key and applies op. Approve and revoke
// share the exact same shape.
func (h *PlanHandler) handleApproval(c *gin.Context, shareIndex int, encodedKey string, op func(ctx context.Context, planID uuid.UUID, shareIndex int, trusteeKey []byte) error) {
	planID, err := parsePlanID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	trusteeKey, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid trustee key: must be valid base64"),
			h.logger)
		return
	}
	defer cryptoDomain.Zero(trusteeKey)

	if err := op(c.Request.Context(), planID, shareIndex, trusteeKey); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

func parsePlanID(c *gin.Context) (uuid.UUID, error) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid plan ID format: must be a valid UUID")
	}
	return planID, nil
}

func zeroGrants(grants []recoveryUseCase.TrusteeKeyGrant) {
	for i := range grants {
		cryptoDomain.Zero(grants[i].Key)
	}
}
