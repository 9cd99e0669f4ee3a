// Package http provides HTTP handlers for the tamper-evident audit log.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/keepsakevault/keepsake/internal/audit/http/dto"
	auditUseCase "github.com/keepsakevault/keepsake/internal/audit/usecase"
	apperrors "github.com/keepsakevault/keepsake/internal/errors"
	"github.com/keepsakevault/keepsake/internal/httputil"
	userHTTP "github.com/keepsakevault/keepsake/internal/user/http"
)

// AuditRecordHandler handles HTTP requests for audit record operations. The
// chain scope is always the authenticated user's own vault; records are
// readable and verifiable but never writable through this API.
type AuditRecordHandler struct {
	auditUseCase auditUseCase.AuditUseCase
	logger       *slog.Logger
}

// NewAuditRecordHandler creates a new audit record handler with required dependencies.
func NewAuditRecordHandler(auditUseCase auditUseCase.AuditUseCase, logger *slog.Logger) *AuditRecordHandler {
	return &AuditRecordHandler{
		auditUseCase: auditUseCase,
		logger:       logger,
	}
}

// ListHandler retrieves audit records in insertion order with pagination.
// GET /v1/audit-records?offset=0&limit=50 - Requires a valid session.
// Returns 200 OK with the record list.
func (h *AuditRecordHandler) ListHandler(c *gin.Context) {
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

	records, err := h.auditUseCase.List(c.Request.Context(), session.UserID, uint(limit), uint(offset))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAuditRecordsToListResponse(records))
}

// VerifyHandler recomputes the full chain for the authenticated user's vault.
// POST /v1/audit-records/verify - Requires a valid session.
// Returns 200 OK with the verification outcome; a broken chain is reported in
// the body, not as an HTTP error.
func (h *AuditRecordHandler) VerifyHandler(c *gin.Context) {
	session, ok := userHTTP.GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	result, err := h.auditUseCase.Verify(c.Request.Context(), session.UserID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapVerifyResultToResponse(result))
}
