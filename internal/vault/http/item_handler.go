// Package http provides HTTP handlers for encrypted vault items. Every route
// requires a valid session, and content operations additionally require the
// vault to be unlocked so the master key is available for envelope
// encryption.
package http

import (
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
	userHTTP "github.com/keepsakevault/keepsake/internal/user/http"
	customValidation "github.com/keepsakevault/keepsake/internal/validation"
	"github.com/keepsakevault/keepsake/internal/vault/http/dto"
	vaultUseCase "github.com/keepsakevault/keepsake/internal/vault/usecase"
)

// ItemHandler handles HTTP requests for vault item operations.
type ItemHandler struct {
	itemUseCase vaultUseCase.VaultItemUseCase
	logger      *slog.Logger
}

// NewItemHandler creates a new item handler with required dependencies.
func NewItemHandler(itemUseCase vaultUseCase.VaultItemUseCase, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{
		itemUseCase: itemUseCase,
		logger:      logger,
	}
}

// CreateHandler encrypts and stores a new document.
// POST /v1/items - Requires an unlocked vault.
// Returns 201 Created with the item metadata. The plaintext is zeroed before
// the handler returns.
func (h *ItemHandler) CreateHandler(c *gin.Context) {
	session, ok := userHTTP.GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.CreateItemRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("content must be valid base64"), h.logger)
		return
	}
	defer cryptoDomain.Zero(content)

	vmk, err := session.Credential.MasterKey()
	if err != nil {
		httputil.HandleErrorGin(c, apperrors.ErrLocked, h.logger)
		return
	}

	item, err := h.itemUseCase.CreateItem(c.Request.Context(), session.UserID, vmk, vaultUseCase.CreateItemInput{
		Title:       req.Title,
		ContentType: req.ContentType,
		Content:     content,
		Algorithm:   cryptoDomain.Algorithm(req.Algorithm),
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.ToItemResponse(item))
}

// ListHandler lists the authenticated user's item metadata.
// GET /v1/items?offset=0&limit=50 - Requires a valid session. Listing does
// not decrypt anything, so a locked vault can still browse titles.
func (h *ItemHandler) ListHandler(c *gin.Context) {
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

	items, err := h.itemUseCase.ListItems(c.Request.Context(), session.UserID, uint(limit), uint(offset))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToListItemsResponse(items))
}

// GetHandler decrypts and returns the item's current version.
// GET /v1/items/:id - Requires an unlocked vault.
func (h *ItemHandler) GetHandler(c *gin.Context) {
	h.serveContent(c, 0)
}

// GetVersionHandler decrypts and returns a specific version of the item.
// GET /v1/items/:id/versions/:version - Requires an unlocked vault. Old
// versions stay readable after updates.
func (h *ItemHandler) GetVersionHandler(c *gin.Context) {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid version: must be a positive integer"), h.logger)
		return
	}

	h.serveContent(c, version)
}

// UpdateHandler stores new content as the item's next version.
// PUT /v1/items/:id - Requires an unlocked vault.
// Returns 200 OK with the updated item metadata.
func (h *ItemHandler) UpdateHandler(c *gin.Context) {
	session, ok := userHTTP.GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	itemID, err := parseItemID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var req dto.UpdateItemRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("content must be valid base64"), h.logger)
		return
	}
	defer cryptoDomain.Zero(content)

	vmk, err := session.Credential.MasterKey()
	if err != nil {
		httputil.HandleErrorGin(c, apperrors.ErrLocked, h.logger)
		return
	}

	item, err := h.itemUseCase.UpdateItem(c.Request.Context(), session.UserID, itemID, vmk, vaultUseCase.UpdateItemInput{
		Content:   content,
		Algorithm: cryptoDomain.Algorithm(req.Algorithm),
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToItemResponse(item))
}

// serveContent decrypts one version (0 means current) and writes it out. The
// plaintext is zeroed after serialization.
func (h *ItemHandler) serveContent(c *gin.Context, version int) {
	session, ok := userHTTP.GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	itemID, err := parseItemID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	vmk, err := session.Credential.MasterKey()
	if err != nil {
		httputil.HandleErrorGin(c, apperrors.ErrLocked, h.logger)
		return
	}

	var content *vaultUseCase.ItemContent
	if version == 0 {
		content, err = h.itemUseCase.GetItem(c.Request.Context(), session.UserID, itemID, vmk)
	} else {
		content, err = h.itemUseCase.GetItemVersion(c.Request.Context(), session.UserID, itemID, version, vmk)
	}
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer cryptoDomain.Zero(content.Content)

	c.JSON(http.StatusOK, dto.ToItemContentResponse(content))
}

func parseItemID(c *gin.Context) (uuid.UUID, error) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid item ID format: must be a valid UUID")
	}
	return itemID, nil
}
