// Package dto provides data transfer objects for the audit HTTP layer.
package dto

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/keepsakevault/keepsake/internal/audit/domain"
	auditUseCase "github.com/keepsakevault/keepsake/internal/audit/usecase"
)

// AuditRecordResponse represents one audit record in API responses. Hashes and
// signatures are hex-encoded.
type AuditRecordResponse struct {
	ID           uuid.UUID      `json:"id"`
	UserID       uuid.UUID      `json:"user_id"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	PreviousHash string         `json:"previous_hash"`
	CurrentHash  string         `json:"current_hash"`
	Signature    string         `json:"signature,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ListAuditRecordsResponse represents a paginated list of audit records.
type ListAuditRecordsResponse struct {
	Data []AuditRecordResponse `json:"data"`
}

// VerifyChainResponse reports the outcome of a chain verification.
type VerifyChainResponse struct {
	Valid           bool `json:"valid"`
	FirstBreakIndex int  `json:"first_break_index"`
	Records         int  `json:"records"`
}

// MapAuditRecordToResponse converts a domain audit record to its response form.
func MapAuditRecordToResponse(record *auditDomain.AuditRecord) AuditRecordResponse {
	response := AuditRecordResponse{
		ID:           record.ID,
		UserID:       record.UserID,
		Action:       string(record.Action),
		ResourceType: record.ResourceType,
		ResourceID:   record.ResourceID,
		Details:      record.Details,
		PreviousHash: hex.EncodeToString(record.PreviousHash),
		CurrentHash:  hex.EncodeToString(record.CurrentHash),
		CreatedAt:    record.CreatedAt,
	}
	if len(record.Signature) > 0 {
		response.Signature = hex.EncodeToString(record.Signature)
	}
	return response
}

// MapAuditRecordsToListResponse converts a slice of domain audit records to a list response.
func MapAuditRecordsToListResponse(records []*auditDomain.AuditRecord) ListAuditRecordsResponse {
	data := make([]AuditRecordResponse, 0, len(records))
	for _, record := range records {
		data = append(data, MapAuditRecordToResponse(record))
	}
	return ListAuditRecordsResponse{Data: data}
}

// MapVerifyResultToResponse converts a verification result to its response form.
func MapVerifyResultToResponse(result auditUseCase.VerifyResult) VerifyChainResponse {
	return VerifyChainResponse{
		Valid:           result.Valid,
		FirstBreakIndex: result.FirstBreakIndex,
		Records:         result.Records,
	}
}
