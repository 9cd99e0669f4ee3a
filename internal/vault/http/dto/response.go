package dto

import (
	"time"

	"github.com/google/uuid"
)

// ItemResponse represents the API response for a vault item's metadata.
// Ciphertext and key material never appear here.
type ItemResponse struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	ContentType    string    `json:"content_type"`
	CurrentVersion int       `json:"current_version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ItemContentResponse carries a decrypted document version. Content is
// base64-encoded plaintext.
type ItemContentResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	ContentType string    `json:"content_type"`
	Version     int       `json:"version"`
	Content     string    `json:"content"`
}

// ListItemsResponse represents the API response for listing vault items.
type ListItemsResponse struct {
	Items []ItemResponse `json:"items"`
}
