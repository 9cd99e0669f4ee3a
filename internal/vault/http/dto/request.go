// Package dto provides data transfer objects for the vault item HTTP layer.
package dto

import (
	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/keepsakevault/keepsake/internal/crypto/domain"
	appValidation "github.com/keepsakevault/keepsake/internal/validation"
)

// CreateItemRequest represents the API request for storing a new document.
// Content is base64-encoded plaintext; it is encrypted before it touches
// storage and the decoded bytes are zeroed by the handler.
type CreateItemRequest struct {
	Title       string `json:"title"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
	Algorithm   string `json:"algorithm"`
}

// Validate validates the CreateItemRequest.
func (r *CreateItemRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Title,
			validation.Required.Error("title is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("title must be between 1 and 255 characters"),
		),
		validation.Field(&r.ContentType,
			validation.Required.Error("content_type is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("content_type must be between 1 and 255 characters"),
		),
		validation.Field(&r.Content,
			validation.Required.Error("content is required"),
			appValidation.Base64,
		),
		validation.Field(&r.Algorithm,
			validation.In(string(cryptoDomain.AESGCM), string(cryptoDomain.ChaCha20)).
				Error("algorithm must be aes-gcm or chacha20-poly1305"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// UpdateItemRequest represents the API request for storing a new version of an
// existing document.
type UpdateItemRequest struct {
	Content   string `json:"content"`
	Algorithm string `json:"algorithm"`
}

// Validate validates the UpdateItemRequest.
func (r *UpdateItemRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Content,
			validation.Required.Error("content is required"),
			appValidation.Base64,
		),
		validation.Field(&r.Algorithm,
			validation.In(string(cryptoDomain.AESGCM), string(cryptoDomain.ChaCha20)).
				Error("algorithm must be aes-gcm or chacha20-poly1305"),
		),
	)
	return appValidation.WrapValidationError(err)
}
