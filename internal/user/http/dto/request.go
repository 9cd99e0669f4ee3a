// Package dto provides data transfer objects for the user HTTP layer.
package dto

import (
	validation "github.com/jellydator/validation"

	appValidation "github.com/keepsakevault/keepsake/internal/validation"
)

// RegisterUserRequest represents the API request for account registration.
type RegisterUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate validates the RegisterUserRequest.
func (r *RegisterUserRequest) Validate() error {
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
			validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
			validation.Length(8, 128).Error("password must be between 8 and 128 characters"),
			appValidation.PasswordStrength{
				MinLength:      8,
				RequireUpper:   true,
				RequireLower:   true,
				RequireNumber:  true,
				RequireSpecial: true,
			},
		),
	)
	return appValidation.WrapValidationError(err)
}

// LoginRequest represents the API request for logging in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate validates the LoginRequest.
func (r *LoginRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
			appValidation.NotBlank,
		),
	)
	return appValidation.WrapValidationError(err)
}

// UnlockVaultRequest represents the API request for unlocking the vault.
type UnlockVaultRequest struct {
	Passphrase string `json:"passphrase"`
}

// Validate validates the UnlockVaultRequest. Passphrase strength is not
// enforced here; the unlock must work with whatever passphrase the vault was
// created with.
func (r *UnlockVaultRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Passphrase,
			validation.Required.Error("passphrase is required"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// CheckPassphraseRequest represents the API request for scoring a passphrase.
type CheckPassphraseRequest struct {
	Passphrase string `json:"passphrase"`
}

// Validate validates the CheckPassphraseRequest.
func (r *CheckPassphraseRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Passphrase,
			validation.Required.Error("passphrase is required"),
		),
	)
	return appValidation.WrapValidationError(err)
}
