// Package dto provides data transfer objects for the user HTTP layer.
package dto

import (
	cryptoService "github.com/keepsakevault/keepsake/internal/crypto/service"
	"github.com/keepsakevault/keepsake/internal/user/domain"
	"github.com/keepsakevault/keepsake/internal/user/usecase"
)

// ToRegisterUserInput converts a RegisterUserRequest to a use case input.
func ToRegisterUserInput(req RegisterUserRequest) usecase.RegisterUserInput {
	return usecase.RegisterUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}
}

// ToUserResponse converts a domain User to a UserResponse.
func ToUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// ToSessionResponse converts a domain Session to a SessionResponse.
func ToSessionResponse(session *domain.Session) SessionResponse {
	return SessionResponse{
		UserID:    session.UserID,
		Unlocked:  session.Unlocked(),
		ExpiresAt: session.ExpiresAt,
	}
}

// ToPassphraseStrengthResponse converts a strength score to its response form.
func ToPassphraseStrengthResponse(strength cryptoService.PassphraseStrength) PassphraseStrengthResponse {
	return PassphraseStrengthResponse{
		Score: strength.Score,
		Valid: strength.Valid,
	}
}
