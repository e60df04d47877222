package dto

import (
	"imagetales/internal/domain/models"

	"github.com/google/uuid"
)

// ProfileResponse публичные данные пользователя
type ProfileResponse struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	Credits  int       `json:"credits"`
	Plan     string    `json:"plan"`
}

func NewProfileResponse(user models.User) ProfileResponse {
	return ProfileResponse{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Credits:  user.Credits,
		Plan:     user.Plan,
	}
}
