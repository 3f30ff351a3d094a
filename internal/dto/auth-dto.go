package dto

import (
	"time"

	"antares-helpdesk/internal/entities"
)

type SignUpDTO struct {
	Email    string `json:"email" validate:"required,custom_email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	FullName string `json:"full_name" validate:"required,trimmed_min=2,max=120"`
}

type LoginDTO struct {
	Email    string `json:"email" validate:"required,custom_email"`
	Password string `json:"password" validate:"required"`
}

type VerifyEmailDTO struct {
	Token string `json:"token" validate:"required"`
}

type ResendVerificationDTO struct {
	Email string `json:"email" validate:"required,custom_email"`
}

type SignUpResponseDTO struct {
	UserID              string `json:"user_id"`
	Email               string `json:"email"`
	PendingVerification bool   `json:"pending_verification"`
}

type AuthResponseDTO struct {
	AccessToken string            `json:"access_token"`
	ExpiresAt   time.Time         `json:"expires_at"`
	Profile     *entities.Profile `json:"profile"`
	Permissions []string          `json:"permissions"`
}

// SessionDTO - текущая сессия: профиль и срок действия токена.
type SessionDTO struct {
	Profile     *entities.Profile `json:"profile"`
	Permissions []string          `json:"permissions"`
	ExpiresAt   time.Time         `json:"expires_at"`
}

// TokenPair - результат входа или обновления токенов.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
}
