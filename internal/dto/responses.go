package dto

import (
	"time"

	"github.com/prperemyshlev/auth-core/internal/domain"
)

// SessionResponse represents an established session
type SessionResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	User        UserInfo `json:"user"`
}

// UserInfo represents user information in response
type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// NewSessionResponse builds the login response for session
func NewSessionResponse(session *domain.Session, now time.Time) SessionResponse {
	return SessionResponse{
		AccessToken: session.Token,
		TokenType:   "Bearer",
		ExpiresIn:   int(session.ExpiresAt.Sub(now).Seconds()),
		User: UserInfo{
			ID:    session.UserID,
			Email: session.Email,
		},
	}
}

// UserResponse represents a user response
type UserResponse struct {
	ID            string  `json:"id"`
	Username      *string `json:"username"`
	Email         string  `json:"email"`
	Provider      string  `json:"provider"`
	Avatar        *string `json:"avatar"`
	EmailVerified bool    `json:"email_verified"`
	CreatedAt     string  `json:"created_at"`
}

// NewUserResponse maps a user to its public profile
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		Provider:      string(user.Provider),
		Avatar:        user.Avatar,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt.Format(time.RFC3339),
	}
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
