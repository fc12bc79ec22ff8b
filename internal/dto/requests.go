package dto

// SignupRequest represents a local signup request
type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// EmailRequest carries a single email address (resend, forgot password)
type EmailRequest struct {
	Email string `json:"email" binding:"required"`
}

// TokenRequest carries a verification token
type TokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// ResetPasswordRequest represents a password reset request
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}
