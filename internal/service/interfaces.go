package service

import (
	"context"
	"time"

	"github.com/prperemyshlev/auth-core/internal/domain"
)

// AuthService defines methods for authentication operations
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*Result, error)
	VerifyEmail(ctx context.Context, token string) (*Result, error)
	ResendVerification(ctx context.Context, email string) (*Result, error)
	ForgotPassword(ctx context.Context, email string) (*Result, error)
	ResetPassword(ctx context.Context, token, password string) (*Result, error)
	Login(ctx context.Context, email, password string) (*domain.Session, error)
	OAuthSignIn(ctx context.Context, identity domain.Identity) (*domain.Session, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	ValidateSession(ctx context.Context, token string) (*domain.SessionClaims, error)
}

// Hasher hashes and verifies passwords
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// TokenIssuer generates single-use tokens expiring after ttl
type TokenIssuer interface {
	Issue(ttl time.Duration) (token string, expiresAt time.Time, err error)
}

// SessionIssuer signs and checks session tokens
type SessionIssuer interface {
	Issue(userID, email string) (*domain.Session, error)
	Validate(token string) (*domain.SessionClaims, error)
}

// SignupInput carries the local signup form
type SignupInput struct {
	Username string `validate:"min=3"`
	Email    string `validate:"required,email"`
	Password string `validate:"min=6"`
}

// Result is the outcome of a flow that only reports a message
type Result struct {
	Message string
}
