package repository

import (
	"context"
	"time"

	"github.com/prperemyshlev/auth-core/internal/domain"
)

// UserRepository defines methods for user operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByProviderID(ctx context.Context, provider domain.Provider, providerID string) (*domain.User, error)
	MarkEmailVerified(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// TokenRepository defines methods for one verification token relation
type TokenRepository interface {
	Create(ctx context.Context, token *domain.VerificationToken) error
	GetByToken(ctx context.Context, token string) (*domain.VerificationToken, error)
	// Consume marks the token used if it is unused and not expired at now.
	// It returns ErrNotFound when no such token exists.
	Consume(ctx context.Context, token string, now time.Time) (*domain.VerificationToken, error)
	ListByUserID(ctx context.Context, userID string) ([]*domain.VerificationToken, error)
}

// Store gives access to the credential relations and runs grouped
// mutations atomically.
type Store interface {
	Users() UserRepository
	Tokens(kind domain.TokenKind) TokenRepository
	WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}
