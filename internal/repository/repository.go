package repository

import (
	"context"
	"fmt"

	"github.com/prperemyshlev/auth-core/internal/domain"
	"github.com/prperemyshlev/auth-core/pkg/database"
)

// Repositories holds all repository interfaces bound to one connection or transaction
type Repositories struct {
	User              UserRepository
	EmailVerification TokenRepository
	PasswordReset     TokenRepository

	pg *database.Postgres
}

var _ Store = (*Repositories)(nil)

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	r := newRepositories(db.DB)
	r.pg = db
	return r
}

func newRepositories(db database.DBTX) *Repositories {
	return &Repositories{
		User:              NewUserRepository(db),
		EmailVerification: NewTokenRepository(db, domain.TokenKindEmailVerification),
		PasswordReset:     NewTokenRepository(db, domain.TokenKindPasswordReset),
	}
}

func (r *Repositories) Users() UserRepository {
	return r.User
}

func (r *Repositories) Tokens(kind domain.TokenKind) TokenRepository {
	if kind == domain.TokenKindPasswordReset {
		return r.PasswordReset
	}
	return r.EmailVerification
}

// WithinTx runs fn against repositories bound to a single transaction.
// Repositories already inside a transaction run fn directly.
func (r *Repositories) WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	if r.pg == nil {
		return fn(ctx, r)
	}

	err := database.WithTx(ctx, r.pg.DB, nil, func(ctx context.Context, tx database.DBTX) error {
		return fn(ctx, newRepositories(tx))
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}
