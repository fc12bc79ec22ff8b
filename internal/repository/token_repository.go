package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/auth-core/internal/domain"
	"github.com/prperemyshlev/auth-core/pkg/database"
)

var tokenTables = map[domain.TokenKind]string{
	domain.TokenKindEmailVerification: "email_verification_tokens",
	domain.TokenKindPasswordReset:     "password_reset_tokens",
}

// tokenRepository implements TokenRepository for one token relation
type tokenRepository struct {
	db    database.DBTX
	table string
}

// NewTokenRepository creates a token repository for the relation of kind
func NewTokenRepository(db database.DBTX, kind domain.TokenKind) TokenRepository {
	table, ok := tokenTables[kind]
	if !ok {
		panic(fmt.Sprintf("repository: unknown token kind %q", kind))
	}
	return &tokenRepository{db: db, table: table}
}

// Create stores a freshly issued token
func (r *tokenRepository) Create(ctx context.Context, token *domain.VerificationToken) error {
	query := `
		INSERT INTO ` + r.table + ` (id, user_id, token, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.Token,
		token.ExpiresAt,
		token.Used,
		token.CreatedAt,
	)

	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return fmt.Errorf("failed to create %s row: %w", r.table, ErrDuplicateToken)
		}
		return fmt.Errorf("failed to create token: %w", err)
	}

	return nil
}

// GetByToken retrieves a token row regardless of its state
func (r *tokenRepository) GetByToken(ctx context.Context, token string) (*domain.VerificationToken, error) {
	query := `
		SELECT id, user_id, token, expires_at, used, created_at
		FROM ` + r.table + `
		WHERE token = $1
	`

	t, err := scanToken(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s row not found: %w", r.table, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	return t, nil
}

// Consume flips used in a single conditional update, so only one of several
// concurrent callers gets the row back.
func (r *tokenRepository) Consume(ctx context.Context, token string, now time.Time) (*domain.VerificationToken, error) {
	query := `
		UPDATE ` + r.table + `
		SET used = TRUE
		WHERE token = $1 AND used = FALSE AND expires_at >= $2
		RETURNING id, user_id, token, expires_at, used, created_at
	`

	t, err := scanToken(r.db.QueryRowContext(ctx, query, token, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no consumable %s row: %w", r.table, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to consume token: %w", err)
	}

	return t, nil
}

// ListByUserID retrieves all tokens ever issued to a user, newest first
func (r *tokenRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.VerificationToken, error) {
	query := `
		SELECT id, user_id, token, expires_at, used, created_at
		FROM ` + r.table + `
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokens by user id: %w", err)
	}
	defer rows.Close()

	var tokens []*domain.VerificationToken
	for rows.Next() {
		t := &domain.VerificationToken{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.Used, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tokens: %w", err)
	}

	return tokens, nil
}

func scanToken(row *sql.Row) (*domain.VerificationToken, error) {
	t := &domain.VerificationToken{}
	if err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.Used, &t.CreatedAt); err != nil {
		return nil, err
	}
	return t, nil
}
