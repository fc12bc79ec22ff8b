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

const userColumns = `id, username, email, password, provider, google_id, github_id, avatar, email_verified, created_at`

// userRepository implements UserRepository interface
type userRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DBTX) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database. Emails are stored as given;
// callers normalize them.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, email, password, provider, google_id, github_id, avatar, email_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.Provider == "" {
		user.Provider = domain.ProviderLocal
	}

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		string(user.Provider),
		user.GoogleID,
		user.GitHubID,
		user.Avatar,
		user.EmailVerified,
		user.CreatedAt,
	)

	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok {
			if sentinel, known := userConstraintErrors[constraint]; known {
				return fmt.Errorf("failed to create user %s: %w", user.Email, sentinel)
			}
			return fmt.Errorf("failed to create user %s: %w", user.Email, ErrDuplicateEmail)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email, ignoring case
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with email %s not found: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetByUsername retrieves a user by username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with username %s not found: %w", username, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return user, nil
}

// GetByProviderID retrieves a user by the external id of an OAuth provider
func (r *userRepository) GetByProviderID(ctx context.Context, provider domain.Provider, providerID string) (*domain.User, error) {
	var column string
	switch provider {
	case domain.ProviderGoogle:
		column = "google_id"
	case domain.ProviderGitHub:
		column = "github_id"
	default:
		return nil, fmt.Errorf("unsupported provider %q: %w", provider, ErrNotFound)
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, providerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with %s %s not found: %w", column, providerID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by provider id: %w", err)
	}

	return user, nil
}

// MarkEmailVerified flips the email_verified flag of a user
func (r *userRepository) MarkEmailVerified(ctx context.Context, userID string) error {
	query := `UPDATE users SET email_verified = TRUE WHERE id = $1`

	return r.execOne(ctx, query, "mark email verified", userID, userID)
}

// UpdatePassword replaces the password hash of a user
func (r *userRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := `UPDATE users SET password = $2 WHERE id = $1`

	return r.execOne(ctx, query, "update password", userID, userID, passwordHash)
}

func (r *userRepository) execOne(ctx context.Context, query, op, userID string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user with id %s not found: %w", userID, ErrNotFound)
	}

	return nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	var (
		username, password, googleID, githubID, avatar sql.NullString
		provider                                       string
	)

	err := row.Scan(
		&user.ID,
		&username,
		&user.Email,
		&password,
		&provider,
		&googleID,
		&githubID,
		&avatar,
		&user.EmailVerified,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Provider = domain.Provider(provider)
	user.Username = nullString(username)
	user.PasswordHash = nullString(password)
	user.GoogleID = nullString(googleID)
	user.GitHubID = nullString(githubID)
	user.Avatar = nullString(avatar)

	return user, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
