package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when trying to create a user with an existing email
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrDuplicateUsername is returned when trying to create a user with a taken username
	ErrDuplicateUsername = errors.New("user with this username already exists")

	// ErrDuplicateProviderID is returned when an external identity is already bound to a user
	ErrDuplicateProviderID = errors.New("provider identity already bound to a user")

	// ErrDuplicateToken is returned when trying to create a token that already exists
	ErrDuplicateToken = errors.New("token already exists")
)

const uniqueViolation = "23505"

var userConstraintErrors = map[string]error{
	"users_email_key":     ErrDuplicateEmail,
	"users_username_key":  ErrDuplicateUsername,
	"users_google_id_key": ErrDuplicateProviderID,
	"users_github_id_key": ErrDuplicateProviderID,
}

// uniqueConstraint returns the violated constraint name when err is a
// Postgres unique violation.
func uniqueConstraint(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}
