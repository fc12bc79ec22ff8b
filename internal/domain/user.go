package domain

import "time"

// Provider records how an account was created.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
)

// IsOAuth reports whether p is an external identity provider.
func (p Provider) IsOAuth() bool {
	return p == ProviderGoogle || p == ProviderGitHub
}

// User represents a user in the system
type User struct {
	ID            string    `json:"id" db:"id"`
	Username      *string   `json:"username" db:"username"`
	Email         string    `json:"email" db:"email"`
	PasswordHash  *string   `json:"-" db:"password"`
	Provider      Provider  `json:"provider" db:"provider"`
	GoogleID      *string   `json:"-" db:"google_id"`
	GitHubID      *string   `json:"-" db:"github_id"`
	Avatar        *string   `json:"avatar" db:"avatar"`
	EmailVerified bool      `json:"email_verified" db:"email_verified"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// HasPassword reports whether the account can log in with a local password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// SetProviderID stores the external id in the column owned by p.
func (u *User) SetProviderID(p Provider, id string) {
	switch p {
	case ProviderGoogle:
		u.GoogleID = &id
	case ProviderGitHub:
		u.GitHubID = &id
	}
}

// Identity is an external provider's assertion about a signed-in user.
type Identity struct {
	Provider   Provider
	ProviderID string
	Email      string
	Name       string
	Avatar     string
}
