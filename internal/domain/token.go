package domain

import "time"

// TokenKind selects which token relation a token belongs to.
type TokenKind string

const (
	TokenKindEmailVerification TokenKind = "email_verification"
	TokenKindPasswordReset     TokenKind = "password_reset"
)

// VerificationToken is a single-use, time-bounded token delivered by email.
type VerificationToken struct {
	ID        string    `json:"id" db:"id"`
	Token     string    `json:"-" db:"token"`
	UserID    string    `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	Used      bool      `json:"used" db:"used"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsValid reports whether the token may still be consumed at now.
func (t VerificationToken) IsValid(now time.Time) bool {
	return !t.Used && !t.ExpiresAt.Before(now)
}

// SessionClaims represents the identity carried by a session token
type SessionClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Exp    int64  `json:"exp"`
	Iat    int64  `json:"iat"`
}

// IsExpired checks if the session is expired
func (sc SessionClaims) IsExpired(now time.Time) bool {
	return now.Unix() > sc.Exp
}

// Session is an authenticated principal issued after a successful login.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}
