package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const tokenBytes = 32

const (
	// EmailVerificationTTL bounds the lifetime of an email verification link
	EmailVerificationTTL = 24 * time.Hour
	// PasswordResetTTL bounds the lifetime of a password reset link
	PasswordResetTTL = time.Hour
)

// RandomTokenIssuer generates opaque single-use tokens
type RandomTokenIssuer struct {
	now func() time.Time
}

// NewRandomTokenIssuer creates an issuer using the wall clock
func NewRandomTokenIssuer() *RandomTokenIssuer {
	return &RandomTokenIssuer{now: time.Now}
}

// WithClock replaces the issuance clock
func (i *RandomTokenIssuer) WithClock(now func() time.Time) *RandomTokenIssuer {
	i.now = now
	return i
}

// Issue returns a hex-encoded 256-bit random token that expires after ttl
func (i *RandomTokenIssuer) Issue(ttl time.Duration) (string, time.Time, error) {
	token, err := RandomHex(tokenBytes)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, i.now().UTC().Add(ttl), nil
}

// RandomHex returns n random bytes encoded as hex
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
