package utils

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomTokenIssuer_Issue(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewRandomTokenIssuer().WithClock(func() time.Time { return now })

	token, expiresAt, err := issuer.Issue(EmailVerificationTTL)
	require.NoError(t, err)

	assert.Len(t, token, 64)
	raw, err := hex.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
	assert.Equal(t, now.Add(24*time.Hour), expiresAt)

	_, resetExpiry, err := issuer.Issue(PasswordResetTTL)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), resetExpiry)
}

func TestRandomTokenIssuer_Unique(t *testing.T) {
	issuer := NewRandomTokenIssuer()
	seen := make(map[string]struct{})

	for i := 0; i < 100; i++ {
		token, _, err := issuer.Issue(time.Hour)
		require.NoError(t, err)
		_, dup := seen[token]
		require.False(t, dup, "duplicate token issued")
		seen[token] = struct{}{}
	}
}
