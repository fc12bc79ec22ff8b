package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prperemyshlev/auth-core/internal/domain"
)

// ErrInvalidSession is returned for any session token that fails validation
var ErrInvalidSession = errors.New("invalid session token")

// SessionManager issues and validates signed session tokens
type SessionManager struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewSessionManager creates a new session manager
func NewSessionManager(secret string, expiry time.Duration) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

// WithClock replaces the clock used for issuing and validating tokens
func (m *SessionManager) WithClock(now func() time.Time) *SessionManager {
	m.now = now
	return m
}

// Issue signs a session for the given user
func (m *SessionManager) Issue(userID, email string) (*domain.Session, error) {
	now := m.now()
	expiresAt := now.Add(m.expiry)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"exp":     expiresAt.Unix(),
		"iat":     now.Unix(),
	})

	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &domain.Session{
		Token:     tokenString,
		UserID:    userID,
		Email:     email,
		ExpiresAt: time.Unix(expiresAt.Unix(), 0).UTC(),
	}, nil
}

// Validate checks the signature and expiry of a session token
func (m *SessionManager) Validate(tokenString string) (*domain.SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	if !token.Valid {
		return nil, ErrInvalidSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid claims", ErrInvalidSession)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("%w: invalid user_id", ErrInvalidSession)
	}

	email, _ := claims["email"].(string)

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: invalid exp", ErrInvalidSession)
	}

	iat, _ := claims["iat"].(float64)

	sessionClaims := &domain.SessionClaims{
		UserID: userID,
		Email:  email,
		Exp:    int64(exp),
		Iat:    int64(iat),
	}

	if sessionClaims.IsExpired(m.now()) {
		return nil, fmt.Errorf("%w: expired", ErrInvalidSession)
	}

	return sessionClaims, nil
}
