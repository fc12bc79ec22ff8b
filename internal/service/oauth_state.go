package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prperemyshlev/auth-core/internal/domain"
	"github.com/prperemyshlev/auth-core/pkg/database"
	"github.com/redis/go-redis/v9"
)

// ErrUnknownState is returned for an OAuth state that was never issued,
// has expired, or was already used
var ErrUnknownState = errors.New("unknown oauth state")

// OAuthState is what the start of an authorization code flow leaves behind
// for the callback
type OAuthState struct {
	Provider domain.Provider
	Verifier string
}

// OAuthStateStore keeps OAuth state and PKCE verifiers in Redis
type OAuthStateStore struct {
	redis *database.Redis
	ttl   time.Duration
}

// NewOAuthStateStore creates a new state store
func NewOAuthStateStore(redis *database.Redis, ttl time.Duration) *OAuthStateStore {
	return &OAuthStateStore{redis: redis, ttl: ttl}
}

// Save stores st under state until the TTL elapses
func (s *OAuthStateStore) Save(ctx context.Context, state string, st OAuthState) error {
	key := fmt.Sprintf("oauth:state:%s", state)
	value := string(st.Provider) + ":" + st.Verifier
	if err := s.redis.Client.Set(ctx, key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save oauth state: %w", err)
	}
	return nil
}

// Take returns and deletes the state in one step, so a state is
// accepted at most once
func (s *OAuthStateStore) Take(ctx context.Context, state string) (*OAuthState, error) {
	key := fmt.Sprintf("oauth:state:%s", state)
	value, err := s.redis.Client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUnknownState
		}
		return nil, fmt.Errorf("failed to take oauth state: %w", err)
	}

	provider, verifier, ok := strings.Cut(value, ":")
	if !ok {
		return nil, ErrUnknownState
	}

	return &OAuthState{Provider: domain.Provider(provider), Verifier: verifier}, nil
}
