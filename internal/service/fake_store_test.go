package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/auth-core/internal/domain"
	"github.com/prperemyshlev/auth-core/internal/repository"
)

// memStore is an in-memory repository.Store with the same uniqueness and
// consumption rules as the Postgres repositories.
type memStore struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	tokens map[domain.TokenKind]map[string]*domain.VerificationToken

	// failure injection
	getByEmailErr    error
	createUserErr    error
	markVerifiedErr  error
	createTokenErr   error
	createUserCalls  int
	beforeCreateUser func(u *domain.User)
}

var _ repository.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users: make(map[string]*domain.User),
		tokens: map[domain.TokenKind]map[string]*domain.VerificationToken{
			domain.TokenKindEmailVerification: {},
			domain.TokenKindPasswordReset:     {},
		},
	}
}

func (s *memStore) Users() repository.UserRepository { return memUsers{s} }

func (s *memStore) Tokens(kind domain.TokenKind) repository.TokenRepository {
	return memTokens{s: s, kind: kind}
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, store repository.Store) error) error {
	return fn(ctx, s)
}

func (s *memStore) userCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *memStore) tokenCount(kind domain.TokenKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens[kind])
}

func (s *memStore) tokensFor(kind domain.TokenKind, userID string) []domain.VerificationToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.VerificationToken
	for _, t := range s.tokens[kind] {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out
}

func (s *memStore) userByEmail(email string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp
		}
	}
	return nil
}

func (s *memStore) putToken(kind domain.TokenKind, t domain.VerificationToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.tokens[kind][t.Token] = &t
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.createUserCalls++
	if r.s.beforeCreateUser != nil {
		r.s.beforeCreateUser(user)
	}
	if r.s.createUserErr != nil {
		return r.s.createUserErr
	}

	for _, u := range r.s.users {
		switch {
		case strings.EqualFold(u.Email, user.Email):
			return fmt.Errorf("create: %w", repository.ErrDuplicateEmail)
		case u.Username != nil && user.Username != nil && *u.Username == *user.Username:
			return fmt.Errorf("create: %w", repository.ErrDuplicateUsername)
		case u.GoogleID != nil && user.GoogleID != nil && *u.GoogleID == *user.GoogleID,
			u.GitHubID != nil && user.GitHubID != nil && *u.GitHubID == *user.GitHubID:
			return fmt.Errorf("create: %w", repository.ErrDuplicateProviderID)
		}
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.s.getByEmailErr != nil {
		return nil, r.s.getByEmailErr
	}
	if u := r.s.userByEmail(email); u != nil {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (r memUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username != nil && *u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memUsers) GetByProviderID(_ context.Context, provider domain.Provider, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		var have *string
		switch provider {
		case domain.ProviderGoogle:
			have = u.GoogleID
		case domain.ProviderGitHub:
			have = u.GitHubID
		}
		if have != nil && *have == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memUsers) MarkEmailVerified(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.markVerifiedErr != nil {
		return r.s.markVerifiedErr
	}
	u, ok := r.s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.EmailVerified = true
	return nil
}

func (r memUsers) UpdatePassword(_ context.Context, userID, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = &hash
	return nil
}

type memTokens struct {
	s    *memStore
	kind domain.TokenKind
}

func (r memTokens) Create(_ context.Context, t *domain.VerificationToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.createTokenErr != nil {
		return r.s.createTokenErr
	}
	if _, dup := r.s.tokens[r.kind][t.Token]; dup {
		return repository.ErrDuplicateToken
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	cp := *t
	r.s.tokens[r.kind][t.Token] = &cp
	return nil
}

func (r memTokens) GetByToken(_ context.Context, token string) (*domain.VerificationToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[r.kind][token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r memTokens) Consume(_ context.Context, token string, now time.Time) (*domain.VerificationToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[r.kind][token]
	if !ok || !t.IsValid(now) {
		return nil, repository.ErrNotFound
	}
	t.Used = true
	cp := *t
	return &cp, nil
}

func (r memTokens) ListByUserID(_ context.Context, userID string) ([]*domain.VerificationToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.VerificationToken
	for _, t := range r.s.tokens[r.kind] {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}
