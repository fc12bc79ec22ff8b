package oauth

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/prperemyshlev/auth-core/internal/domain"
)

// ErrUnknownProvider is returned by Registry.Get for unregistered names
var ErrUnknownProvider = errors.New("unknown oauth provider")

// Provider runs the authorization code flow against one external identity
// provider. Implementations return identity facts only; account creation
// and sessions belong to the caller.
type Provider interface {
	// Name returns the provider identifier used in routes and user records.
	Name() domain.Provider

	// AuthCodeURL returns the authorization URL. The PKCE verifier is kept
	// by the caller and passed back to Exchange.
	AuthCodeURL(state, verifier string) string

	// Exchange trades the authorization code for a normalized identity.
	Exchange(ctx context.Context, code, verifier string) (*domain.Identity, error)
}

// Registry holds the configured providers by name
type Registry struct {
	providers map[domain.Provider]Provider
}

// NewRegistry registers the given providers. Later duplicates win.
func NewRegistry(list ...Provider) *Registry {
	m := make(map[domain.Provider]Provider, len(list))
	for _, p := range list {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

// Get returns the provider registered under name
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[domain.Provider(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

// Names lists registered providers in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}
