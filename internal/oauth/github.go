package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prperemyshlev/auth-core/internal/domain"
	"golang.org/x/oauth2"
	githubendpoint "golang.org/x/oauth2/github"
)

const githubAPI = "https://api.github.com"

// GitHub signs users in with GitHub's OAuth app flow and REST profile API
type GitHub struct {
	oauthConfig *oauth2.Config
	apiBaseURL  string
}

// NewGitHub builds the GitHub provider
func NewGitHub(clientID, clientSecret, redirectURL string) (*GitHub, error) {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("github oauth config missing required fields")
	}

	return &GitHub{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     githubendpoint.Endpoint,
			Scopes:       []string{"read:user", "user:email"},
		},
		apiBaseURL: githubAPI,
	}, nil
}

func (p *GitHub) Name() domain.Provider {
	return domain.ProviderGitHub
}

func (p *GitHub) AuthCodeURL(state, verifier string) string {
	return p.oauthConfig.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (p *GitHub) Exchange(ctx context.Context, code, verifier string) (*domain.Identity, error) {
	token, err := p.oauthConfig.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("github token exchange failed: %w", err)
	}

	client := p.oauthConfig.Client(ctx, token)

	var user githubUser
	if err := p.getJSON(ctx, client, "/user", &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, errors.New("github user response missing id")
	}

	// the profile email is only the public one; fall back to the verified primary
	email := user.Email
	if email == "" {
		var emails []githubEmail
		if err := p.getJSON(ctx, client, "/user/emails", &emails); err != nil {
			return nil, err
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				email = e.Email
				break
			}
		}
	}
	if email == "" {
		return nil, errors.New("github account has no verified primary email")
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return &domain.Identity{
		Provider:   domain.ProviderGitHub,
		ProviderID: strconv.FormatInt(user.ID, 10),
		Email:      email,
		Name:       name,
		Avatar:     user.AvatarURL,
	}, nil
}

func (p *GitHub) getJSON(ctx context.Context, client *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build github request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("github %s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode github %s response: %w", path, err)
	}
	return nil
}
