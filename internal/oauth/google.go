package oauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/prperemyshlev/auth-core/internal/domain"
	"golang.org/x/oauth2"
)

const googleIssuer = "https://accounts.google.com"

// Google signs users in with Google's OpenID Connect endpoint
type Google struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
}

// NewGoogle discovers Google's OIDC configuration and builds the provider
func NewGoogle(ctx context.Context, clientID, clientSecret, redirectURL string) (*Google, error) {
	return newGoogle(ctx, googleIssuer, clientID, clientSecret, redirectURL)
}

func newGoogle(ctx context.Context, issuer, clientID, clientSecret, redirectURL string) (*Google, error) {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("google oauth config missing required fields")
	}

	oidcProvider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init google oidc provider: %w", err)
	}

	return &Google{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     oidcProvider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: oidcProvider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func (p *Google) Name() domain.Provider {
	return domain.ProviderGoogle
}

func (p *Google) AuthCodeURL(state, verifier string) string {
	return p.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
}

func (p *Google) Exchange(ctx context.Context, code, verifier string) (*domain.Identity, error) {
	token, err := p.oauthConfig.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("google token exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("google did not return id_token")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("google id_token verification failed: %w", err)
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("google id_token claims parse failed: %w", err)
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, errors.New("google id_token missing required claims")
	}
	if !claims.EmailVerified {
		return nil, errors.New("google account email is not verified")
	}

	return &domain.Identity{
		Provider:   domain.ProviderGoogle,
		ProviderID: claims.Subject,
		Email:      claims.Email,
		Name:       claims.Name,
		Avatar:     claims.Picture,
	}, nil
}
