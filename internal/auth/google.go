package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/monocle-dev/taskdeck/internal/config"
	"golang.org/x/oauth2"
)

const ProviderGoogle = "google"

// GoogleProvider talks to Google (or any issuer passed in the config) over
// OpenID Connect. Build it once at startup and share it.
type GoogleProvider struct {
	oauth    oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewGoogleProvider fetches the issuer's discovery document.
func NewGoogleProvider(ctx context.Context, cfg config.OAuthConfig) (*GoogleProvider, error) {
	if !cfg.Enabled() {
		return nil, errors.New("OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET must be set")
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)

	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", cfg.Issuer, err)
	}

	return &GoogleProvider{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (g *GoogleProvider) Name() string {
	return ProviderGoogle
}

func (g *GoogleProvider) AuthCodeURL(state, nonce string) string {
	return g.oauth.AuthCodeURL(state, oidc.Nonce(nonce))
}

func (g *GoogleProvider) Exchange(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", errors.New("authorization code is empty")
	}

	token, err := g.oauth.Exchange(ctx, code)

	if err != nil {
		return "", err
	}

	rawIDToken, ok := token.Extra("id_token").(string)

	if !ok || rawIDToken == "" {
		return "", errors.New("token response has no id_token")
	}

	return rawIDToken, nil
}

func (g *GoogleProvider) Verify(ctx context.Context, rawIDToken, nonce string) (*Identity, error) {
	idToken, err := g.verifier.Verify(ctx, rawIDToken)

	if err != nil {
		return nil, err
	}

	if idToken.Nonce != nonce {
		return nil, errors.New("nonce does not match the login request")
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified *bool  `json:"email_verified"`
	}

	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}

	return &Identity{
		Subject:       idToken.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
	}, nil
}
