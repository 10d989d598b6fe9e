package sso

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Provider implements Verifier over OIDC: discovery, the authorization
// code flow, and ID-token signature verification against the
// provider's published keys.
type Provider struct {
	config   *oauth2.Config
	verifier *gooidc.IDTokenVerifier
}

// ProviderConfig holds the identity-provider trust material and client
// registration, loaded once at startup.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	// IssuerURL is the provider base URL; discovery resolves endpoints
	// and signing keys from it.
	IssuerURL  string
	HTTPClient *http.Client
}

// NewProvider runs OIDC discovery once and prepares the code flow.
func NewProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("client id is required")
	}
	if cfg.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("redirect url is required")
	}
	if cfg.IssuerURL == "" {
		return nil, errors.New("issuer url is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)

	issuer := strings.TrimSuffix(cfg.IssuerURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{gooidc.ScopeOpenID, "profile", "email"}
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     op.Endpoint(),
		},
		verifier: op.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// Begin returns the provider authorization URL together with the state
// and nonce values bound to this round-trip.
func (p *Provider) Begin(_ context.Context) (string, string, string, error) {
	state, err := randomToken(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomToken(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	authURL := p.config.AuthCodeURL(state, oauth2.SetAuthURLParam("nonce", nonce))
	return authURL, state, nonce, nil
}

// idTokenClaims is a superset of the claim shapes the supported
// providers emit for role information.
type idTokenClaims struct {
	Subject string   `json:"sub"`
	Email   string   `json:"email"`
	Name    string   `json:"name"`
	Role    string   `json:"role"`
	Roles   []string `json:"roles"`
	Nonce   string   `json:"nonce"`
}

// Exchange redeems the authorization code, verifies the ID token
// signature and issuer, checks the nonce, and extracts the claim set.
// Any failure maps to ErrInvalidAssertion.
func (p *Provider) Exchange(ctx context.Context, code, nonce string) (Assertion, error) {
	if code == "" {
		return Assertion{}, fmt.Errorf("%w: missing authorization code", ErrInvalidAssertion)
	}
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return Assertion{}, fmt.Errorf("%w: code exchange failed: %v", ErrInvalidAssertion, err)
	}
	rawID, ok := token.Extra("id_token").(string)
	if !ok || rawID == "" {
		return Assertion{}, fmt.Errorf("%w: no id_token in response", ErrInvalidAssertion)
	}
	idToken, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return Assertion{}, fmt.Errorf("%w: %v", ErrInvalidAssertion, err)
	}
	var claims idTokenClaims
	if err := idToken.Claims(&claims); err != nil {
		return Assertion{}, fmt.Errorf("%w: decode claims: %v", ErrInvalidAssertion, err)
	}
	if nonce != "" && claims.Nonce != nonce {
		return Assertion{}, fmt.Errorf("%w: nonce mismatch", ErrInvalidAssertion)
	}

	rawRole := claims.Role
	if rawRole == "" && len(claims.Roles) > 0 {
		rawRole = claims.Roles[0]
	}
	assertion := Assertion{
		SubjectID:   claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
		RawRole:     rawRole,
	}
	if assertion.SubjectID == "" || assertion.Email == "" {
		return Assertion{}, fmt.Errorf("%w: mandatory claims absent", ErrInvalidAssertion)
	}
	return assertion, nil
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
