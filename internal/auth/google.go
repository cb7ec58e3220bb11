package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/example/studycore/internal/apperr"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// Scopes requested at login. Calendar access backs the review date sink.
var Scopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/calendar.events",
}

// Identity is the verified profile returned by the provider
type Identity struct {
	ID      string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Provider is a Google OAuth identity provider
type Provider struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewGoogleProvider creates a provider for the given client credentials
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *Provider {
	return &Provider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       Scopes,
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

// OAuthConfig exposes the client configuration, e.g. for refreshing tokens
func (p *Provider) OAuthConfig() *oauth2.Config { return p.config }

// AuthCodeURL returns the consent page URL carrying state
func (p *Provider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorization code for a token and the user's identity
func (p *Provider) Exchange(ctx context.Context, code string) (*Identity, *oauth2.Token, error) {
	if code == "" {
		return nil, nil, apperr.InvalidInput("missing authorization code")
	}
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, nil, apperr.Dependency("identity provider", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}
	resp, err := p.config.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, nil, apperr.Dependency("identity provider", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, nil, apperr.Dependency("identity provider", fmt.Errorf("userinfo status %d: %s", resp.StatusCode, body))
	}

	var id Identity
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		return nil, nil, apperr.Dependency("identity provider", fmt.Errorf("decode userinfo: %w", err))
	}
	if id.ID == "" || id.Email == "" {
		return nil, nil, apperr.Dependency("identity provider", fmt.Errorf("userinfo missing sub or email"))
	}
	return &id, tok, nil
}
