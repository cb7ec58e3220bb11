package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"github.com/example/studycore/internal/apperr"
	"github.com/example/studycore/internal/auth"
	"github.com/example/studycore/internal/logger"
	"github.com/example/studycore/internal/study"
	"github.com/example/studycore/pkg/models"
)

// IdentityProvider runs the OAuth code flow
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.Identity, *oauth2.Token, error)
}

// TokenIssuer signs session tokens
type TokenIssuer interface {
	Issue(userID string) (string, error)
	TTL() time.Duration
}

// SignInService records a verified login
type SignInService interface {
	SignIn(ctx context.Context, p study.Profile, tokenJSON string, expiry *time.Time) (*models.User, error)
}

type AuthHandlerConfig struct {
	Provider      IdentityProvider
	States        auth.StateStore
	StateTTL      time.Duration
	Issuer        TokenIssuer
	Accounts      SignInService
	AppURL        string
	SecureCookies bool
}

type AuthHandler struct {
	log *logger.Logger
	cfg AuthHandlerConfig
}

func NewAuthHandler(log *logger.Logger, cfg AuthHandlerConfig) *AuthHandler {
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = 10 * time.Minute
	}
	if cfg.AppURL == "" {
		cfg.AppURL = "/"
	}
	return &AuthHandler{log: log.With("handler", "auth"), cfg: cfg}
}

// Login stores a fresh state and redirects to the provider consent page
func (h *AuthHandler) Login(c *gin.Context) {
	state := auth.NewState()
	if err := h.cfg.States.Put(c.Request.Context(), state, h.cfg.StateTTL); err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, h.cfg.Provider.AuthCodeURL(state))
}

// Callback completes the login, sets the session cookie and redirects to the app
func (h *AuthHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()
	if reason := c.Query("error"); reason != "" {
		RespondError(c, h.log, apperr.InvalidInput("login was not completed: %s", reason))
		return
	}

	ok, err := h.cfg.States.Consume(ctx, c.Query("state"))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	if !ok {
		RespondError(c, h.log, apperr.InvalidInput("invalid or expired state"))
		return
	}

	identity, token, err := h.cfg.Provider.Exchange(ctx, c.Query("code"))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	var (
		tokenJSON []byte
		expiry    *time.Time
	)
	if token != nil {
		if tokenJSON, err = json.Marshal(token); err != nil {
			RespondError(c, h.log, err)
			return
		}
		if !token.Expiry.IsZero() {
			e := token.Expiry
			expiry = &e
		}
	}

	user, err := h.cfg.Accounts.SignIn(ctx, study.Profile{
		ID:      identity.ID,
		Email:   identity.Email,
		Name:    identity.Name,
		Picture: identity.Picture,
	}, string(tokenJSON), expiry)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	session, err := h.cfg.Issuer.Issue(user.ID)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	setCookie(c.Writer, sessionCookie, session, time.Now().Add(h.cfg.Issuer.TTL()), h.cfg.SecureCookies)
	c.Redirect(http.StatusFound, h.cfg.AppURL)
}

// Logout clears the session cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	clearCookie(c.Writer, sessionCookie, h.cfg.SecureCookies)
	RespondOK(c, gin.H{"message": "Logged out"})
}
