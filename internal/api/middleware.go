package api

import (
	"context"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/example/studycore/internal/apperr"
	"github.com/example/studycore/internal/logger"
	"github.com/example/studycore/pkg/models"
)

const userKey = "user"

// TokenParser verifies a session token and returns the user ID
type TokenParser interface {
	Parse(token string) (string, error)
}

// UserLookup loads the user a token belongs to
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

type AuthMiddleware struct {
	log    *logger.Logger
	tokens TokenParser
	users  UserLookup
}

func NewAuthMiddleware(log *logger.Logger, tokens TokenParser, users UserLookup) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "auth"), tokens: tokens, users: users}
}

// RequireAuth rejects requests without a valid session
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := am.authenticate(c)
		if err != nil {
			RespondError(c, am.log, err)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid session is present and lets
// anonymous requests through
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if extractToken(c) != "" {
			if user, err := am.authenticate(c); err == nil {
				c.Set(userKey, user)
			}
		}
		c.Next()
	}
}

func (am *AuthMiddleware) authenticate(c *gin.Context) (*models.User, error) {
	userID, err := am.tokens.Parse(extractToken(c))
	if err != nil {
		return nil, err
	}
	user, err := am.users.GetUser(c.Request.Context(), userID)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return nil, apperr.Unauthorized("user not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// extractToken reads the session cookie, which may carry a "Bearer " prefix,
// and falls back to the Authorization header
func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(sessionCookie); err == nil && cookie != "" {
		return stripBearer(cookie)
	}
	return stripBearer(c.GetHeader("Authorization"))
}

func stripBearer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) > 7 && strings.EqualFold(v[:7], "Bearer ") {
		return strings.TrimSpace(v[7:])
	}
	if strings.Contains(v, " ") {
		return ""
	}
	return v
}

// currentUser returns the authenticated user, or nil
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// CORS allows the configured origins with credentials
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://127.0.0.1:3000",
			"http://127.0.0.1:5173",
		}
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
