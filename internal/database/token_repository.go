package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/studycore/pkg/models"
)

// TokenRepository stores the identity provider token of each user
type TokenRepository struct {
	q sqlx.ExtContext
}

// NewTokenRepository creates a new repository instance
func NewTokenRepository(q sqlx.ExtContext) *TokenRepository {
	return &TokenRepository{q: q}
}

// Save stores or replaces the token of a user
func (r *TokenRepository) Save(ctx context.Context, userID, tokenData string, expiresAt *time.Time) error {
	now := time.Now().UTC()
	var expiry *time.Time
	if expiresAt != nil && !expiresAt.IsZero() {
		t := expiresAt.UTC()
		expiry = &t
	}
	_, err := exec(ctx, r.q, `
		INSERT INTO oauth_tokens (id, user_id, token_data, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			token_data = excluded.token_data,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		uuid.NewString(), userID, tokenData, expiry, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// GetByUserID returns the stored token or nil
func (r *TokenRepository) GetByUserID(ctx context.Context, userID string) (*models.OAuthToken, error) {
	var tok models.OAuthToken
	err := get(ctx, r.q, &tok, `
		SELECT id, user_id, token_data, expires_at, created_at, updated_at
		FROM oauth_tokens WHERE user_id = ?`, userID)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &tok, nil
}
