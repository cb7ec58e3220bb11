package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/studycore/pkg/models"
)

const userColumns = `id, email, name, picture, telegram_chat_id, reminders_enabled, is_active, created_at, last_login`

// UserRepository handles database operations for users
type UserRepository struct {
	q sqlx.ExtContext
}

// NewUserRepository creates a new repository instance
func NewUserRepository(q sqlx.ExtContext) *UserRepository {
	return &UserRepository{q: q}
}

// GetByID returns a user by ID, or nil if there is none
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := get(ctx, r.q, &user, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetByTelegramChatID returns the user linked to a Telegram chat, or nil
func (r *UserRepository) GetByTelegramChatID(ctx context.Context, chatID int64) (*models.User, error) {
	var user models.User
	err := get(ctx, r.q, &user, `SELECT `+userColumns+` FROM users WHERE telegram_chat_id = ?`, chatID)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by chat: %w", err)
	}
	return &user, nil
}

// Upsert creates the user on first login and refreshes the profile and
// last_login on later logins.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.LastLogin.IsZero() {
		user.LastLogin = now
	}
	_, err := exec(ctx, r.q, `
		INSERT INTO users (id, email, name, picture, reminders_enabled, is_active, created_at, last_login)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			picture = excluded.picture,
			last_login = excluded.last_login`,
		user.ID, user.Email, user.Name, user.Picture, true, true,
		user.CreatedAt.UTC(), user.LastLogin.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// UpdatePreferences sets the reminder channel and switch of a user
func (r *UserRepository) UpdatePreferences(ctx context.Context, userID string, chatID *int64, remindersEnabled bool) error {
	result, err := exec(ctx, r.q,
		`UPDATE users SET telegram_chat_id = ?, reminders_enabled = ? WHERE id = ?`,
		chatID, remindersEnabled, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %s not found", userID)
	}
	return nil
}

// GetReminderRecipients returns active users with reminders switched on
func (r *UserRepository) GetReminderRecipients(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := list(ctx, r.q, &users, `
		SELECT `+userColumns+` FROM users
		WHERE is_active = ? AND reminders_enabled = ?
		ORDER BY created_at`, true, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder recipients: %w", err)
	}
	return users, nil
}
