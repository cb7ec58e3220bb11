package models

import "time"

// User is an account created on first login through the identity provider.
// ID is the provider's subject identifier.
type User struct {
	ID               string    `json:"id" db:"id"`
	Email            string    `json:"email" db:"email"`
	Name             string    `json:"name" db:"name"`
	Picture          string    `json:"picture" db:"picture"`
	TelegramChatID   *int64    `json:"telegram_chat_id" db:"telegram_chat_id"`
	RemindersEnabled bool      `json:"reminders_enabled" db:"reminders_enabled"`
	IsActive         bool      `json:"is_active" db:"is_active"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	LastLogin        time.Time `json:"last_login" db:"last_login"`
}
