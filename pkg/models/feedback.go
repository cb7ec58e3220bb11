package models

import "time"

// Feedback is a message submitted from the feedback form
type Feedback struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Type      string    `json:"type" db:"type"` // feature, bug, improvement, other
	Message   string    `json:"message" db:"message"`
	UserID    *string   `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
