package models

import "time"

// Topic represents a subject the user is studying
type Topic struct {
	ID            string     `json:"id" db:"id"`
	UserID        string     `json:"user_id" db:"user_id"`
	Title         string     `json:"title" db:"title"`
	Subject       *string    `json:"subject" db:"subject"`
	Description   *string    `json:"description" db:"description"`
	TotalExplains int        `json:"total_explains" db:"total_explains"`
	AvgConfidence int        `json:"avg_confidence" db:"avg_confidence"` // 1-5, 0 when no session carries a confidence
	LastExplained *time.Time `json:"last_explained" db:"last_explained"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}
