package models

import "time"

// UserAnalytics tracks engagement counters for a user
type UserAnalytics struct {
	ID                    string     `json:"id" db:"id"`
	UserID                string     `json:"user_id" db:"user_id"`
	TotalSessions         int        `json:"total_sessions" db:"total_sessions"`
	LastActive            *time.Time `json:"last_active" db:"last_active"`
	TotalSchedulesCreated int        `json:"total_schedules_created" db:"total_schedules_created"`
	TotalEventsCreated    int        `json:"total_events_created" db:"total_events_created"`
	CurrentStreak         int        `json:"current_streak" db:"current_streak"`
	LongestStreak         int        `json:"longest_streak" db:"longest_streak"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`
}
