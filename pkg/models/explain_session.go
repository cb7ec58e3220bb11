package models

import "time"

// ExplainSession is one attempt at explaining a topic. Rows are never updated.
type ExplainSession struct {
	ID              string    `json:"id" db:"id"`
	TopicID         string    `json:"topic_id" db:"topic_id"`
	UserID          string    `json:"user_id" db:"user_id"`
	DurationSeconds int       `json:"duration_seconds" db:"duration_seconds"`
	Struggles       *string   `json:"struggles" db:"struggles"`
	Forgot          *string   `json:"forgot" db:"forgot"`
	Unclear         *string   `json:"unclear" db:"unclear"`
	Confidence      *int      `json:"confidence" db:"confidence"` // 1-5 self assessment, optional
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
