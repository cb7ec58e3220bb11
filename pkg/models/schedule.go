package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Schedule is the single pending review commitment for a topic.
// TopicID is nil for detached schedules created from a free-text label.
type Schedule struct {
	ID           string      `json:"id" db:"id"`
	UserID       string      `json:"user_id" db:"user_id"`
	TopicID      *string     `json:"topic_id" db:"topic_id"`
	Topic        string      `json:"topic" db:"topic"`
	NextReviewAt time.Time   `json:"next_review_at" db:"next_review_at"`
	Intervals    IntervalSet `json:"intervals" db:"intervals"`
	Completed    int         `json:"completed" db:"completed"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// IntervalSet is an ordered list of day offsets, stored as a JSON array
type IntervalSet []int

// Value implements driver.Valuer
func (s IntervalSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (s *IntervalSet) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported interval set type %T", src)
	}
	var out []int
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("failed to decode interval set: %w", err)
	}
	*s = out
	return nil
}
