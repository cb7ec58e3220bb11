package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/studycore/pkg/models"
)

const sessionColumns = `id, topic_id, user_id, duration_seconds, struggles, forgot, unclear, confidence, created_at`

// SessionRepository handles database operations for explain sessions
type SessionRepository struct {
	q sqlx.ExtContext
}

// NewSessionRepository creates a new repository instance
func NewSessionRepository(q sqlx.ExtContext) *SessionRepository {
	return &SessionRepository{q: q}
}

// Create inserts a session. Sessions are never updated afterwards.
func (r *SessionRepository) Create(ctx context.Context, s *models.ExplainSession) error {
	_, err := exec(ctx, r.q, `
		INSERT INTO explain_sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.TopicID, s.UserID, s.DurationSeconds,
		s.Struggles, s.Forgot, s.Unclear, s.Confidence,
		s.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetByTopic returns the sessions of a topic, newest first. A limit of
// zero or less returns all of them.
func (r *SessionRepository) GetByTopic(ctx context.Context, topicID string, limit int) ([]models.ExplainSession, error) {
	sessions := []models.ExplainSession{}
	query := `SELECT ` + sessionColumns + ` FROM explain_sessions WHERE topic_id = ? ORDER BY created_at DESC`
	args := []interface{}{topicID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	if err := list(ctx, r.q, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get sessions: %w", err)
	}
	return sessions, nil
}

// GetByUserID returns every session of a user, newest first
func (r *SessionRepository) GetByUserID(ctx context.Context, userID string) ([]models.ExplainSession, error) {
	sessions := []models.ExplainSession{}
	err := list(ctx, r.q, &sessions, `
		SELECT `+sessionColumns+`
		FROM explain_sessions
		WHERE user_id = ?
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sessions: %w", err)
	}
	return sessions, nil
}

// ConfidenceSummary holds the user-wide session aggregates
type ConfidenceSummary struct {
	TotalExplains int
	// Mean confidence over sessions that carry one; 0 when none do.
	MeanConfidence float64
}

// SummaryByUserID aggregates all sessions of a user
func (r *SessionRepository) SummaryByUserID(ctx context.Context, userID string) (ConfidenceSummary, error) {
	var row struct {
		Total int             `db:"total"`
		Mean  sql.NullFloat64 `db:"mean"`
	}
	err := get(ctx, r.q, &row, `
		SELECT COUNT(*) AS total, AVG(confidence) AS mean
		FROM explain_sessions
		WHERE user_id = ?`, userID)
	if err != nil {
		return ConfidenceSummary{}, fmt.Errorf("failed to summarise sessions: %w", err)
	}
	return ConfidenceSummary{TotalExplains: row.Total, MeanConfidence: row.Mean.Float64}, nil
}
