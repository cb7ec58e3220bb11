package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/studycore/internal/spaced_repetition"
	"github.com/example/studycore/pkg/models"
)

const topicColumns = `id, user_id, title, subject, description, total_explains, avg_confidence, last_explained, created_at, updated_at`

// TopicRepository handles database operations for topics
type TopicRepository struct {
	q sqlx.ExtContext
}

// NewTopicRepository creates a new repository instance
func NewTopicRepository(q sqlx.ExtContext) *TopicRepository {
	return &TopicRepository{q: q}
}

// GetAllByUserID returns all topics of a user, newest first
func (r *TopicRepository) GetAllByUserID(ctx context.Context, userID string) ([]models.Topic, error) {
	topics := []models.Topic{}
	err := list(ctx, r.q, &topics, `
		SELECT `+topicColumns+`
		FROM topics
		WHERE user_id = ?
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get topics: %w", err)
	}
	return topics, nil
}

// GetRecentByUserID returns the limit most recently created topics of a user
func (r *TopicRepository) GetRecentByUserID(ctx context.Context, userID string, limit int) ([]models.Topic, error) {
	topics := []models.Topic{}
	err := list(ctx, r.q, &topics, `
		SELECT `+topicColumns+`
		FROM topics
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent topics: %w", err)
	}
	return topics, nil
}

// GetByID returns a topic by ID regardless of owner, or nil if there is none.
// Callers check ownership.
func (r *TopicRepository) GetByID(ctx context.Context, topicID string) (*models.Topic, error) {
	var topic models.Topic
	err := get(ctx, r.q, &topic, `SELECT `+topicColumns+` FROM topics WHERE id = ?`, topicID)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	return &topic, nil
}

// Create inserts a new topic. ID and timestamps must be set by the caller.
func (r *TopicRepository) Create(ctx context.Context, topic *models.Topic) error {
	_, err := exec(ctx, r.q, `
		INSERT INTO topics (id, user_id, title, subject, description, total_explains, avg_confidence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		topic.ID, topic.UserID, topic.Title, topic.Subject, topic.Description,
		topic.CreatedAt.UTC(), topic.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}
	return nil
}

// RecordExplain refreshes the derived counters of a topic from its full
// session set: total_explains is the session count, avg_confidence the
// truncated mean of the non-null confidences and last_explained the time
// of the session just recorded.
func (r *TopicRepository) RecordExplain(ctx context.Context, topicID string, explainedAt time.Time) error {
	var stored []sql.NullInt64
	err := list(ctx, r.q, &stored, `SELECT confidence FROM explain_sessions WHERE topic_id = ?`, topicID)
	if err != nil {
		return fmt.Errorf("failed to read session confidences: %w", err)
	}
	confidences := make([]*int, len(stored))
	for i, c := range stored {
		if c.Valid {
			v := int(c.Int64)
			confidences[i] = &v
		}
	}

	result, err := exec(ctx, r.q, `
		UPDATE topics
		SET total_explains = ?,
			avg_confidence = ?,
			last_explained = ?,
			updated_at = ?
		WHERE id = ?`,
		len(confidences),
		spaced_repetition.AverageConfidence(confidences),
		explainedAt.UTC(),
		explainedAt.UTC(),
		topicID,
	)
	if err != nil {
		return fmt.Errorf("failed to update topic stats: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("topic %s not found", topicID)
	}
	return nil
}

// Delete removes a topic together with its sessions and its schedule.
// It reports false when the user owns no such topic.
func (r *TopicRepository) Delete(ctx context.Context, userID, topicID string) (bool, error) {
	if _, err := exec(ctx, r.q, `DELETE FROM schedules WHERE user_id = ? AND topic_id = ?`, userID, topicID); err != nil {
		return false, fmt.Errorf("failed to delete schedule: %w", err)
	}
	if _, err := exec(ctx, r.q, `DELETE FROM explain_sessions WHERE user_id = ? AND topic_id = ?`, userID, topicID); err != nil {
		return false, fmt.Errorf("failed to delete sessions: %w", err)
	}
	result, err := exec(ctx, r.q, `DELETE FROM topics WHERE id = ? AND user_id = ?`, topicID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete topic: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// CountByUserID returns the number of topics a user has
func (r *TopicRepository) CountByUserID(ctx context.Context, userID string) (int, error) {
	var n int
	if err := get(ctx, r.q, &n, `SELECT COUNT(*) FROM topics WHERE user_id = ?`, userID); err != nil {
		return 0, fmt.Errorf("failed to count topics: %w", err)
	}
	return n, nil
}
