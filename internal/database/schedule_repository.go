package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/studycore/pkg/models"
)

const scheduleColumns = `id, user_id, topic_id, topic, next_review_at, intervals, completed, created_at`

// ScheduleRepository handles database operations for review schedules
type ScheduleRepository struct {
	q sqlx.ExtContext
}

// NewScheduleRepository creates a new repository instance
func NewScheduleRepository(q sqlx.ExtContext) *ScheduleRepository {
	return &ScheduleRepository{q: q}
}

// ScheduleUpsert describes the schedule wanted for a topic
type ScheduleUpsert struct {
	UserID     string
	TopicID    string
	Label      string
	NextReview time.Time
	// Intervals are only stored when the row is created.
	Intervals models.IntervalSet
	CreatedAt time.Time
}

// Upsert keeps exactly one schedule per (user, topic). An existing row only
// gets its next_review_at overwritten; intervals and completed stay as they
// were. The statement is a single INSERT ... ON CONFLICT so concurrent
// callers cannot create a second row. created reports whether a new row was
// inserted.
func (r *ScheduleRepository) Upsert(ctx context.Context, in ScheduleUpsert) (schedule *models.Schedule, created bool, err error) {
	id := uuid.NewString()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}

	var returnedID string
	err = get(ctx, r.q, &returnedID, `
		INSERT INTO schedules (id, user_id, topic_id, topic, next_review_at, intervals, completed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT (user_id, topic_id) DO UPDATE SET next_review_at = excluded.next_review_at
		RETURNING id`,
		id, in.UserID, in.TopicID, in.Label, in.NextReview.UTC(), in.Intervals, in.CreatedAt.UTC(),
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert schedule: %w", err)
	}

	schedule, err = r.GetByID(ctx, returnedID)
	if err != nil {
		return nil, false, err
	}
	if schedule == nil {
		return nil, false, fmt.Errorf("schedule %s vanished after upsert", returnedID)
	}
	return schedule, returnedID == id, nil
}

// CreateDetached inserts a schedule that is not linked to any topic
func (r *ScheduleRepository) CreateDetached(ctx context.Context, s *models.Schedule) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.TopicID = nil
	_, err := exec(ctx, r.q, `
		INSERT INTO schedules (`+scheduleColumns+`)
		VALUES (?, ?, NULL, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.Topic, s.NextReviewAt.UTC(), s.Intervals, s.Completed, s.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

// GetByID returns a schedule or nil if there is none
func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*models.Schedule, error) {
	var s models.Schedule
	err := get(ctx, r.q, &s, `SELECT `+scheduleColumns+` FROM schedules WHERE id = ?`, id)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return &s, nil
}

// GetByTopic returns the schedule of a topic or nil if it has none
func (r *ScheduleRepository) GetByTopic(ctx context.Context, userID, topicID string) (*models.Schedule, error) {
	var s models.Schedule
	err := get(ctx, r.q, &s, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE user_id = ? AND topic_id = ?`, userID, topicID)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return &s, nil
}

// GetAllByUserID returns the schedules of a user, soonest review first
func (r *ScheduleRepository) GetAllByUserID(ctx context.Context, userID string) ([]models.Schedule, error) {
	schedules := []models.Schedule{}
	err := list(ctx, r.q, &schedules, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE user_id = ?
		ORDER BY next_review_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedules: %w", err)
	}
	return schedules, nil
}

// CountByTopic returns how many schedule rows exist for a (user, topic) pair
func (r *ScheduleRepository) CountByTopic(ctx context.Context, userID, topicID string) (int, error) {
	var n int
	err := get(ctx, r.q, &n, `SELECT COUNT(*) FROM schedules WHERE user_id = ? AND topic_id = ?`, userID, topicID)
	if err != nil {
		return 0, fmt.Errorf("failed to count schedules: %w", err)
	}
	return n, nil
}
