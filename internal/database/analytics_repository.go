package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/studycore/internal/spaced_repetition"
	"github.com/example/studycore/pkg/models"
)

const analyticsColumns = `id, user_id, total_sessions, last_active, total_schedules_created, total_events_created, current_streak, longest_streak, created_at, updated_at`

// AnalyticsRepository handles database operations for user analytics
type AnalyticsRepository struct {
	q sqlx.ExtContext
}

// NewAnalyticsRepository creates a new repository instance
func NewAnalyticsRepository(q sqlx.ExtContext) *AnalyticsRepository {
	return &AnalyticsRepository{q: q}
}

// GetByUserID returns the analytics row of a user, creating an empty one
// if the user has none yet.
func (r *AnalyticsRepository) GetByUserID(ctx context.Context, userID string) (*models.UserAnalytics, error) {
	var a models.UserAnalytics
	err := get(ctx, r.q, &a, `SELECT `+analyticsColumns+` FROM user_analytics WHERE user_id = ?`, userID)
	if isNoRows(err) {
		now := time.Now().UTC()
		a = models.UserAnalytics{
			ID:        uuid.NewString(),
			UserID:    userID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := r.create(ctx, &a); err != nil {
			return nil, err
		}
		return &a, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analytics: %w", err)
	}
	return &a, nil
}

func (r *AnalyticsRepository) create(ctx context.Context, a *models.UserAnalytics) error {
	_, err := exec(ctx, r.q, `
		INSERT INTO user_analytics (`+analyticsColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`,
		a.ID, a.UserID, a.TotalSessions, a.LastActive, a.TotalSchedulesCreated,
		a.TotalEventsCreated, a.CurrentStreak, a.LongestStreak, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create analytics: %w", err)
	}
	return nil
}

func (r *AnalyticsRepository) update(ctx context.Context, a *models.UserAnalytics) error {
	a.UpdatedAt = time.Now().UTC()
	_, err := exec(ctx, r.q, `
		UPDATE user_analytics
		SET total_sessions = ?,
			last_active = ?,
			total_schedules_created = ?,
			total_events_created = ?,
			current_streak = ?,
			longest_streak = ?,
			updated_at = ?
		WHERE user_id = ?`,
		a.TotalSessions, a.LastActive, a.TotalSchedulesCreated, a.TotalEventsCreated,
		a.CurrentStreak, a.LongestStreak, a.UpdatedAt, a.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update analytics: %w", err)
	}
	return nil
}

// RecordSession counts a session at the given time and advances the streak
// of consecutive active days, measured in loc.
func (r *AnalyticsRepository) RecordSession(ctx context.Context, userID string, at time.Time, loc *time.Location) (*models.UserAnalytics, error) {
	a, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	a.TotalSessions++
	a.CurrentStreak = NextStreak(a.CurrentStreak, a.LastActive, at, loc)
	if a.CurrentStreak > a.LongestStreak {
		a.LongestStreak = a.CurrentStreak
	}
	active := at.UTC()
	a.LastActive = &active
	if err := r.update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// AddSchedulesCreated increments the schedules created counter
func (r *AnalyticsRepository) AddSchedulesCreated(ctx context.Context, userID string, n int) error {
	a, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	a.TotalSchedulesCreated += n
	return r.update(ctx, a)
}

// AddEventsCreated increments the calendar events created counter
func (r *AnalyticsRepository) AddEventsCreated(ctx context.Context, userID string, n int) error {
	a, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	a.TotalEventsCreated += n
	return r.update(ctx, a)
}

// NextStreak returns the streak after activity at now: unchanged on the same
// day, one longer on the following day, and 1 after a gap or on first use.
func NextStreak(current int, lastActive *time.Time, now time.Time, loc *time.Location) int {
	if lastActive == nil || current == 0 {
		return 1
	}
	switch spaced_repetition.DaysBetween(*lastActive, now, loc) {
	case 0:
		return current
	case 1:
		return current + 1
	default:
		return 1
	}
}
