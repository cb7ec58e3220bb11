package study

import (
	"context"

	"github.com/google/uuid"

	"github.com/example/studycore/internal/apperr"
	"github.com/example/studycore/internal/database"
	"github.com/example/studycore/internal/spaced_repetition"
	"github.com/example/studycore/pkg/models"
)

// SessionInput is the payload for recording an explain session
type SessionInput struct {
	TopicID         string  `json:"topic_id"`
	DurationSeconds int     `json:"duration_seconds"`
	Struggles       *string `json:"struggles"`
	Forgot          *string `json:"forgot"`
	Unclear         *string `json:"unclear"`
	Confidence      *int    `json:"confidence"`
}

// SessionResult is the outcome of RecordSession. Schedule and the review
// fields are nil when the session carried no confidence.
type SessionResult struct {
	Session         *models.ExplainSession `json:"session"`
	Schedule        *models.Schedule       `json:"schedule"`
	NextReviewDate  *string                `json:"next_review_date"`
	DaysUntilReview *int                   `json:"days_until_review"`
}

// RecordSession stores an explain session, refreshes the topic statistics
// and, when a confidence is given, moves the topic's schedule to the day the
// policy picks. All three writes share one transaction.
func (s *Service) RecordSession(ctx context.Context, userID string, in SessionInput) (*SessionResult, error) {
	if in.Confidence != nil && !spaced_repetition.ValidConfidence(*in.Confidence) {
		return nil, apperr.InvalidInput("confidence must be between 1 and 5")
	}
	if in.DurationSeconds < 0 {
		return nil, apperr.InvalidInput("duration_seconds must not be negative")
	}

	now := s.now()
	session := &models.ExplainSession{
		ID:              uuid.NewString(),
		TopicID:         in.TopicID,
		UserID:          userID,
		DurationSeconds: in.DurationSeconds,
		Struggles:       s.cleanOptional(in.Struggles),
		Forgot:          s.cleanOptional(in.Forgot),
		Unclear:         s.cleanOptional(in.Unclear),
		Confidence:      in.Confidence,
		CreatedAt:       now,
	}

	result := &SessionResult{Session: session}
	err := s.store.InTx(ctx, func(r database.Repos) error {
		topic, err := ownedTopic(ctx, r, userID, in.TopicID)
		if err != nil {
			return err
		}
		if err := r.Sessions.Create(ctx, session); err != nil {
			return err
		}
		if err := r.Topics.RecordExplain(ctx, topic.ID, session.CreatedAt); err != nil {
			return err
		}
		if in.Confidence == nil {
			return nil
		}

		next := s.policy.NextReviewDate(now, s.loc, in.Confidence)
		result.Schedule, _, err = r.Schedules.Upsert(ctx, database.ScheduleUpsert{
			UserID:     userID,
			TopicID:    topic.ID,
			Label:      topic.Title,
			NextReview: next,
			Intervals:  spaced_repetition.DefaultIntervalSet,
			CreatedAt:  now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.Schedule != nil {
		date := s.dateString(result.Schedule.NextReviewAt)
		days := spaced_repetition.DaysBetween(now, result.Schedule.NextReviewAt, s.loc)
		result.NextReviewDate = &date
		result.DaysUntilReview = &days
	}

	_, err = s.store.Analytics.RecordSession(ctx, userID, now, s.loc)
	s.bestEffort("analytics update", err, "user_id", userID)

	s.log.Info("explain session recorded",
		"user_id", userID,
		"topic_id", in.TopicID,
		"scheduled", result.Schedule != nil,
	)
	return result, nil
}
