package study

import (
	"context"

	"github.com/google/uuid"

	"github.com/example/studycore/internal/apperr"
	"github.com/example/studycore/internal/database"
	"github.com/example/studycore/internal/spaced_repetition"
	"github.com/example/studycore/pkg/models"
)

const (
	maxTitleLength    = 200
	recentSessionsMax = 5
)

// TopicInput is the payload for creating a topic
type TopicInput struct {
	Title       string  `json:"title"`
	Subject     *string `json:"subject"`
	Description *string `json:"description"`
}

// TopicDetail is a topic with its next review and latest sessions
type TopicDetail struct {
	models.Topic
	NextReviewDate *string                 `json:"next_review_date"`
	RecentSessions []models.ExplainSession `json:"recent_sessions"`
}

// SessionView is a session with its age in days
type SessionView struct {
	models.ExplainSession
	DaysAgo int `json:"days_ago"`
}

// CreateTopic creates a topic owned by userID
func (s *Service) CreateTopic(ctx context.Context, userID string, in TopicInput) (*models.Topic, error) {
	return s.createTopic(ctx, s.store.Repos, userID, in)
}

func (s *Service) createTopic(ctx context.Context, r database.Repos, userID string, in TopicInput) (*models.Topic, error) {
	title := s.clean(in.Title)
	if title == "" {
		return nil, apperr.InvalidInput("title is required")
	}
	if len([]rune(title)) > maxTitleLength {
		return nil, apperr.InvalidInput("title must be at most %d characters", maxTitleLength)
	}

	now := s.now()
	topic := &models.Topic{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Subject:     s.cleanOptional(in.Subject),
		Description: s.cleanOptional(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.Topics.Create(ctx, topic); err != nil {
		return nil, err
	}
	return topic, nil
}

// ListTopics returns the user's topics, newest first
func (s *Service) ListTopics(ctx context.Context, userID string) ([]models.Topic, error) {
	return s.store.Topics.GetAllByUserID(ctx, userID)
}

// GetTopic returns a topic with its next review date and recent sessions
func (s *Service) GetTopic(ctx context.Context, userID, topicID string) (*TopicDetail, error) {
	topic, err := ownedTopic(ctx, s.store.Repos, userID, topicID)
	if err != nil {
		return nil, err
	}

	detail := &TopicDetail{Topic: *topic}
	sched, err := s.store.Schedules.GetByTopic(ctx, userID, topicID)
	if err != nil {
		return nil, err
	}
	if sched != nil {
		d := s.dateString(sched.NextReviewAt)
		detail.NextReviewDate = &d
	}
	detail.RecentSessions, err = s.store.Sessions.GetByTopic(ctx, topicID, recentSessionsMax)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// DeleteTopic removes a topic with its sessions and schedule
func (s *Service) DeleteTopic(ctx context.Context, userID, topicID string) error {
	return s.store.InTx(ctx, func(r database.Repos) error {
		if _, err := ownedTopic(ctx, r, userID, topicID); err != nil {
			return err
		}
		deleted, err := r.Topics.Delete(ctx, userID, topicID)
		if err != nil {
			return err
		}
		if !deleted {
			return apperr.NotFound("topic not found")
		}
		return nil
	})
}

// ListTopicSessions returns every session of a topic, newest first. Topics
// owned by someone else are reported as not found.
func (s *Service) ListTopicSessions(ctx context.Context, userID, topicID string) ([]SessionView, error) {
	if _, err := ownedTopic(ctx, s.store.Repos, userID, topicID); err != nil {
		if apperr.KindOf(err) == apperr.KindForbidden {
			return nil, apperr.NotFound("topic not found")
		}
		return nil, err
	}
	sessions, err := s.store.Sessions.GetByTopic(ctx, topicID, 0)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]SessionView, len(sessions))
	for i, sess := range sessions {
		views[i] = SessionView{
			ExplainSession: sess,
			DaysAgo:        spaced_repetition.DaysBetween(sess.CreatedAt, now, s.loc),
		}
	}
	return views, nil
}
