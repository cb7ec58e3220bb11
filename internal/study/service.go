// Package study implements the study tracker operations: topics, explain
// sessions, review schedules, the due set and the surrounding account
// features. Handlers and jobs call it; it owns the transaction boundaries.
package study

import (
	"context"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/example/studycore/internal/apperr"
	"github.com/example/studycore/internal/database"
	"github.com/example/studycore/internal/logger"
	"github.com/example/studycore/internal/spaced_repetition"
	"github.com/example/studycore/pkg/models"
)

// CalendarSink receives review dates for a topic. Implementations are best-effort.
type CalendarSink interface {
	AddReviewEvents(ctx context.Context, userID, title string, dates []time.Time) (int, error)
}

// FeedbackMailer forwards feedback to the team inbox
type FeedbackMailer interface {
	NotifyFeedback(ctx context.Context, to string, fb models.Feedback) error
}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	Location         *time.Location
	DefaultIntervals models.IntervalSet
	Calendar         CalendarSink
	Feedback         FeedbackMailer
	FeedbackTo       string
	Logger           *logger.Logger
	Now              func() time.Time
}

// Service is the entry point for all study operations
type Service struct {
	store            *database.Store
	policy           *spaced_repetition.Policy
	loc              *time.Location
	defaultIntervals models.IntervalSet
	calendar         CalendarSink
	feedback         FeedbackMailer
	feedbackTo       string
	sanitizer        *bluemonday.Policy
	log              *logger.Logger
	now              func() time.Time
}

// NewService creates a service over store
func NewService(store *database.Store, opts Options) *Service {
	s := &Service{
		store:            store,
		policy:           spaced_repetition.NewPolicy(),
		loc:              opts.Location,
		defaultIntervals: opts.DefaultIntervals,
		calendar:         opts.Calendar,
		feedback:         opts.Feedback,
		feedbackTo:       opts.FeedbackTo,
		sanitizer:        bluemonday.StrictPolicy(),
		log:              opts.Logger,
		now:              opts.Now,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if len(s.defaultIntervals) == 0 {
		s.defaultIntervals = spaced_repetition.DefaultIntervalSet
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	s.log = s.log.With("component", "study")
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Location is the time zone that defines calendar days
func (s *Service) Location() *time.Location { return s.loc }

// clean strips markup from user text and trims it. The result is plain
// text; HTML entities are decoded again.
func (s *Service) clean(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(v)))
}

// cleanOptional cleans v and turns blank text into nil
func (s *Service) cleanOptional(v *string) *string {
	if v == nil {
		return nil
	}
	c := s.clean(*v)
	if c == "" {
		return nil
	}
	return &c
}

// ownedTopic loads a topic and checks that userID owns it
func ownedTopic(ctx context.Context, r database.Repos, userID, topicID string) (*models.Topic, error) {
	if strings.TrimSpace(topicID) == "" {
		return nil, apperr.InvalidInput("topic_id is required")
	}
	topic, err := r.Topics.GetByID(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, apperr.NotFound("topic not found")
	}
	if topic.UserID != userID {
		return nil, apperr.Forbidden("topic belongs to another user")
	}
	return topic, nil
}

// dateString renders t as a calendar date in the service location
func (s *Service) dateString(t time.Time) string {
	return t.In(s.loc).Format(spaced_repetition.DateLayout)
}

// bestEffort logs a failed side effect without failing the caller
func (s *Service) bestEffort(what string, err error, keysAndValues ...interface{}) {
	if err == nil {
		return
	}
	kv := append([]interface{}{"error", apperr.Dependency(what, err)}, keysAndValues...)
	s.log.Warn(what+" failed", kv...)
}
