package study

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/studycore/internal/apperr"
	"github.com/example/studycore/internal/database"
	"github.com/example/studycore/internal/spaced_repetition"
	"github.com/example/studycore/pkg/models"
)

// IntervalList accepts either a JSON array of days or a comma separated
// string such as "1,3,7,21".
type IntervalList []int

// UnmarshalJSON implements json.Unmarshaler
func (l *IntervalList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			*l = nil
			return nil
		}
		parsed, err := spaced_repetition.ParseIntervals(s)
		if err != nil {
			return err
		}
		*l = IntervalList(parsed)
		return nil
	}
	var days []int
	if err := json.Unmarshal(data, &days); err != nil {
		return apperr.InvalidInput("intervals must be a list of days or a comma separated string")
	}
	*l = days
	return nil
}

// ScheduleInput is the payload for direct schedule creation. TopicID links
// the schedule to a topic; without it Topic is a free-text label and a
// detached schedule is created.
type ScheduleInput struct {
	TopicID   *string      `json:"topic_id"`
	Topic     string       `json:"topic"`
	StartDate string       `json:"start_date"`
	Intervals IntervalList `json:"intervals"`
}

// ScheduleResult is the outcome of CreateOrUpdateSchedule
type ScheduleResult struct {
	Schedule      *models.Schedule `json:"schedule"`
	StartDate     string           `json:"start_date"`
	ReviewDates   []string         `json:"review_dates"`
	EventsCreated int              `json:"events_created"`
}

// CreateOrUpdateSchedule sets the next review of a topic to the start date
// (today when omitted). A topic that already has a schedule keeps its row
// and interval set; only the next review moves.
func (s *Service) CreateOrUpdateSchedule(ctx context.Context, userID string, in ScheduleInput) (*ScheduleResult, error) {
	intervals := s.defaultIntervals
	if len(in.Intervals) > 0 {
		if err := spaced_repetition.ValidateIntervals(in.Intervals); err != nil {
			return nil, err
		}
		intervals = models.IntervalSet(in.Intervals)
	}

	now := s.now()
	start := spaced_repetition.StartOfDay(now, s.loc)
	if strings.TrimSpace(in.StartDate) != "" {
		var err error
		if start, err = spaced_repetition.ParseDate(in.StartDate, s.loc); err != nil {
			return nil, err
		}
	}

	var schedule *models.Schedule
	if in.TopicID != nil && strings.TrimSpace(*in.TopicID) != "" {
		err := s.store.InTx(ctx, func(r database.Repos) error {
			topic, err := ownedTopic(ctx, r, userID, *in.TopicID)
			if err != nil {
				return err
			}
			schedule, _, err = r.Schedules.Upsert(ctx, database.ScheduleUpsert{
				UserID:     userID,
				TopicID:    topic.ID,
				Label:      topic.Title,
				NextReview: start,
				Intervals:  intervals,
				CreatedAt:  now,
			})
			return err
		})
		if err != nil {
			return nil, err
		}
	} else {
		label := s.clean(in.Topic)
		if label == "" {
			return nil, apperr.InvalidInput("topic_id or topic is required")
		}
		if len([]rune(label)) > maxTitleLength {
			return nil, apperr.InvalidInput("topic must be at most %d characters", maxTitleLength)
		}
		schedule = &models.Schedule{
			ID:           uuid.NewString(),
			UserID:       userID,
			Topic:        label,
			NextReviewAt: start,
			Intervals:    intervals,
			CreatedAt:    now,
		}
		if err := s.store.Schedules.CreateDetached(ctx, schedule); err != nil {
			return nil, err
		}
	}

	dates := spaced_repetition.ReviewDates(start, schedule.Intervals)
	result := &ScheduleResult{
		Schedule:    schedule,
		StartDate:   s.dateString(start),
		ReviewDates: make([]string, len(dates)),
	}
	for i, d := range dates {
		result.ReviewDates[i] = s.dateString(d)
	}

	s.bestEffort("analytics update", s.store.Analytics.AddSchedulesCreated(ctx, userID, 1), "user_id", userID)
	result.EventsCreated = s.syncCalendar(ctx, userID, schedule.Topic, dates)

	s.log.Info("schedule saved",
		"user_id", userID,
		"schedule_id", schedule.ID,
		"review_dates", len(dates),
		"events_created", result.EventsCreated,
	)
	return result, nil
}

// syncCalendar pushes review dates to the calendar sink, if one is set, and
// returns the number of events created. Failures are logged only.
func (s *Service) syncCalendar(ctx context.Context, userID, title string, dates []time.Time) int {
	if s.calendar == nil || len(dates) == 0 {
		return 0
	}
	n, err := s.calendar.AddReviewEvents(ctx, userID, title, dates)
	s.bestEffort("calendar sync", err, "user_id", userID, "events_created", n)
	if n > 0 {
		s.bestEffort("analytics update", s.store.Analytics.AddEventsCreated(ctx, userID, n), "user_id", userID)
	}
	return n
}

// ListSchedules returns the user's schedules, soonest review first
func (s *Service) ListSchedules(ctx context.Context, userID string) ([]models.Schedule, error) {
	return s.store.Schedules.GetAllByUserID(ctx, userID)
}

// ResolveDue returns the due set of a user as of now
func (s *Service) ResolveDue(ctx context.Context, userID string) (spaced_repetition.DueSet, error) {
	return s.ResolveDueAt(ctx, userID, s.now())
}

// ResolveDueAt returns the due set of a user as of the end of asOf's day
func (s *Service) ResolveDueAt(ctx context.Context, userID string, asOf time.Time) (spaced_repetition.DueSet, error) {
	schedules, err := s.store.Schedules.GetAllByUserID(ctx, userID)
	if err != nil {
		return spaced_repetition.DueSet{}, err
	}
	topics, err := s.store.Topics.GetAllByUserID(ctx, userID)
	if err != nil {
		return spaced_repetition.DueSet{}, err
	}
	return spaced_repetition.ResolveDue(asOf, s.loc, schedules, topics), nil
}
