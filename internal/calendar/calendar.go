package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/example/studycore/internal/apperr"
	"github.com/example/studycore/internal/logger"
	"github.com/example/studycore/pkg/models"
)

const primaryCalendar = "primary"

// TokenLoader returns the stored provider token of a user, or nil
type TokenLoader interface {
	GetByUserID(ctx context.Context, userID string) (*models.OAuthToken, error)
}

// Sink pushes review dates to the user's Google Calendar as all-day events
type Sink struct {
	oauth    *oauth2.Config
	tokens   TokenLoader
	log      *logger.Logger
	endpoint string
}

// NewSink creates a calendar sink. oauth is used to refresh stored tokens.
func NewSink(oauth *oauth2.Config, tokens TokenLoader, log *logger.Logger) *Sink {
	return &Sink{oauth: oauth, tokens: tokens, log: log.With("component", "calendar")}
}

// AddReviewEvents creates one event per review date and returns how many
// were created. Users without a stored token are skipped.
func (s *Sink) AddReviewEvents(ctx context.Context, userID, title string, dates []time.Time) (int, error) {
	if len(dates) == 0 {
		return 0, nil
	}
	stored, err := s.tokens.GetByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if stored == nil {
		s.log.Debug("no provider token, skipping calendar sync", "user_id", userID)
		return 0, nil
	}

	var tok oauth2.Token
	if err := json.Unmarshal([]byte(stored.TokenData), &tok); err != nil {
		return 0, fmt.Errorf("failed to decode stored token: %w", err)
	}

	opts := []option.ClientOption{option.WithTokenSource(s.oauth.TokenSource(ctx, &tok))}
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return 0, apperr.Dependency("calendar", err)
	}

	created := 0
	for _, d := range dates {
		day := d.Format("2006-01-02")
		event := &gcal.Event{
			Summary:     "Review: " + title,
			Description: "Spaced repetition review",
			Start:       &gcal.EventDateTime{Date: day},
			End:         &gcal.EventDateTime{Date: d.AddDate(0, 0, 1).Format("2006-01-02")},
		}
		if _, err := svc.Events.Insert(primaryCalendar, event).Context(ctx).Do(); err != nil {
			return created, apperr.Dependency("calendar", err)
		}
		created++
	}
	return created, nil
}
