package study

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/studycore/internal/apperr"
	"github.com/example/studycore/internal/database"
	"github.com/example/studycore/pkg/models"
)

// Profile is the verified identity handed over by the identity provider
type Profile struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

// SignIn creates or refreshes the user for a verified identity and stores
// the provider token (JSON) used later for calendar access.
func (s *Service) SignIn(ctx context.Context, p Profile, tokenJSON string, expiry *time.Time) (*models.User, error) {
	if p.ID == "" || p.Email == "" {
		return nil, apperr.InvalidInput("identity is missing id or email")
	}
	now := s.now()
	user := &models.User{
		ID:        p.ID,
		Email:     p.Email,
		Name:      p.Name,
		Picture:   p.Picture,
		CreatedAt: now,
		LastLogin: now,
	}
	err := s.store.InTx(ctx, func(r database.Repos) error {
		if err := r.Users.Upsert(ctx, user); err != nil {
			return err
		}
		if tokenJSON == "" {
			return nil
		}
		return r.Tokens.Save(ctx, user.ID, tokenJSON, expiry)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("user signed in", "user_id", user.ID)
	return s.GetUser(ctx, user.ID)
}

// GetUser returns a user by ID
func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}
	return user, nil
}

// UserByTelegramChat returns the user linked to a chat, or NotFound
func (s *Service) UserByTelegramChat(ctx context.Context, chatID int64) (*models.User, error) {
	user, err := s.store.Users.GetByTelegramChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("no account is linked to this chat")
	}
	return user, nil
}

// ReminderRecipients returns the users that want daily reminders
func (s *Service) ReminderRecipients(ctx context.Context) ([]models.User, error) {
	return s.store.Users.GetReminderRecipients(ctx)
}

// PreferencesInput changes reminder settings; nil fields stay as they are.
// A chat ID of 0 unlinks Telegram.
type PreferencesInput struct {
	RemindersEnabled *bool  `json:"reminders_enabled"`
	TelegramChatID   *int64 `json:"telegram_chat_id"`
}

// UpdatePreferences applies reminder settings for a user
func (s *Service) UpdatePreferences(ctx context.Context, userID string, in PreferencesInput) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.RemindersEnabled != nil {
		user.RemindersEnabled = *in.RemindersEnabled
	}
	if in.TelegramChatID != nil {
		if *in.TelegramChatID == 0 {
			user.TelegramChatID = nil
		} else {
			chat := *in.TelegramChatID
			user.TelegramChatID = &chat
		}
	}
	err = s.store.Users.UpdatePreferences(ctx, userID, user.TelegramChatID, user.RemindersEnabled)
	if database.IsUniqueViolation(err) {
		return nil, apperr.InvalidInput("this Telegram chat is already linked to another account")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Stats is the analytics summary of a user
type Stats struct {
	TotalTopics       int                   `json:"total_topics"`
	TotalExplains     int                   `json:"total_explains"`
	AverageConfidence float64               `json:"average_confidence"`
	RecentTopics      []models.Topic        `json:"recent_topics"`
	Analytics         *models.UserAnalytics `json:"analytics"`
}

const recentTopicsMax = 5

// Stats returns the counters and recent activity of a user
func (s *Service) Stats(ctx context.Context, userID string) (*Stats, error) {
	totalTopics, err := s.store.Topics.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary, err := s.store.Sessions.SummaryByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.store.Topics.GetRecentByUserID(ctx, userID, recentTopicsMax)
	if err != nil {
		return nil, err
	}
	analytics, err := s.store.Analytics.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Stats{
		TotalTopics:       totalTopics,
		TotalExplains:     summary.TotalExplains,
		AverageConfidence: math.Round(summary.MeanConfidence*10) / 10,
		RecentTopics:      recent,
		Analytics:         analytics,
	}, nil
}

// FeedbackInput is the payload of the feedback form
type FeedbackInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

var feedbackTypes = map[string]bool{"feature": true, "bug": true, "improvement": true, "other": true}

// SubmitFeedback stores a feedback message and forwards it by email.
// userID is nil for anonymous visitors.
func (s *Service) SubmitFeedback(ctx context.Context, userID *string, in FeedbackInput) (*models.Feedback, error) {
	message := s.clean(in.Message)
	if message == "" {
		return nil, apperr.InvalidInput("message is required")
	}
	name := s.clean(in.Name)
	if name == "" {
		name = "Anonymous"
	}
	email := s.clean(in.Email)
	if email == "" {
		email = "not provided"
	}
	kind := strings.ToLower(s.clean(in.Type))
	if !feedbackTypes[kind] {
		kind = "other"
	}

	fb := &models.Feedback{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Type:      kind,
		Message:   message,
		UserID:    userID,
		CreatedAt: s.now(),
	}
	if err := s.store.Feedback.Create(ctx, fb); err != nil {
		return nil, err
	}

	if s.feedback != nil && s.feedbackTo != "" {
		s.bestEffort("feedback email", s.feedback.NotifyFeedback(ctx, s.feedbackTo, *fb), "feedback_id", fb.ID)
	}
	return fb, nil
}
