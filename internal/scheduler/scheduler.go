// Package scheduler runs the daily review digest job
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"golang.org/x/sync/errgroup"

	"github.com/example/studycore/internal/logger"
	"github.com/example/studycore/internal/notify"
	"github.com/example/studycore/internal/spaced_repetition"
	"github.com/example/studycore/pkg/models"
)

// Default settings for the digest job
const (
	DefaultReminderHour = 9
	DefaultConcurrency  = 4
	DefaultJobTimeout   = 5 * time.Minute
)

// Source provides the recipients of the digest and their due sets
type Source interface {
	ReminderRecipients(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	ResolveDueAt(ctx context.Context, userID string, asOf time.Time) (spaced_repetition.DueSet, error)
}

// Config configures the digest job
type Config struct {
	Hour        int
	Location    *time.Location
	Concurrency int
	Timeout     time.Duration
	Now         func() time.Time
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	cron     *gocron.Scheduler
	source   Source
	notifier notify.Notifier
	cfg      Config
	log      *logger.Logger
	ctx      context.Context
}

// New creates a new scheduler instance
func New(source Source, notifier notify.Notifier, cfg Config, log *logger.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultJobTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Scheduler{
		cron:     gocron.NewScheduler(cfg.Location),
		source:   source,
		notifier: notifier,
		cfg:      cfg,
		log:      log.With("component", "scheduler"),
		ctx:      context.Background(),
	}
}

// Start registers the daily digest and runs the scheduler in the background.
// Jobs stop receiving a live context once ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Hour < 0 || s.cfg.Hour > 23 {
		return fmt.Errorf("reminder hour must be within 0-23, got %d", s.cfg.Hour)
	}
	s.ctx = ctx
	s.cron.SingletonModeAll()
	_, err := s.cron.Every(1).Day().At(fmt.Sprintf("%02d:00", s.cfg.Hour)).Do(s.runDigest)
	if err != nil {
		return fmt.Errorf("failed to schedule digest job: %w", err)
	}
	s.cron.StartAsync()
	s.log.Info("reminder scheduler started", "hour", s.cfg.Hour, "location", s.cfg.Location.String())
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) runDigest() {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.Timeout)
	defer cancel()
	sent, err := s.SendDigests(ctx)
	if err != nil {
		s.log.Error("digest job failed", "error", err)
		return
	}
	s.log.Info("digest job finished", "sent", sent)
}

// SendDigests notifies every reminder recipient that has something due and
// returns how many digests went out. A failure for one user is logged and
// does not stop the others.
func (s *Scheduler) SendDigests(ctx context.Context) (int, error) {
	users, err := s.source.ReminderRecipients(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get reminder recipients: %w", err)
	}

	now := s.cfg.Now()
	var sent int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, user := range users {
		user := user
		g.Go(func() error {
			ok, err := s.notifyUser(gctx, user, now)
			if err != nil {
				s.log.Warn("digest not delivered", "user_id", user.ID, "error", err)
				return nil
			}
			if ok {
				atomic.AddInt64(&sent, 1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(sent), err
	}
	return int(sent), ctx.Err()
}

// RunManualCheck sends the digest to one user right away
func (s *Scheduler) RunManualCheck(ctx context.Context, userID string) (bool, error) {
	user, err := s.source.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return s.notifyUser(ctx, *user, s.cfg.Now())
}

func (s *Scheduler) notifyUser(ctx context.Context, user models.User, now time.Time) (bool, error) {
	due, err := s.source.ResolveDueAt(ctx, user.ID, now)
	if err != nil {
		return false, fmt.Errorf("failed to resolve due set: %w", err)
	}
	if !notify.HasContent(due) {
		return false, nil
	}
	if err := s.notifier.NotifyDue(ctx, user, due); err != nil {
		return false, err
	}
	return true, nil
}
