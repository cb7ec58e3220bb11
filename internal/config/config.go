package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/studycore/internal/spaced_repetition"
	"github.com/example/studycore/pkg/models"
)

// Config holds the application settings
type Config struct {
	Env      string
	HTTPAddr string
	AppURL   string

	DatabaseDriver string
	DatabaseURL    string

	SecretKey      string
	AccessTokenTTL time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	// Empty RedisAddr keeps OAuth state in process memory
	RedisAddr     string
	OAuthStateTTL time.Duration

	// Used by direct schedule creation when the caller gives no intervals
	DefaultIntervals models.IntervalSet
	Location         *time.Location

	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	FeedbackEmailTo   string

	TelegramBotToken string

	SchedulerEnabled    bool
	ReminderHour        int
	CalendarSyncEnabled bool

	CORSAllowedOrigins []string
}

// Default returns the development configuration
func Default() *Config {
	return &Config{
		Env:              "development",
		HTTPAddr:         ":8000",
		AppURL:           "/",
		DatabaseDriver:   "sqlite3",
		DatabaseURL:      "data/studycore.db",
		AccessTokenTTL:   24 * time.Hour,
		OAuthStateTTL:    10 * time.Minute,
		DefaultIntervals: models.IntervalSet{1, 3, 7, 21},
		Location:         time.UTC,
		SchedulerEnabled: true,
		ReminderHour:     9,
	}
}

// IsProduction reports whether the app runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}

// Load reads .env (if present) and the process environment on top of Default
func Load() (*Config, error) {
	// a missing .env file is fine, the environment may already be set
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := Default()
	e := env{get: getenv}

	cfg.Env = e.str("APP_ENV", cfg.Env)
	cfg.HTTPAddr = e.str("HTTP_ADDR", cfg.HTTPAddr)
	cfg.AppURL = e.str("APP_URL", cfg.AppURL)
	cfg.DatabaseDriver = e.str("DATABASE_DRIVER", cfg.DatabaseDriver)
	cfg.DatabaseURL = e.str("DATABASE_URL", cfg.DatabaseURL)
	cfg.SecretKey = e.str("SECRET_KEY", "")
	cfg.AccessTokenTTL = e.duration("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL)
	cfg.GoogleClientID = e.str("GOOGLE_CLIENT_ID", "")
	cfg.GoogleClientSecret = e.str("GOOGLE_CLIENT_SECRET", "")
	cfg.GoogleRedirectURI = e.str("GOOGLE_REDIRECT_URI", "")
	cfg.RedisAddr = e.str("REDIS_ADDR", "")
	cfg.OAuthStateTTL = e.duration("OAUTH_STATE_TTL", cfg.OAuthStateTTL)
	cfg.SendGridAPIKey = e.str("SENDGRID_API_KEY", "")
	cfg.SendGridFromEmail = e.str("SENDGRID_FROM_EMAIL", "")
	cfg.SendGridFromName = e.str("SENDGRID_FROM_NAME", "StudyCore")
	cfg.FeedbackEmailTo = e.str("FEEDBACK_EMAIL_TO", "")
	cfg.TelegramBotToken = e.str("TELEGRAM_BOT_TOKEN", "")
	cfg.SchedulerEnabled = e.boolean("ENABLE_SCHEDULER", cfg.SchedulerEnabled)
	cfg.ReminderHour = e.integer("REMINDER_HOUR", cfg.ReminderHour)
	cfg.CalendarSyncEnabled = e.boolean("CALENDAR_SYNC_ENABLED", false)

	if origins := e.str("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	if raw := e.str("DEFAULT_INTERVALS", ""); raw != "" {
		intervals, err := spaced_repetition.ParseIntervals(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid DEFAULT_INTERVALS: %w", err)
		}
		cfg.DefaultIntervals = intervals
	}

	if tz := e.str("TIMEZONE", ""); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
		}
		cfg.Location = loc
	}

	if cfg.ReminderHour < 0 || cfg.ReminderHour > 23 {
		return nil, fmt.Errorf("REMINDER_HOUR must be within 0-23, got %d", cfg.ReminderHour)
	}
	switch cfg.DatabaseDriver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if cfg.SecretKey == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("SECRET_KEY environment variable is not set")
		}
		cfg.SecretKey = "development-secret"
	}

	return cfg, nil
}

type env struct {
	get func(string) string
}

func (e env) str(name, def string) string {
	if v := strings.TrimSpace(e.get(name)); v != "" {
		return v
	}
	return def
}

func (e env) integer(name string, def int) int {
	v := strings.TrimSpace(e.get(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func (e env) boolean(name string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(e.get(name))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func (e env) duration(name string, def time.Duration) time.Duration {
	v := strings.TrimSpace(e.get(name))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
