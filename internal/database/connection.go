package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Connect opens the database and makes sure the schema exists.
// driver is "sqlite3" or "postgres".
func Connect(driver, dsn string) (*sqlx.DB, error) {
	if driver == "sqlite3" && !strings.Contains(dsn, ":memory:") {
		// Create data directory if it doesn't exist
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite3" {
		// SQLite doesn't support multiple writers; one connection also keeps
		// an in-memory database alive and serialises schedule upserts.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

var schema = []struct {
	name string
	ddl  string
}{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			picture TEXT NOT NULL DEFAULT '',
			telegram_chat_id BIGINT UNIQUE,
			reminders_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			last_login TIMESTAMP NOT NULL
		)`},
	{"oauth_tokens", `
		CREATE TABLE IF NOT EXISTS oauth_tokens (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
			token_data TEXT NOT NULL,
			expires_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`},
	{"topics", `
		CREATE TABLE IF NOT EXISTS topics (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			subject TEXT,
			description TEXT,
			total_explains INTEGER NOT NULL DEFAULT 0,
			avg_confidence INTEGER NOT NULL DEFAULT 0,
			last_explained TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`},
	{"topics_user_index", `CREATE INDEX IF NOT EXISTS idx_topics_user ON topics (user_id, created_at)`},
	{"explain_sessions", `
		CREATE TABLE IF NOT EXISTS explain_sessions (
			id TEXT PRIMARY KEY,
			topic_id TEXT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			duration_seconds INTEGER NOT NULL DEFAULT 0,
			struggles TEXT,
			forgot TEXT,
			unclear TEXT,
			confidence INTEGER CHECK (confidence BETWEEN 1 AND 5),
			created_at TIMESTAMP NOT NULL
		)`},
	{"explain_sessions_topic_index", `CREATE INDEX IF NOT EXISTS idx_explain_sessions_topic ON explain_sessions (topic_id, created_at)`},
	// UNIQUE(user_id, topic_id) is what keeps one schedule per topic under
	// concurrent upserts; detached schedules (NULL topic_id) are not constrained.
	{"schedules", `
		CREATE TABLE IF NOT EXISTS schedules (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			topic_id TEXT REFERENCES topics(id) ON DELETE CASCADE,
			topic TEXT NOT NULL,
			next_review_at TIMESTAMP NOT NULL,
			intervals TEXT NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (user_id, topic_id)
		)`},
	{"user_analytics", `
		CREATE TABLE IF NOT EXISTS user_analytics (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
			total_sessions INTEGER NOT NULL DEFAULT 0,
			last_active TIMESTAMP,
			total_schedules_created INTEGER NOT NULL DEFAULT 0,
			total_events_created INTEGER NOT NULL DEFAULT 0,
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`},
	{"feedback", `
		CREATE TABLE IF NOT EXISTS feedback (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			type TEXT NOT NULL,
			message TEXT NOT NULL,
			user_id TEXT,
			created_at TIMESTAMP NOT NULL
		)`},
}

// InitSchema creates the tables if they don't exist
func InitSchema(db *sqlx.DB) error {
	for _, s := range schema {
		if _, err := db.Exec(s.ddl); err != nil {
			return fmt.Errorf("failed to create %s: %w", s.name, err)
		}
	}
	return nil
}

// Repos groups the repositories bound to one connection or transaction
type Repos struct {
	Users     *UserRepository
	Tokens    *TokenRepository
	Topics    *TopicRepository
	Sessions  *SessionRepository
	Schedules *ScheduleRepository
	Analytics *AnalyticsRepository
	Feedback  *FeedbackRepository
}

func newRepos(q sqlx.ExtContext) Repos {
	return Repos{
		Users:     NewUserRepository(q),
		Tokens:    NewTokenRepository(q),
		Topics:    NewTopicRepository(q),
		Sessions:  NewSessionRepository(q),
		Schedules: NewScheduleRepository(q),
		Analytics: NewAnalyticsRepository(q),
		Feedback:  NewFeedbackRepository(q),
	}
}

// Store gives access to the repositories and to transactions
type Store struct {
	Repos
	db *sqlx.DB
}

// NewStore wraps an open connection
func NewStore(db *sqlx.DB) *Store {
	return &Store{Repos: newRepos(db), db: db}
}

// DB returns the underlying connection
func (s *Store) DB() *sqlx.DB { return s.db }

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InTx runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(r Repos) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	if err := fn(newRepos(tx)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a unique constraint failure on
// either supported driver.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
