package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// StateStore holds OAuth anti-forgery states. A state can be consumed once
// and only before its TTL runs out.
type StateStore interface {
	Put(ctx context.Context, state string, ttl time.Duration) error
	Consume(ctx context.Context, state string) (bool, error)
}

// NewState returns a fresh random state value
func NewState() string {
	return uuid.NewString()
}

// MemoryStateStore keeps states in process memory. It is only correct for a
// single server instance.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
	now    func() time.Time
}

// NewMemoryStateStore creates an empty in-memory store
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]time.Time), now: time.Now}
}

// Put implements StateStore
func (s *MemoryStateStore) Put(_ context.Context, state string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	// Drop expired entries so abandoned logins don't accumulate.
	for k, exp := range s.states {
		if !now.Before(exp) {
			delete(s.states, k)
		}
	}
	s.states[state] = now.Add(ttl)
	return nil
}

// Consume implements StateStore
func (s *MemoryStateStore) Consume(_ context.Context, state string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.states[state]
	if !ok {
		return false, nil
	}
	delete(s.states, state)
	return s.now().Before(exp), nil
}

const stateKeyPrefix = "oauth_state:"

// RedisStateStore keeps states in Redis so every server instance sees them
type RedisStateStore struct {
	rdb *goredis.Client
}

// NewRedisStateStore connects to Redis and checks the connection
func NewRedisStateStore(ctx context.Context, addr string) (*RedisStateStore, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStateStore{rdb: rdb}, nil
}

// Put implements StateStore
func (s *RedisStateStore) Put(ctx context.Context, state string, ttl time.Duration) error {
	ok, err := s.rdb.SetNX(ctx, stateKeyPrefix+state, 1, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis set state: %w", err)
	}
	if !ok {
		return fmt.Errorf("state already exists")
	}
	return nil
}

// Consume implements StateStore. GETDEL makes the read and the delete one
// atomic step.
func (s *RedisStateStore) Consume(ctx context.Context, state string) (bool, error) {
	err := s.rdb.GetDel(ctx, stateKeyPrefix+state).Err()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis consume state: %w", err)
	}
	return true, nil
}

// Close closes the Redis client
func (s *RedisStateStore) Close() error {
	return s.rdb.Close()
}
