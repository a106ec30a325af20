package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/doodleleagues/whitelist_checker/internal/eligibility"
)

const sessionPrefix = "whitelist:session:v1:"

// ErrNotFound indicates no snapshot is stored for a session.
var ErrNotFound = errors.New("session not found")

// Store persists controller snapshots between requests and restarts.
type Store interface {
	Load(ctx context.Context, id string) (eligibility.Snapshot, error)
	Save(ctx context.Context, id string, snap eligibility.Snapshot) error
}

// RedisStore keeps snapshots as JSON with a sliding TTL.
type RedisStore struct {
	cache *redis.Client
	ttl   time.Duration
}

// NewRedisStore builds a Redis backed snapshot store.
func NewRedisStore(cache *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: cache, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, id string) (eligibility.Snapshot, error) {
	raw, err := s.cache.Get(ctx, sessionPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return eligibility.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return eligibility.Snapshot{}, fmt.Errorf("load session: %w", err)
	}
	var snap eligibility.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return eligibility.Snapshot{}, fmt.Errorf("decode session: %w", err)
	}
	return snap, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, snap eligibility.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.cache.Set(ctx, sessionPrefix+id, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	snaps map[string]memorySnapshot
	now   func() time.Time
}

type memorySnapshot struct {
	snap    eligibility.Snapshot
	expires time.Time
}

// NewMemoryStore builds an in-memory snapshot store. A zero ttl never expires.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, snaps: make(map[string]memorySnapshot), now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, id string) (eligibility.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.snaps[id]
	if !ok {
		return eligibility.Snapshot{}, ErrNotFound
	}
	if !entry.expires.IsZero() && s.now().After(entry.expires) {
		delete(s.snaps, id)
		return eligibility.Snapshot{}, ErrNotFound
	}
	return entry.snap, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, snap eligibility.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := memorySnapshot{snap: snap}
	if s.ttl > 0 {
		entry.expires = s.now().Add(s.ttl)
	}
	s.snaps[id] = entry
	return nil
}
