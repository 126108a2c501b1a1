package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ScratchStore is best-effort ephemeral storage. Implementations never
// surface errors to callers: a failed read degrades to "absent", a
// failed write is dropped with a log line. Losing an entry only costs
// the student some re-watching; it must never break lesson loading.
type ScratchStore interface {
	GetItem(ctx context.Context, key string) (string, bool)
	SetItem(ctx context.Context, key, value string)
	RemoveItem(ctx context.Context, key string)
}

type redisScratchStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisScratchStore returns a ScratchStore over Redis with the given
// retention for entries.
func NewRedisScratchStore(client *redis.Client, ttl time.Duration) ScratchStore {
	return &redisScratchStore{client: client, ttl: ttl}
}

func (s *redisScratchStore) GetItem(ctx context.Context, key string) (string, bool) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("scratch store: read %s failed: %v", key, err)
		}
		return "", false
	}
	return val, true
}

func (s *redisScratchStore) SetItem(ctx context.Context, key, value string) {
	if err := s.client.Set(ctx, key, value, s.ttl).Err(); err != nil {
		log.Printf("scratch store: write %s failed: %v", key, err)
	}
}

func (s *redisScratchStore) RemoveItem(ctx context.Context, key string) {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		log.Printf("scratch store: remove %s failed: %v", key, err)
	}
}

// WatchCache keeps the durable per (user, course, lesson) counter of
// accumulated watched seconds, so tracker state survives reloads. It is
// a UX aid only: the enrollment ledger does not depend on it for
// correctness.
type WatchCache struct {
	store ScratchStore
}

func NewWatchCache(store ScratchStore) *WatchCache {
	return &WatchCache{store: store}
}

func watchKey(userID, courseID, lessonID uuid.UUID) string {
	return fmt.Sprintf("watch:%s:%s:%s", userID, courseID, lessonID)
}

// Save overwrites the cached value. Last write wins; within one session
// every writer converges to the same monotonically increasing counter.
func (c *WatchCache) Save(ctx context.Context, userID, courseID, lessonID uuid.UUID, seconds float64) {
	c.store.SetItem(ctx, watchKey(userID, courseID, lessonID), strconv.FormatFloat(seconds, 'f', -1, 64))
}

// Load returns the cached watched seconds, or 0 when absent or
// unparsable.
func (c *WatchCache) Load(ctx context.Context, userID, courseID, lessonID uuid.UUID) float64 {
	raw, ok := c.store.GetItem(ctx, watchKey(userID, courseID, lessonID))
	if !ok {
		return 0
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return seconds
}

// Clear removes the entry, done when a lesson completion is recorded.
func (c *WatchCache) Clear(ctx context.Context, userID, courseID, lessonID uuid.UUID) {
	c.store.RemoveItem(ctx, watchKey(userID, courseID, lessonID))
}
