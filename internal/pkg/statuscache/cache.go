// Package statuscache stores the latest exercise start progress snapshot per exam so that
// clients reconnecting in the middle of a bulk start can catch up.
package statuscache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yigit/examconduct/internal/app/models"
	"github.com/yigit/examconduct/internal/pkg/redis"
)

// Cache is a keyed store of start status snapshots. Get returns nil without error for unknown exams.
type Cache interface {
	Get(ctx context.Context, examID int64) (*models.ExamExerciseStartPreparationStatus, error)
	Put(ctx context.Context, examID int64, status models.ExamExerciseStartPreparationStatus) error
	Evict(ctx context.Context, examID int64) error
}

// Key returns the Redis key of an exam's snapshot
func Key(examID int64) string {
	return fmt.Sprintf("exam:exercise-start-status:%d", examID)
}

// RedisCache keeps snapshots in Redis with a TTL
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a RedisCache
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, examID int64) (*models.ExamExerciseStartPreparationStatus, error) {
	var status models.ExamExerciseStartPreparationStatus
	err := c.client.GetJSON(ctx, Key(examID), &status)
	if errors.Is(err, redis.ErrNil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *RedisCache) Put(ctx context.Context, examID int64, status models.ExamExerciseStartPreparationStatus) error {
	return c.client.SetJSON(ctx, Key(examID), status, c.ttl)
}

func (c *RedisCache) Evict(ctx context.Context, examID int64) error {
	return c.client.Delete(ctx, Key(examID))
}

// MemoryCache keeps snapshots in process memory, used when no Redis is configured.
// Entries expire ttl after their last Put, matching RedisCache.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[int64]memoryEntry
}

type memoryEntry struct {
	status  models.ExamExerciseStartPreparationStatus
	expires time.Time
}

// NewMemoryCache creates an empty MemoryCache. A ttl of zero or less keeps entries until evicted.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, now: time.Now, entries: make(map[int64]memoryEntry)}
}

func (c *MemoryCache) expired(e memoryEntry, now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

func (c *MemoryCache) Get(_ context.Context, examID int64) (*models.ExamExerciseStartPreparationStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[examID]
	if !ok {
		return nil, nil
	}
	if c.expired(e, c.now()) {
		delete(c.entries, examID)
		return nil, nil
	}
	status := e.status
	return &status, nil
}

// Put stores the snapshot and drops any other entries that have expired
func (c *MemoryCache) Put(_ context.Context, examID int64, status models.ExamExerciseStartPreparationStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for id, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, id)
		}
	}
	e := memoryEntry{status: status}
	if c.ttl > 0 {
		e.expires = now.Add(c.ttl)
	}
	c.entries[examID] = e
	return nil
}

func (c *MemoryCache) Evict(_ context.Context, examID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, examID)
	return nil
}
