package statuscache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/examconduct/internal/app/models"
	"github.com/yigit/examconduct/internal/pkg/redis"
)

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(redis.Config{Addr: mr.Addr()}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, time.Hour), mr
}

func exerciseCaches(t *testing.T, cache Cache) {
	ctx := context.Background()
	start := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

	got, err := cache.Get(ctx, 11)
	require.NoError(t, err)
	assert.Nil(t, got, "unknown exam has no snapshot")

	status := models.ExamExerciseStartPreparationStatus{Finished: 3, Failed: 1, Overall: 10, ParticipationCount: 9, Queued: 2, StartTime: start}
	require.NoError(t, cache.Put(ctx, 11, status))

	got, err = cache.Get(ctx, 11)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.Finished)
	assert.Equal(t, 9, got.ParticipationCount)
	assert.True(t, got.StartTime.Equal(start))

	other, err := cache.Get(ctx, 12)
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, cache.Evict(ctx, 11))
	got, err = cache.Get(ctx, 11)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryCache(t *testing.T) {
	exerciseCaches(t, NewMemoryCache(time.Hour))
}

func TestMemoryCache_DropsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	cache := NewMemoryCache(time.Hour)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Put(ctx, 1, models.ExamExerciseStartPreparationStatus{Overall: 4}))
	require.NoError(t, cache.Put(ctx, 2, models.ExamExerciseStartPreparationStatus{Overall: 6}))

	now = now.Add(59 * time.Minute)
	got, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 4, got.Overall)

	now = now.Add(time.Minute)
	got, err = cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NotContains(t, cache.entries, int64(1))

	require.NoError(t, cache.Put(ctx, 3, models.ExamExerciseStartPreparationStatus{Overall: 1}))
	assert.NotContains(t, cache.entries, int64(2), "a put sweeps other expired entries")
	assert.Len(t, cache.entries, 1)
}

func TestMemoryCache_PutRefreshesExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	cache := NewMemoryCache(time.Hour)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Put(ctx, 1, models.ExamExerciseStartPreparationStatus{Finished: 1}))
	now = now.Add(50 * time.Minute)
	require.NoError(t, cache.Put(ctx, 1, models.ExamExerciseStartPreparationStatus{Finished: 2}))
	now = now.Add(50 * time.Minute)

	got, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Finished)
}

func TestRedisCache(t *testing.T) {
	cache, _ := newRedisCache(t)
	exerciseCaches(t, cache)
}

func TestRedisCache_UsesExamKeyAndTTL(t *testing.T) {
	cache, mr := newRedisCache(t)
	require.NoError(t, cache.Put(context.Background(), 5, models.ExamExerciseStartPreparationStatus{Overall: 1}))

	assert.True(t, mr.Exists("exam:exercise-start-status:5"))
	assert.Equal(t, time.Hour, mr.TTL("exam:exercise-start-status:5"))

	mr.FastForward(2 * time.Hour)
	got, err := cache.Get(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, got)
}
