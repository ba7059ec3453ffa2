package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ls1intum/tum-apply-sub002/internal/scheduler"
)

func TestAnnotationCacheStoresAndReturnsCopies(t *testing.T) {
	current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	cache := newAnnotationCache(time.Minute, 4, func() time.Time { return current })
	key := scheduler.SlotKey{RangeID: "r1", Index: 0}

	original := map[scheduler.SlotKey]scheduler.Annotation{key: {Kind: scheduler.ConflictBatchInternal, DisplayTime: "10:00 - 10:30"}}
	cache.Store(annotationCacheKey("session-1", 1), original)

	// Mutating the original map should not affect the cached copy.
	original[key] = scheduler.Annotation{Kind: scheduler.ConflictBookedElsewhere}

	cached, ok := cache.Get(annotationCacheKey("session-1", 1))
	require.True(t, ok)
	assert.Equal(t, scheduler.ConflictBatchInternal, cached[key].Kind)

	cached[key] = scheduler.Annotation{Kind: scheduler.ConflictSameProcessBooked}
	again, ok := cache.Get(annotationCacheKey("session-1", 1))
	require.True(t, ok)
	assert.Equal(t, scheduler.ConflictBatchInternal, again[key].Kind)

	_, ok = cache.Get(annotationCacheKey("session-1", 2))
	assert.False(t, ok, "other revisions must miss")
}

func TestAnnotationCacheExpiresEntries(t *testing.T) {
	current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	cache := newAnnotationCache(time.Second, 4, func() time.Time { return current })

	cache.Store("key", nil)
	_, ok := cache.Get("key")
	require.True(t, ok)

	current = current.Add(2 * time.Second)
	_, ok = cache.Get("key")
	assert.False(t, ok)
}

func TestAnnotationCacheForgetDropsSessionRevisions(t *testing.T) {
	cache := newAnnotationCache(time.Minute, 8, time.Now)
	cache.Store(annotationCacheKey("s1", 1), nil)
	cache.Store(annotationCacheKey("s1", 2), nil)
	cache.Store(annotationCacheKey("s10", 1), nil)

	cache.Forget("s1")

	_, ok := cache.Get(annotationCacheKey("s1", 1))
	assert.False(t, ok)
	_, ok = cache.Get(annotationCacheKey("s1", 2))
	assert.False(t, ok)
	_, ok = cache.Get(annotationCacheKey("s10", 1))
	assert.True(t, ok)
}
