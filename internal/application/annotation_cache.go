package application

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ls1intum/tum-apply-sub002/internal/scheduler"
)

// annotationCache stores recently merged conflict annotations so repeated reads
// of an unchanged session revision skip the booking store round trip.
type annotationCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]annotationCacheEntry
}

type annotationCacheEntry struct {
	annotations map[scheduler.SlotKey]scheduler.Annotation
	expiresAt   time.Time
}

func newAnnotationCache(ttl time.Duration, maxEntries int, now func() time.Time) *annotationCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if now == nil {
		now = time.Now
	}
	return &annotationCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]annotationCacheEntry),
	}
}

func (c *annotationCache) Get(key string) (map[scheduler.SlotKey]scheduler.Annotation, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return cloneAnnotations(entry.annotations), true
}

func (c *annotationCache) Store(key string, annotations map[scheduler.SlotKey]scheduler.Annotation) {
	if c == nil {
		return
	}
	cloned := cloneAnnotations(annotations)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = annotationCacheEntry{annotations: cloned, expiresAt: expiry}
}

// Forget drops every cached revision of a session.
func (c *annotationCache) Forget(sessionID string) {
	if c == nil {
		return
	}
	prefix := sessionID + "@"
	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

func (c *annotationCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *annotationCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func cloneAnnotations(annotations map[scheduler.SlotKey]scheduler.Annotation) map[scheduler.SlotKey]scheduler.Annotation {
	out := make(map[scheduler.SlotKey]scheduler.Annotation, len(annotations))
	for key, annotation := range annotations {
		out[key] = annotation
	}
	return out
}

func annotationCacheKey(sessionID string, revision uint64) string {
	return sessionID + "@" + strconv.FormatUint(revision, 10)
}
