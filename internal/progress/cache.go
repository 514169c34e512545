package progress

import (
	"sync"
	"time"

	"progress-sync/internal/domain"
)

// syncCache caches sync results per user:course key. Entries expire lazily
// on the next read; there is no background eviction.
type syncCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

func newSyncCache() *syncCache {
	return &syncCache{entries: map[string]cacheEntry{}}
}

func (c *syncCache) get(key string, now time.Time) (domain.StoredCourseProgress, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.StoredCourseProgress{}, false
	}
	if now.After(e.expires) {
		delete(c.entries, key)
		return domain.StoredCourseProgress{}, false
	}
	return copyRecord(e.rec), true
}

func (c *syncCache) put(key string, rec domain.StoredCourseProgress, expires time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{rec: copyRecord(rec), expires: expires}
}

func (c *syncCache) drop(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// copyRecord deep-copies a record so cached state never aliases caller
// mutations.
func copyRecord(rec domain.StoredCourseProgress) domain.StoredCourseProgress {
	out := domain.StoredCourseProgress{
		CompletedLessonIDs: make([]string, len(rec.CompletedLessonIDs)),
		LessonProgress:     make(map[string]int, len(rec.LessonProgress)),
		LessonPositions:    make(map[string]int, len(rec.LessonPositions)),
		LastLessonID:       rec.LastLessonID,
	}
	copy(out.CompletedLessonIDs, rec.CompletedLessonIDs)
	for k, v := range rec.LessonProgress {
		out.LessonProgress[k] = v
	}
	for k, v := range rec.LessonPositions {
		out.LessonPositions[k] = v
	}
	return out
}
