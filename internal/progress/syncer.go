package progress

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"progress-sync/internal/concurrency"
	"progress-sync/internal/domain"
	"progress-sync/internal/providers/huddle"
)

// LessonProgressFetcher is the remote read half of the bridge.
type LessonProgressFetcher interface {
	Enabled() bool
	FetchLessonProgress(ctx context.Context, userID, courseID string, lessonIDs []string) ([]huddle.LessonProgressRow, error)
}

// SyncRequest identifies one course's progress for one learner.
type SyncRequest struct {
	CourseSlug string
	CourseID   string
	UserID     string
	LessonIDs  []string
}

// SyncerOptions tunes the bridge. Zero values take the production defaults.
type SyncerOptions struct {
	CacheTTL      time.Duration // default 45s
	BatchSize     int           // default 25 lesson ids per request
	ChunkDelay    time.Duration // default 50ms between chunks
	MaxConcurrent int           // default 2 simultaneous syncs
}

func (o SyncerOptions) withDefaults() SyncerOptions {
	if o.CacheTTL <= 0 {
		o.CacheTTL = 45 * time.Second
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 25
	}
	if o.ChunkDelay <= 0 {
		o.ChunkDelay = 50 * time.Millisecond
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 2
	}
	return o
}

type cacheEntry struct {
	rec     domain.StoredCourseProgress
	expires time.Time
}

// Syncer is the remote progress bridge. One instance owns the result cache
// and the global concurrency limiter; construct it once at startup and
// share it.
type Syncer struct {
	fetcher LessonProgressFetcher
	store   *Store
	opts    SyncerOptions
	limiter *concurrency.Limiter
	log     *zap.Logger

	cache *syncCache

	// now is swappable for TTL tests.
	now func() time.Time
}

func NewSyncer(fetcher LessonProgressFetcher, store *Store, opts SyncerOptions, log *zap.Logger) *Syncer {
	if log == nil {
		log = zap.NewNop()
	}
	opts = opts.withDefaults()
	return &Syncer{
		fetcher: fetcher,
		store:   store,
		opts:    opts,
		limiter: concurrency.NewLimiter(opts.MaxConcurrent),
		log:     log,
		cache:   newSyncCache(),
		now:     time.Now,
	}
}

// SyncCourseProgress pulls the authoritative rows for one course, derives
// the local record, saves it, and returns it.
//
// A nil record with nil error means the call was a deliberate no-op: the
// remote integration is disabled, the course id is missing, or there are no
// lessons to ask about. That makes the bridge safe to call speculatively
// without guard logic at every call site.
func (s *Syncer) SyncCourseProgress(ctx context.Context, req SyncRequest) (*domain.StoredCourseProgress, error) {
	if s.fetcher == nil || !s.fetcher.Enabled() || req.CourseID == "" || len(req.LessonIDs) == 0 {
		return nil, nil
	}

	key := req.UserID + ":" + req.CourseID
	if rec, ok := s.cache.get(key, s.now()); ok {
		return &rec, nil
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	// A queued duplicate may find the answer already cached by the call
	// that held the slot before us.
	if rec, ok := s.cache.get(key, s.now()); ok {
		return &rec, nil
	}

	rows, err := s.fetchChunked(ctx, req)
	if err != nil {
		return nil, err
	}

	rec := DeriveStoredProgress(rows, req.LessonIDs)
	s.cache.put(key, rec, s.now().Add(s.opts.CacheTTL))

	if s.store != nil && req.CourseSlug != "" {
		// Remote is authoritative: overwrite the local record.
		s.store.Save(req.CourseSlug, rec)
	}

	s.log.Debug("course progress synced",
		zap.String("courseId", req.CourseID),
		zap.String("userId", req.UserID),
		zap.Int("rows", len(rows)),
		zap.Int("completed", len(rec.CompletedLessonIDs)))

	return &rec, nil
}

// Invalidate drops a cached result, forcing the next sync to hit the
// backend.
func (s *Syncer) Invalidate(userID, courseID string) {
	s.cache.drop(userID + ":" + courseID)
}

// fetchChunked splits long lesson lists into sequential requests with a
// small delay between chunks so a big course does not burst the backend.
func (s *Syncer) fetchChunked(ctx context.Context, req SyncRequest) ([]huddle.LessonProgressRow, error) {
	var all []huddle.LessonProgressRow

	for start := 0; start < len(req.LessonIDs); start += s.opts.BatchSize {
		if start > 0 {
			if err := sleepCtx(ctx, s.opts.ChunkDelay); err != nil {
				return nil, err
			}
		}

		end := start + s.opts.BatchSize
		if end > len(req.LessonIDs) {
			end = len(req.LessonIDs)
		}

		rows, err := s.fetcher.FetchLessonProgress(ctx, req.UserID, req.CourseID, req.LessonIDs[start:end])
		if err != nil {
			return nil, fmt.Errorf("progress sync chunk %d-%d: %w", start, end, err)
		}
		all = append(all, rows...)
	}

	return all, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
