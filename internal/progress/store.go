package progress

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"progress-sync/internal/domain"
	"progress-sync/internal/providers/huddle"
)

// progressFileName matches the storage key the web client uses, so a state
// dump stays recognizable across tools.
const progressFileName = "lms_course_progress_v1.json"

// SnapshotPusher is the remote write half of the bridge: a best-effort
// batched push of one course's full progress state.
type SnapshotPusher interface {
	SyncProgressSnapshot(ctx context.Context, req huddle.SnapshotRequest) error
}

// SyncKeys carries the identifiers needed to mirror a local save to the
// backend. Zero value means "local-only save".
type SyncKeys struct {
	CourseID  string
	UserID    string
	LessonIDs []string
}

// Store is the local progress store: one JSON document mapping course slug
// to StoredCourseProgress. Loads fail soft, saves replace wholesale.
type Store struct {
	mu     sync.Mutex
	path   string
	log    *zap.Logger
	pusher SnapshotPusher

	// pending tracks detached snapshot pushes so CLIs can drain them
	// before exiting.
	pending sync.WaitGroup
}

// NewStore builds a store rooted at stateDir. pusher may be nil (local-only
// mode).
func NewStore(stateDir string, log *zap.Logger, pusher SnapshotPusher) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		path:   filepath.Join(stateDir, progressFileName),
		log:    log,
		pusher: pusher,
	}
}

// Load returns the stored record for the slug, or a zero-valued record when
// nothing is stored or the file is unreadable. It never fails.
func (s *Store) Load(slug string) domain.StoredCourseProgress {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.readAll()
	rec, ok := all[slug]
	if !ok {
		return domain.EmptyProgress()
	}
	return normalize(rec)
}

// Save replaces the stored record for the slug. No merging happens here;
// callers supply the full record.
func (s *Store) Save(slug string, rec domain.StoredCourseProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(slug, rec)
}

// SaveAndSync saves like Save, then fires a detached best-effort snapshot
// push when a pusher is configured. Push failures are logged, never
// surfaced: the local write already succeeded and the next full sync will
// converge.
func (s *Store) SaveAndSync(slug string, rec domain.StoredCourseProgress, keys SyncKeys) {
	s.Save(slug, rec)

	if s.pusher == nil || keys.CourseID == "" || keys.UserID == "" || len(keys.LessonIDs) == 0 {
		return
	}

	req := BuildSnapshot(keys.UserID, keys.CourseID, keys.LessonIDs, rec, time.Now())
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.pusher.SyncProgressSnapshot(ctx, req); err != nil {
			s.log.Warn("snapshot push failed",
				zap.String("courseId", keys.CourseID),
				zap.String("userId", keys.UserID),
				zap.Error(err))
		}
	}()
}

// Drain waits for in-flight snapshot pushes. CLIs call it before exit;
// long-lived callers never need to.
func (s *Store) Drain() {
	s.pending.Wait()
}

func (s *Store) saveLocked(slug string, rec domain.StoredCourseProgress) {
	all := s.readAll()
	all[slug] = normalize(rec)

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		s.log.Warn("progress store: marshal failed", zap.Error(err))
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.log.Warn("progress store: mkdir failed", zap.String("path", s.path), zap.Error(err))
		return
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.log.Warn("progress store: write failed", zap.String("path", s.path), zap.Error(err))
	}
}

// readAll loads the whole document. A missing file is normal; a corrupt one
// is logged and treated as empty so the next save self-heals it.
func (s *Store) readAll() map[string]domain.StoredCourseProgress {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("progress store: read failed", zap.String("path", s.path), zap.Error(err))
		}
		return map[string]domain.StoredCourseProgress{}
	}

	var all map[string]domain.StoredCourseProgress
	if err := json.Unmarshal(data, &all); err != nil {
		s.log.Warn("progress store: corrupt document, starting fresh",
			zap.String("path", s.path), zap.Error(err))
		return map[string]domain.StoredCourseProgress{}
	}
	if all == nil {
		all = map[string]domain.StoredCourseProgress{}
	}
	return all
}

// normalize guarantees non-nil slices/maps so callers can mutate results.
func normalize(rec domain.StoredCourseProgress) domain.StoredCourseProgress {
	if rec.CompletedLessonIDs == nil {
		rec.CompletedLessonIDs = []string{}
	}
	if rec.LessonProgress == nil {
		rec.LessonProgress = map[string]int{}
	}
	if rec.LessonPositions == nil {
		rec.LessonPositions = map[string]int{}
	}
	return rec
}

// BuildSnapshot assembles the batched remote write for one course. The
// lesson list drives ordering and the overall percent.
func BuildSnapshot(userID, courseID string, lessonIDs []string, rec domain.StoredCourseProgress, now time.Time) huddle.SnapshotRequest {
	lessons := make([]huddle.SnapshotLesson, 0, len(lessonIDs))
	completedCount := 0
	totalTime := 0

	for _, id := range lessonIDs {
		completed := rec.IsLessonCompleted(id)
		if completed {
			completedCount++
		}
		totalTime += rec.LessonPositions[id]
		lessons = append(lessons, huddle.SnapshotLesson{
			LessonID:        id,
			ProgressPercent: domain.ClampProgress(rec.LessonProgress[id]),
			Completed:       completed,
			PositionSeconds: rec.LessonPositions[id],
		})
	}

	overall := 0
	if len(lessonIDs) > 0 {
		overall = completedCount * 100 / len(lessonIDs)
	}

	req := huddle.SnapshotRequest{
		UserID:           userID,
		CourseID:         courseID,
		LessonIDs:        lessonIDs,
		Lessons:          lessons,
		OverallPercent:   overall,
		TotalTimeSeconds: totalTime,
		LastLessonID:     rec.LastLessonID,
	}
	if overall >= 100 {
		req.CompletedAt = now.UTC().Format(time.RFC3339)
	}
	return req
}
