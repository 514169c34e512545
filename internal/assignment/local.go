package assignment

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"progress-sync/internal/domain"
)

// assignmentsFileName matches the web client's storage key.
const assignmentsFileName = "huddle_course_assignments_v1.json"

// LocalRepository is the offline half of the assignment store: a JSON file
// of assignment records, used whenever the backend is unreachable and
// drained back to it by the reconciler.
type LocalRepository struct {
	mu   sync.Mutex
	path string
	log  *zap.Logger
}

func NewLocalRepository(stateDir string, log *zap.Logger) *LocalRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &LocalRepository{
		path: filepath.Join(stateDir, assignmentsFileName),
		log:  log,
	}
}

// Upsert inserts or replaces one record per (courseID, userID) pair.
// Records keep their original id and createdAt across upserts.
func (r *LocalRepository) Upsert(recs []domain.CourseAssignment) []domain.CourseAssignment {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.readAll()
	now := time.Now()
	out := make([]domain.CourseAssignment, 0, len(recs))

	for _, rec := range recs {
		rec.UserID = domain.NormalizeUserID(rec.UserID)
		if rec.CourseID == "" || rec.UserID == "" {
			continue
		}

		idx := indexOf(all, rec.CourseID, rec.UserID)
		if idx >= 0 {
			rec.ID = all[idx].ID
			rec.CreatedAt = all[idx].CreatedAt
			rec.UpdatedAt = now
			all[idx] = rec
		} else {
			if rec.ID == "" {
				rec.ID = uuid.New().String()
			}
			if rec.CreatedAt.IsZero() {
				rec.CreatedAt = now
			}
			rec.UpdatedAt = now
			all = append(all, rec)
		}
		out = append(out, rec)
	}

	r.writeAll(all)
	return out
}

// ForUser returns the stored assignments for one normalized user id.
func (r *LocalRepository) ForUser(userID string) []domain.CourseAssignment {
	userID = domain.NormalizeUserID(userID)
	if userID == "" {
		return []domain.CourseAssignment{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.CourseAssignment
	for _, rec := range r.readAll() {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out
}

// Get is the point lookup by (courseID, userID). Nil means not assigned.
func (r *LocalRepository) Get(courseID, userID string) *domain.CourseAssignment {
	userID = domain.NormalizeUserID(userID)
	if courseID == "" || userID == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.readAll()
	if idx := indexOf(all, courseID, userID); idx >= 0 {
		rec := all[idx]
		return &rec
	}
	return nil
}

// SetProgress applies an already-clamped progress value and derived status
// to the stored record. Nil means no such assignment exists locally.
func (r *LocalRepository) SetProgress(courseID, userID string, progress int, status domain.AssignmentStatus) *domain.CourseAssignment {
	userID = domain.NormalizeUserID(userID)
	if courseID == "" || userID == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.readAll()
	idx := indexOf(all, courseID, userID)
	if idx < 0 {
		return nil
	}

	all[idx].Progress = progress
	all[idx].Status = status
	all[idx].UpdatedAt = time.Now()
	r.writeAll(all)

	rec := all[idx]
	return &rec
}

// Pending returns every stored record, oldest first. The reconciler pushes
// these to the backend when it comes back.
func (r *LocalRepository) Pending() []domain.CourseAssignment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readAll()
}

// Clear wipes the local file after a successful push.
func (r *LocalRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		r.log.Warn("assignment store: clear failed", zap.String("path", r.path), zap.Error(err))
	}
}

// readAll loads and sanitizes the stored records. Records missing a course
// or user id are dropped and the cleaned set is written back, so one bad
// row never poisons the file forever.
func (r *LocalRepository) readAll() []domain.CourseAssignment {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.log.Warn("assignment store: read failed", zap.String("path", r.path), zap.Error(err))
		}
		return nil
	}

	var all []domain.CourseAssignment
	if err := json.Unmarshal(data, &all); err != nil {
		r.log.Warn("assignment store: corrupt file, starting fresh",
			zap.String("path", r.path), zap.Error(err))
		return nil
	}

	clean := all[:0]
	dropped := 0
	for _, rec := range all {
		rec.UserID = domain.NormalizeUserID(rec.UserID)
		if rec.CourseID == "" || rec.UserID == "" {
			dropped++
			continue
		}
		clean = append(clean, rec)
	}
	if dropped > 0 {
		r.log.Warn("assignment store: dropped malformed records", zap.Int("count", dropped))
		r.writeAll(clean)
	}
	return clean
}

func (r *LocalRepository) writeAll(all []domain.CourseAssignment) {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		r.log.Warn("assignment store: marshal failed", zap.Error(err))
		return
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		r.log.Warn("assignment store: mkdir failed", zap.Error(err))
		return
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		r.log.Warn("assignment store: write failed", zap.String("path", r.path), zap.Error(err))
	}
}

func indexOf(all []domain.CourseAssignment, courseID, userID string) int {
	for i, rec := range all {
		if rec.CourseID == courseID && rec.UserID == userID {
			return i
		}
	}
	return -1
}
