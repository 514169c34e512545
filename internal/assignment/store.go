package assignment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"progress-sync/internal/domain"
	"progress-sync/internal/events"
	"progress-sync/internal/providers/huddle"
)

// remoteBackend is the strategy interface the facade tries first. The
// concrete implementation is RemoteRepository; tests swap in fakes.
type remoteBackend interface {
	Upsert(ctx context.Context, recs []domain.CourseAssignment) ([]domain.CourseAssignment, error)
	ForUser(ctx context.Context, userID string) ([]domain.CourseAssignment, error)
	Get(ctx context.Context, courseID, userID string) (*domain.CourseAssignment, error)
	SetProgress(ctx context.Context, courseID, userID string, progress int, status domain.AssignmentStatus) (*domain.CourseAssignment, error)
}

// restLister is the read-only REST fallback used before giving up and
// serving local data.
type restLister interface {
	ListAssignments(ctx context.Context, userID string) ([]huddle.AssignmentRow, error)
}

// AssignOptions carries the optional metadata of a bulk assign action.
type AssignOptions struct {
	DueDate    string
	Note       string
	AssignedBy string
}

// Store is the assignment facade. Every operation tries the remote path
// and degrades to the local path on failure; the two are never mixed
// within one call, and no operation surfaces transport errors to callers.
type Store struct {
	remote     remoteBackend
	rest       restLister
	local      *LocalRepository
	bus        *events.Bus
	log        *zap.Logger
	reconciler *Reconciler
}

// NewStore wires the facade. remote and rest may be nil (local-only mode);
// bus may be nil (no observers).
func NewStore(remote *RemoteRepository, rest *huddle.Client, local *LocalRepository, bus *events.Bus, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		local: local,
		bus:   bus,
		log:   log,
	}
	if remote != nil {
		s.remote = remote
	}
	if rest.Enabled() {
		s.rest = rest
	}
	if s.remote != nil {
		s.reconciler = NewReconciler(local, remote, log)
	}
	return s
}

// Reconciler exposes the store's local-to-remote reconciler so callers can
// wire it to connectivity signals. Nil in local-only mode.
func (s *Store) Reconciler() *Reconciler {
	return s.reconciler
}

// AddAssignments upserts one assignment per user for the course. User ids
// are normalized and deduplicated; blank ids are dropped. The result is
// whatever path succeeded, never an error.
func (s *Store) AddAssignments(ctx context.Context, courseID string, userIDs []string, opts AssignOptions) []domain.CourseAssignment {
	if courseID == "" {
		return []domain.CourseAssignment{}
	}

	seen := map[string]bool{}
	recs := make([]domain.CourseAssignment, 0, len(userIDs))
	for _, raw := range userIDs {
		userID := domain.NormalizeUserID(raw)
		if userID == "" || seen[userID] {
			continue
		}
		seen[userID] = true
		recs = append(recs, domain.CourseAssignment{
			CourseID:   courseID,
			UserID:     userID,
			Status:     domain.StatusAssigned,
			Progress:   0,
			DueDate:    opts.DueDate,
			Note:       opts.Note,
			AssignedBy: opts.AssignedBy,
		})
	}
	if len(recs) == 0 {
		return []domain.CourseAssignment{}
	}

	if s.remote != nil {
		stored, err := s.remote.Upsert(ctx, recs)
		if err == nil {
			return stored
		}
		s.log.Warn("assignments: remote upsert failed, using local store",
			zap.String("courseId", courseID), zap.Error(err))
	}

	stored := s.local.Upsert(recs)
	for _, rec := range stored {
		s.bus.Publish(events.Event{
			Type:     events.AssignmentCreated,
			CourseID: rec.CourseID,
			UserID:   rec.UserID,
			Source:   "local",
			Data:     rec,
		})
	}
	return stored
}

// AssignmentsForUser returns every assignment for the learner. It fails
// closed: a user id that normalizes to empty returns no rows and performs
// no I/O at all. The REST endpoint is tried before local data, and local
// data is served only when REST errors or yields zero rows.
func (s *Store) AssignmentsForUser(ctx context.Context, userID string) []domain.CourseAssignment {
	normalized := domain.NormalizeUserID(userID)
	if normalized == "" {
		return []domain.CourseAssignment{}
	}

	if s.remote != nil {
		recs, err := s.remote.ForUser(ctx, normalized)
		if err == nil {
			return recs
		}
		s.log.Warn("assignments: remote read failed, trying REST",
			zap.String("userId", normalized), zap.Error(err))
	}

	if s.rest != nil {
		rows, err := s.rest.ListAssignments(ctx, normalized)
		if err != nil {
			s.log.Warn("assignments: REST read failed, using local store",
				zap.String("userId", normalized), zap.Error(err))
		} else if len(rows) > 0 {
			recs := make([]domain.CourseAssignment, 0, len(rows))
			for _, row := range rows {
				rec := row.ToDomain()
				if rec.CourseID != "" {
					recs = append(recs, rec)
				}
			}
			return recs
		}
	}

	return s.local.ForUser(normalized)
}

// Assignment is the point lookup by (courseID, userID). Nil means the
// learner is not assigned to the course.
func (s *Store) Assignment(ctx context.Context, courseID, userID string) *domain.CourseAssignment {
	normalized := domain.NormalizeUserID(userID)
	if courseID == "" || normalized == "" {
		return nil
	}

	if s.remote != nil {
		rec, err := s.remote.Get(ctx, courseID, normalized)
		if err == nil {
			return rec
		}
		s.log.Warn("assignments: remote lookup failed, using local store",
			zap.String("courseId", courseID), zap.String("userId", normalized), zap.Error(err))
	}

	return s.local.Get(courseID, normalized)
}

// UpdateProgress clamps the value to [0,100] and derives the status from
// the clamped value. This is the only place status transitions happen; a
// lower value than before moves the status backward on purpose.
// Nil means no assignment existed to update.
func (s *Store) UpdateProgress(ctx context.Context, courseID, userID string, progress int) *domain.CourseAssignment {
	normalized := domain.NormalizeUserID(userID)
	if courseID == "" || normalized == "" {
		return nil
	}

	clamped := domain.ClampProgress(progress)
	status := domain.StatusForProgress(clamped)

	if s.remote != nil {
		rec, err := s.remote.SetProgress(ctx, courseID, normalized, clamped, status)
		if err == nil {
			return rec
		}
		s.log.Warn("assignments: remote progress update failed, using local store",
			zap.String("courseId", courseID), zap.String("userId", normalized), zap.Error(err))
	}

	rec := s.local.SetProgress(courseID, normalized, clamped, status)
	if rec != nil {
		s.bus.Publish(events.Event{
			Type:     events.AssignmentUpdated,
			CourseID: rec.CourseID,
			UserID:   rec.UserID,
			Source:   "local",
			Data:     rec,
		})
		// The local write diverged from the backend; push everything
		// pending once the backend is reachable again.
		if s.reconciler != nil {
			s.reconciler.Schedule(30 * time.Second)
		}
	}
	return rec
}
