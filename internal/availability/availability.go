// Package availability decide si un curso puede mostrarse a un usuario
// y en qué modo, a partir del curso, su asignación y el progreso guardado.
package availability

import (
	"progress-sync/internal/domain"
)

// Reasons a course ends up unavailable or gated.
const (
	ReasonMissing     = "missing"
	ReasonUnpublished = "unpublished"
	ReasonNoHistory   = "no_history"
)

// Input is everything the evaluation looks at. Status is empty when the
// learner has no assignment; Progress is nil when nothing is stored.
type Input struct {
	Course   *domain.Course
	Status   domain.AssignmentStatus
	Progress *domain.StoredCourseProgress
}

// Result of one evaluation. Reason is also set on available-but-gated
// courses (an unpublished course reachable through history keeps
// "unpublished" so the UI can label it).
type Result struct {
	Unavailable bool   `json:"isUnavailable"`
	Reason      string `json:"reason,omitempty"`
	ReadOnly    bool   `json:"isReadOnly"`
}

// Evaluate applies the visibility rules. It is a pure function: a course
// is visible only with an assignment or evidence of prior access, and
// visible courses drop to read-only when they are unpublished, already
// completed, or reached through history after the assignment went away.
func Evaluate(in Input) Result {
	if in.Course == nil {
		return Result{Unavailable: true, Reason: ReasonMissing}
	}

	hasAssignment := in.Status != ""
	hasHistory := in.Progress != nil && in.Progress.HasHistory()

	if !in.Course.Published && !hasAssignment && !hasHistory {
		return Result{Unavailable: true, Reason: ReasonUnpublished}
	}
	if !hasAssignment && !hasHistory {
		// Published but never assigned and never touched: blocked, not
		// silently listed.
		return Result{Unavailable: true, Reason: ReasonNoHistory}
	}

	res := Result{}
	if !in.Course.Published {
		res.Reason = ReasonUnpublished
		res.ReadOnly = true
	}
	if in.Status == domain.StatusCompleted {
		res.ReadOnly = true
	}
	if !hasAssignment && hasHistory {
		// Access survives the assignment being revoked, but only to review.
		res.ReadOnly = true
	}
	return res
}
