package domain

import (
	"strings"
	"time"
)

// AssignmentStatus is the tri-state lifecycle of a course assignment.
type AssignmentStatus string

const (
	StatusAssigned   AssignmentStatus = "assigned"
	StatusInProgress AssignmentStatus = "in-progress"
	StatusCompleted  AssignmentStatus = "completed"
)

// CourseAssignment links one learner to one course. The (CourseID, UserID)
// pair is the upsert key; ID exists for lookup/display only.
type CourseAssignment struct {
	ID       string           `json:"id"`
	CourseID string           `json:"courseId"`
	UserID   string           `json:"userId"` // always stored lower-cased
	Status   AssignmentStatus `json:"status"`
	Progress int              `json:"progress"` // percent 0-100

	DueDate    string `json:"dueDate,omitempty"` // ISO date if set
	Note       string `json:"note,omitempty"`
	AssignedBy string `json:"assignedBy,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NormalizeUserID canonicalizes a user identifier for comparison and
// storage. Empty output means "no usable identity".
func NormalizeUserID(userID string) string {
	return strings.ToLower(strings.TrimSpace(userID))
}

// ClampProgress bounds a percent value to [0, 100].
func ClampProgress(progress int) int {
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}

// StatusForProgress derives the assignment status from a clamped progress
// value. This is the single place status transitions happen; a lower value
// than before intentionally moves the status backward (redo flows).
func StatusForProgress(progress int) AssignmentStatus {
	switch {
	case progress >= 100:
		return StatusCompleted
	case progress > 0:
		return StatusInProgress
	default:
		return StatusAssigned
	}
}
