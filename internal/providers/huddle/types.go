package huddle

import (
	"strings"
	"time"

	"progress-sync/internal/domain"
)

// LessonProgressRow is one remote per-lesson progress record for a learner.
type LessonProgressRow struct {
	LessonID           string `json:"lesson_id"`
	ProgressPercentage int    `json:"progress_percentage"`
	Completed          bool   `json:"completed"`
	TimeSpent          int    `json:"time_spent"` // seconds
	LastAccessedAt     string `json:"last_accessed_at,omitempty"`
}

// IsCompleted applies the backend's completion rule: the flag wins, a full
// percentage also counts.
func (r LessonProgressRow) IsCompleted() bool {
	return r.Completed || r.ProgressPercentage >= 100
}

// SnapshotLesson is one lesson entry inside a snapshot push.
type SnapshotLesson struct {
	LessonID        string `json:"lesson_id"`
	ProgressPercent int    `json:"progress_percent"`
	Completed       bool   `json:"completed"`
	PositionSeconds int    `json:"position_seconds"`
}

// SnapshotRequest is a batched push of one course's full progress state for
// one learner.
type SnapshotRequest struct {
	UserID           string           `json:"user_id"`
	CourseID         string           `json:"course_id"`
	LessonIDs        []string         `json:"lesson_ids"`
	Lessons          []SnapshotLesson `json:"lessons"`
	OverallPercent   int              `json:"overall_percent"`
	CompletedAt      string           `json:"completed_at,omitempty"` // ISO, set when overall hits 100
	TotalTimeSeconds int              `json:"total_time_seconds"`
	LastLessonID     string           `json:"last_lesson_id,omitempty"`
}

// AssignmentRow is the REST wire shape of a course assignment (snake_case,
// as returned by /api/client/assignments).
type AssignmentRow struct {
	ID         string `json:"id"`
	CourseID   string `json:"course_id"`
	UserID     string `json:"user_id"`
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
	DueDate    string `json:"due_date,omitempty"`
	Note       string `json:"note,omitempty"`
	AssignedBy string `json:"assigned_by,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// ToDomain maps a wire row into the canonical assignment shape. Rows with
// no usable course or user id map to a zero assignment; callers drop those.
func (r AssignmentRow) ToDomain() domain.CourseAssignment {
	userID := domain.NormalizeUserID(r.UserID)
	if strings.TrimSpace(r.CourseID) == "" || userID == "" {
		return domain.CourseAssignment{}
	}

	status := domain.AssignmentStatus(strings.TrimSpace(r.Status))
	switch status {
	case domain.StatusAssigned, domain.StatusInProgress, domain.StatusCompleted:
	default:
		status = domain.StatusForProgress(domain.ClampProgress(r.Progress))
	}

	return domain.CourseAssignment{
		ID:         strings.TrimSpace(r.ID),
		CourseID:   strings.TrimSpace(r.CourseID),
		UserID:     userID,
		Status:     status,
		Progress:   domain.ClampProgress(r.Progress),
		DueDate:    strings.TrimSpace(r.DueDate),
		Note:       r.Note,
		AssignedBy: strings.TrimSpace(r.AssignedBy),
		CreatedAt:  ParseTimestamp(r.CreatedAt),
		UpdatedAt:  ParseTimestamp(r.UpdatedAt),
	}
}

// ParseTimestamp parses the timestamp formats the backend emits. Unknown
// formats map to the zero time; callers treat that as "never".
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
