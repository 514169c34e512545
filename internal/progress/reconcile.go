package progress

import (
	"time"

	"progress-sync/internal/domain"
	"progress-sync/internal/providers/huddle"
)

// DeriveStoredProgress reconciles raw remote rows into the local record
// shape. Pure: same rows + same lesson order in, same record out.
//
// The completed list follows the caller-supplied lessonIDs order, anchoring
// it to course structure instead of row arrival order. LastLessonID is the
// row with the latest parseable last_accessed_at; ties keep the first-seen
// row.
func DeriveStoredProgress(rows []huddle.LessonProgressRow, lessonIDs []string) domain.StoredCourseProgress {
	rec := domain.EmptyProgress()

	completed := make(map[string]bool, len(rows))
	var lastSeen time.Time

	for _, row := range rows {
		if row.LessonID == "" {
			continue
		}
		rec.LessonProgress[row.LessonID] = row.ProgressPercentage
		rec.LessonPositions[row.LessonID] = row.TimeSpent
		if row.IsCompleted() {
			completed[row.LessonID] = true
		}
		if ts := huddle.ParseTimestamp(row.LastAccessedAt); !ts.IsZero() && ts.After(lastSeen) {
			lastSeen = ts
			rec.LastLessonID = row.LessonID
		}
	}

	for _, id := range lessonIDs {
		if completed[id] {
			rec.CompletedLessonIDs = append(rec.CompletedLessonIDs, id)
		}
	}

	return rec
}
