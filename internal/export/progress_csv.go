package export

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"progress-sync/internal/domain"
)

// Snapshot CSV template for audit/import tooling.
// Keep header order EXACT.
var progressHeader = []string{
	"USER_ID",
	"COURSE_SLUG",
	"LESSON_ID",
	"PROGRESS_PERCENT",
	"COMPLETED",
	"POSITION_SECONDS",
	"LAST_LESSON",
	"EXPORTED_TS",
}

var assignmentHeader = []string{
	"ASSIGNMENT_ID",
	"COURSE_ID",
	"USER_ID",
	"STATUS",
	"PROGRESS",
	"DUE_DATE",
	"ASSIGNED_BY",
	"NOTE",
	"CREATED_TS",
	"UPDATED_TS",
}

// WriteProgressCSV writes one row per lesson of a learner's stored course
// progress. Lessons come out in stable id order so repeated exports diff
// cleanly.
func WriteProgressCSV(w io.Writer, userID, courseSlug string, rec domain.StoredCourseProgress, exportedAt time.Time) error {
	cw := csv.NewWriter(w)
	// match typical templates
	cw.UseCRLF = true

	if err := cw.Write(progressHeader); err != nil {
		return err
	}

	ts := exportedAt.UTC().Format(time.RFC3339)
	for _, lessonID := range sortedLessonIDs(rec) {
		row := []string{
			userID,
			courseSlug,
			lessonID,
			strconv.Itoa(rec.LessonProgress[lessonID]),
			boolToFlag(rec.IsLessonCompleted(lessonID)),
			strconv.Itoa(rec.LessonPositions[lessonID]),
			boolToFlag(lessonID == rec.LastLessonID),
			ts,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAssignmentsCSV writes assignment records in the audit format.
// Unset optional columns stay empty.
func WriteAssignmentsCSV(w io.Writer, recs []domain.CourseAssignment) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(assignmentHeader); err != nil {
		return err
	}

	for _, rec := range recs {
		row := []string{
			rec.ID,
			rec.CourseID,
			rec.UserID,
			string(rec.Status),
			strconv.Itoa(rec.Progress),
			strings.TrimSpace(rec.DueDate),
			rec.AssignedBy,
			cleanCell(rec.Note),
			timeCell(rec.CreatedAt),
			timeCell(rec.UpdatedAt),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// sortedLessonIDs merges every lesson id the record mentions (progress map,
// positions map, completed list) into one sorted set.
func sortedLessonIDs(rec domain.StoredCourseProgress) []string {
	seen := map[string]bool{}
	for id := range rec.LessonProgress {
		seen[id] = true
	}
	for id := range rec.LessonPositions {
		seen[id] = true
	}
	for _, id := range rec.CompletedLessonIDs {
		seen[id] = true
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func boolToFlag(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}

func timeCell(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	// avoid newlines, keep CSV clean
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}
