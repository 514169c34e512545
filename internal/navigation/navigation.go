// Package navigation picks the lesson a learner should land on when
// opening a course, based on the stored progress record.
package navigation

import (
	"progress-sync/internal/domain"
)

// FirstLessonID returns the id of the course's first lesson, or empty when
// the course has none. Callers use it as the ultimate fallback.
func FirstLessonID(course *domain.Course) string {
	if course == nil || len(course.Lessons) == 0 {
		return ""
	}
	return course.Lessons[0].ID
}

// PreferredLessonID resolves where to resume:
//
//  1. no lessons: nothing to resume, empty id
//  2. no stored progress: start at the first lesson
//  3. lastLessonId known and incomplete: resume there
//  4. lastLessonId completed: first incomplete lesson after it
//  5. lastLessonId stale: first incomplete lesson anywhere
//  6. everything completed: last lesson, review mode
func PreferredLessonID(course *domain.Course, rec *domain.StoredCourseProgress) string {
	if course == nil || len(course.Lessons) == 0 {
		return ""
	}
	if rec == nil || rec.IsZero() {
		return course.Lessons[0].ID
	}

	lastIdx := -1
	for i, lesson := range course.Lessons {
		if lesson.ID == rec.LastLessonID {
			lastIdx = i
			break
		}
	}

	if lastIdx >= 0 {
		if !rec.IsLessonCompleted(course.Lessons[lastIdx].ID) {
			return course.Lessons[lastIdx].ID
		}
		for _, lesson := range course.Lessons[lastIdx+1:] {
			if !rec.IsLessonCompleted(lesson.ID) {
				return lesson.ID
			}
		}
	} else {
		for _, lesson := range course.Lessons {
			if !rec.IsLessonCompleted(lesson.ID) {
				return lesson.ID
			}
		}
	}

	return course.Lessons[len(course.Lessons)-1].ID
}
