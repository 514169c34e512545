package domain

// StoredCourseProgress is the per-course, per-device progress record.
// It is written wholesale on every save; callers must supply the full
// record, the storage layer never merges.
type StoredCourseProgress struct {
	// CompletedLessonIDs keeps course display order, not completion order.
	CompletedLessonIDs []string `json:"completedLessonIds"`
	// LessonProgress maps lesson id -> percent complete (0-100).
	LessonProgress map[string]int `json:"lessonProgress"`
	// LessonPositions maps lesson id -> elapsed seconds.
	LessonPositions map[string]int `json:"lessonPositions"`
	// LastLessonID is the most recently accessed lesson, if known.
	LastLessonID string `json:"lastLessonId,omitempty"`
}

// EmptyProgress returns a zero-valued record with non-nil maps, safe to
// mutate by callers.
func EmptyProgress() StoredCourseProgress {
	return StoredCourseProgress{
		CompletedLessonIDs: []string{},
		LessonProgress:     map[string]int{},
		LessonPositions:    map[string]int{},
	}
}

// IsZero reports whether the record carries no progress at all.
func (p StoredCourseProgress) IsZero() bool {
	if len(p.CompletedLessonIDs) > 0 || p.LastLessonID != "" {
		return false
	}
	for _, v := range p.LessonProgress {
		if v > 0 {
			return false
		}
	}
	for _, v := range p.LessonPositions {
		if v > 0 {
			return false
		}
	}
	return true
}

// HasHistory reports whether the learner ever touched the course: at least
// one completed lesson, or any lesson with progress above zero.
func (p StoredCourseProgress) HasHistory() bool {
	if len(p.CompletedLessonIDs) > 0 {
		return true
	}
	for _, v := range p.LessonProgress {
		if v > 0 {
			return true
		}
	}
	return false
}

// IsLessonCompleted reports whether the lesson id is in the completed list.
func (p StoredCourseProgress) IsLessonCompleted(lessonID string) bool {
	for _, id := range p.CompletedLessonIDs {
		if id == lessonID {
			return true
		}
	}
	return false
}
