package domain

// Lesson is the minimal lesson shape the sync layer needs: identity and
// display order. Content metadata lives in the LMS, not here.
type Lesson struct {
	ID    string
	Title string
	Order int
}

// Course is the canonical representation of a course inside this service.
// Lessons are kept in display order; that order anchors how completed
// lesson lists are reported everywhere else.
type Course struct {
	ID        string // backend course id (opaque)
	Slug      string // stable human slug, key for local progress records
	Title     string
	Published bool
	Lessons   []Lesson
}

// LessonIDs returns the course's lesson ids in display order.
func (c Course) LessonIDs() []string {
	out := make([]string, 0, len(c.Lessons))
	for _, l := range c.Lessons {
		out = append(out, l.ID)
	}
	return out
}
