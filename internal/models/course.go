package models

import (
	"time"

	"github.com/lib/pq"
)

// Course is a taught offering owned by a teacher within a session.
type Course struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Title     string    `db:"title" json:"title"`
	Session   string    `db:"session" json:"session"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CourseObjective is one CO row of a course, mapped to a single program
// outcome plus optional classification tags. Objectives are saved as a
// full ordered overwrite; Position preserves the saved order.
type CourseObjective struct {
	ID               string         `db:"id" json:"id"`
	CourseID         string         `db:"course_id" json:"course_id"`
	Code             string         `db:"code" json:"code"`
	Description      string         `db:"description" json:"description"`
	POCode           string         `db:"po_code" json:"po_code"`
	BloomLevels      pq.StringArray `db:"bloom_levels" json:"bloom_levels"`
	KnowledgeProfile pq.StringArray `db:"knowledge_profile" json:"knowledge_profile"`
	ComplexProblem   pq.StringArray `db:"complex_problem" json:"complex_problem"`
	ComplexActivity  pq.StringArray `db:"complex_activity" json:"complex_activity"`
	Position         int            `db:"position" json:"position"`
}

// CourseFilter captures list filters for a teacher's courses.
type CourseFilter struct {
	TeacherID string
	Session   string
}
