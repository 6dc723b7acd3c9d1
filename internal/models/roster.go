package models

import "time"

// Roster is the enrolled-student and offered-course list for one
// (session, program) pair. Upserted whole by admin actions.
type Roster struct {
	ID        string          `db:"id" json:"id"`
	Session   string          `db:"session" json:"session"`
	Program   string          `db:"program" json:"program"`
	Students  []RosterStudent `db:"-" json:"students"`
	Courses   []RosterCourse  `db:"-" json:"courses"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// RosterStudent is one enrolled student.
type RosterStudent struct {
	RosterID    string `db:"roster_id" json:"-"`
	StudentID   string `db:"student_id" json:"student_id"`
	StudentName string `db:"student_name" json:"student_name"`
}

// RosterCourse is one offered course code/version within the roster.
type RosterCourse struct {
	RosterID string  `db:"roster_id" json:"-"`
	Code     string  `db:"course_code" json:"code"`
	Version  string  `db:"version" json:"version"`
	Title    string  `db:"title" json:"title"`
	Credit   float64 `db:"credit" json:"credit"`
}
