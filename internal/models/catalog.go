package models

import "time"

// Program is one node of the course catalog tree.
type Program struct {
	ID        string          `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Courses   []ProgramCourse `db:"-" json:"courses"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// ProgramCourse is one catalog entry under a program.
type ProgramCourse struct {
	ProgramID string  `db:"program_id" json:"-"`
	Code      string  `db:"course_code" json:"code"`
	Version   string  `db:"version" json:"version"`
	Title     string  `db:"title" json:"title"`
	Credit    float64 `db:"credit" json:"credit"`
}
