package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Outcome statuses derived at aggregation time, never stored.
const (
	StatusPass   = "Pass"
	StatusFail   = "Fail"
	StatusAbsent = "Absent"
)

// ScoreEntry is one student's result for a single assessment. Absent is a
// flag rather than a sentinel mark so zero stays a valid obtained mark.
type ScoreEntry struct {
	StudentID   string  `json:"student_id"`
	StudentName string  `json:"student_name"`
	Mark        float64 `json:"mark"`
	Absent      bool    `json:"absent"`
}

// ScoreEntries is stored as a JSONB column; submissions are append-only
// documents, so entries never get rewritten in place.
type ScoreEntries []ScoreEntry

// Value implements driver.Valuer.
func (e ScoreEntries) Value() (driver.Value, error) {
	if e == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(e)
}

// Scan implements sql.Scanner.
func (e *ScoreEntries) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*e = nil
		return nil
	case []byte:
		return json.Unmarshal(v, e)
	case string:
		return json.Unmarshal([]byte(v), e)
	default:
		return fmt.Errorf("unsupported scan type %T for score entries", src)
	}
}

// ScoreRecord is one submitted assessment for a course objective. Records
// are insert-only; duplicates for the same key accumulate and the summary
// derives the final picture at read time.
type ScoreRecord struct {
	ID             string       `db:"id" json:"id"`
	TeacherID      string       `db:"teacher_id" json:"teacher_id"`
	CourseID       string       `db:"course_id" json:"course_id"`
	Session        string       `db:"session" json:"session"`
	ObjectiveCode  string       `db:"objective_code" json:"objective_code"`
	AssessmentType string       `db:"assessment_type" json:"assessment_type"`
	PassMark       float64      `db:"pass_mark" json:"pass_mark"`
	Entries        ScoreEntries `db:"entries" json:"entries"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
}

// ScoreKey identifies the record set a summary is derived from.
type ScoreKey struct {
	TeacherID string
	CourseID  string
	Session   string
}

// ObjectiveStat summarises one objective across all its assessments.
type ObjectiveStat struct {
	Code        string  `json:"code"`
	Assessments string  `json:"assessments"`
	PassMark    float64 `json:"pass_mark"`
	Total       int     `json:"total"`
	Passed      int     `json:"passed"`
	Failed      int     `json:"failed"`
	Absent      int     `json:"absent"`
	Percentage  float64 `json:"percentage"`
}

// StudentOutcome carries one student's accumulated mark and derived
// status per objective. Objectives the student never appeared in are
// simply missing from the maps.
type StudentOutcome struct {
	StudentID string             `json:"student_id"`
	Name      string             `json:"name"`
	Totals    map[string]float64 `json:"totals"`
	Statuses  map[string]string  `json:"statuses"`
}

// ScoreSummary is the derived course outcome picture.
type ScoreSummary struct {
	Objectives []string         `json:"objectives"`
	Students   []StudentOutcome `json:"students"`
	Stats      []ObjectiveStat  `json:"stats"`
}
