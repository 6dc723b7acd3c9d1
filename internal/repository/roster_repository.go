package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/obetrack/obe-api/internal/models"
)

// RosterRepository manages per-(session, program) student rosters and
// offered-course lists.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs a RosterRepository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// FindBySessionProgram loads a roster with its students and courses.
func (r *RosterRepository) FindBySessionProgram(ctx context.Context, session, program string) (*models.Roster, error) {
	const query = `SELECT id, session, program, created_at, updated_at FROM rosters WHERE session = $1 AND program = $2`
	var roster models.Roster
	if err := r.db.GetContext(ctx, &roster, query, session, program); err != nil {
		return nil, err
	}

	const studentQuery = `SELECT roster_id, student_id, student_name FROM roster_students WHERE roster_id = $1 ORDER BY student_id ASC`
	if err := r.db.SelectContext(ctx, &roster.Students, studentQuery, roster.ID); err != nil {
		return nil, fmt.Errorf("list roster students: %w", err)
	}

	const courseQuery = `SELECT roster_id, course_code, version, title, credit FROM roster_courses WHERE roster_id = $1 ORDER BY course_code ASC`
	if err := r.db.SelectContext(ctx, &roster.Courses, courseQuery, roster.ID); err != nil {
		return nil, fmt.Errorf("list roster courses: %w", err)
	}

	return &roster, nil
}

// Upsert rewrites the roster for (session, program) atomically: the
// header row is upserted and the student/course lists replaced.
func (r *RosterRepository) Upsert(ctx context.Context, roster *models.Roster) error {
	if roster.ID == "" {
		roster.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if roster.CreatedAt.IsZero() {
		roster.CreatedAt = now
	}
	roster.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	const upsert = `INSERT INTO rosters (id, session, program, created_at, updated_at)
        VALUES (:id, :session, :program, :created_at, :updated_at)
        ON CONFLICT (session, program)
        DO UPDATE SET updated_at = EXCLUDED.updated_at
        RETURNING id`
	rows, err := tx.NamedQuery(upsert, roster)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("upsert roster: %w", err)
	}
	if rows.Next() {
		if err := rows.Scan(&roster.ID); err != nil {
			rows.Close()
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("scan roster id: %w", err)
		}
	}
	rows.Close()

	if _, err := tx.ExecContext(ctx, "DELETE FROM roster_students WHERE roster_id = $1", roster.ID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear roster students: %w", err)
	}
	for i := range roster.Students {
		roster.Students[i].RosterID = roster.ID
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO roster_students (roster_id, student_id, student_name) VALUES (:roster_id, :student_id, :student_name)`, roster.Students[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert roster student %s: %w", roster.Students[i].StudentID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM roster_courses WHERE roster_id = $1", roster.ID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear roster courses: %w", err)
	}
	for i := range roster.Courses {
		roster.Courses[i].RosterID = roster.ID
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO roster_courses (roster_id, course_code, version, title, credit) VALUES (:roster_id, :course_code, :version, :title, :credit)`, roster.Courses[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert roster course %s: %w", roster.Courses[i].Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit roster: %w", err)
	}
	return nil
}

// MoveStudents moves the listed students from the source roster to the
// target roster in one transaction. Either every student moves or none
// does: a copy count short of the request, or any statement failure,
// rolls the whole move back.
func (r *RosterRepository) MoveStudents(ctx context.Context, sourceID, targetID string, studentIDs []string) error {
	if len(studentIDs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	const copyQuery = `INSERT INTO roster_students (roster_id, student_id, student_name)
        SELECT $1, student_id, student_name FROM roster_students
        WHERE roster_id = $2 AND student_id = ANY($3)`
	res, err := tx.ExecContext(ctx, copyQuery, targetID, sourceID, pq.Array(studentIDs))
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("copy roster students: %w", err)
	}
	copied, err := res.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("count copied students: %w", err)
	}
	if copied != int64(len(studentIDs)) {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("move students: %d of %d found in source roster", copied, len(studentIDs))
	}

	const deleteQuery = `DELETE FROM roster_students WHERE roster_id = $1 AND student_id = ANY($2)`
	if _, err := tx.ExecContext(ctx, deleteQuery, sourceID, pq.Array(studentIDs)); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("remove roster students: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit roster move: %w", err)
	}
	return nil
}
