package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/obetrack/obe-api/internal/models"
)

// CourseRepository handles course and course-objective persistence.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = "id, code, title, session, teacher_id, created_at, updated_at"

// List returns courses matching the filter ordered by code.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE 1=1", courseColumns)
	var args []interface{}
	if filter.TeacherID != "" {
		query += fmt.Sprintf(" AND teacher_id = $%d", len(args)+1)
		args = append(args, filter.TeacherID)
	}
	if filter.Session != "" {
		query += fmt.Sprintf(" AND session = $%d", len(args)+1)
		args = append(args, filter.Session)
	}
	query += " ORDER BY code ASC"
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID fetches a course by ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ExistsByCodeAndSession checks for a duplicate offering.
func (r *CourseRepository) ExistsByCodeAndSession(ctx context.Context, code, session string) (bool, error) {
	const query = `SELECT 1 FROM courses WHERE code = $1 AND session = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, code, session); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check course offering: %w", err)
	}
	return true, nil
}

// Create inserts a new course offering.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, code, title, session, teacher_id, created_at, updated_at)
        VALUES (:id, :code, :title, :session, :teacher_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// ObjectivesByCourse returns a course's objectives in saved order.
func (r *CourseRepository) ObjectivesByCourse(ctx context.Context, courseID string) ([]models.CourseObjective, error) {
	const query = `SELECT id, course_id, code, description, po_code, bloom_levels, knowledge_profile, complex_problem, complex_activity, position
        FROM course_objectives WHERE course_id = $1 ORDER BY position ASC`
	var objectives []models.CourseObjective
	if err := r.db.SelectContext(ctx, &objectives, query, courseID); err != nil {
		return nil, fmt.Errorf("list objectives: %w", err)
	}
	return objectives, nil
}

// ReplaceObjectives overwrites a course's objective set atomically. The
// saved order is the input order.
func (r *CourseRepository) ReplaceObjectives(ctx context.Context, courseID string, objectives []models.CourseObjective) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM course_objectives WHERE course_id = $1", courseID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear objectives: %w", err)
	}
	const insert = `INSERT INTO course_objectives (id, course_id, code, description, po_code, bloom_levels, knowledge_profile, complex_problem, complex_activity, position)
        VALUES (:id, :course_id, :code, :description, :po_code, :bloom_levels, :knowledge_profile, :complex_problem, :complex_activity, :position)`
	for i := range objectives {
		if objectives[i].ID == "" {
			objectives[i].ID = uuid.NewString()
		}
		objectives[i].CourseID = courseID
		objectives[i].Position = i
		if _, err := tx.NamedExecContext(ctx, insert, objectives[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert objective %s: %w", objectives[i].Code, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit objectives: %w", err)
	}
	return nil
}
