package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/obetrack/obe-api/internal/models"
)

// CatalogRepository manages the program course catalog tree.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs a CatalogRepository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// FindByName loads a program and its catalog courses.
func (r *CatalogRepository) FindByName(ctx context.Context, name string) (*models.Program, error) {
	const query = `SELECT id, name, created_at, updated_at FROM programs WHERE name = $1`
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, name); err != nil {
		return nil, err
	}

	const courseQuery = `SELECT program_id, course_code, version, title, credit FROM program_courses WHERE program_id = $1 ORDER BY course_code ASC`
	if err := r.db.SelectContext(ctx, &program.Courses, courseQuery, program.ID); err != nil {
		return nil, fmt.Errorf("list program courses: %w", err)
	}

	return &program, nil
}

// ListNames returns all program names.
func (r *CatalogRepository) ListNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.SelectContext(ctx, &names, "SELECT name FROM programs ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return names, nil
}

// Upsert rewrites a program's catalog atomically.
func (r *CatalogRepository) Upsert(ctx context.Context, program *models.Program) error {
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if program.CreatedAt.IsZero() {
		program.CreatedAt = now
	}
	program.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	const upsert = `INSERT INTO programs (id, name, created_at, updated_at)
        VALUES (:id, :name, :created_at, :updated_at)
        ON CONFLICT (name)
        DO UPDATE SET updated_at = EXCLUDED.updated_at
        RETURNING id`
	rows, err := tx.NamedQuery(upsert, program)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("upsert program: %w", err)
	}
	if rows.Next() {
		if err := rows.Scan(&program.ID); err != nil {
			rows.Close()
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("scan program id: %w", err)
		}
	}
	rows.Close()

	if _, err := tx.ExecContext(ctx, "DELETE FROM program_courses WHERE program_id = $1", program.ID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear program courses: %w", err)
	}
	for i := range program.Courses {
		program.Courses[i].ProgramID = program.ID
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO program_courses (program_id, course_code, version, title, credit) VALUES (:program_id, :course_code, :version, :title, :credit)`, program.Courses[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert program course %s: %w", program.Courses[i].Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit program: %w", err)
	}
	return nil
}
