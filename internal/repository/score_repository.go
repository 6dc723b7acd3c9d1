package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/obetrack/obe-api/internal/models"
)

// ScoreRepository persists submitted assessment scores. The table is
// insert-only; a re-submission for the same key adds another record.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository constructs a ScoreRepository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// Insert stores one submitted assessment.
func (r *ScoreRepository) Insert(ctx context.Context, record *models.ScoreRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO score_records (id, teacher_id, course_id, session, objective_code, assessment_type, pass_mark, entries, created_at)
        VALUES (:id, :teacher_id, :course_id, :session, :objective_code, :assessment_type, :pass_mark, :entries, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("insert score record: %w", err)
	}
	return nil
}

// ListByKey returns every record for (teacher, course, session) in
// submission order. No objective filter: the summary groups in memory.
func (r *ScoreRepository) ListByKey(ctx context.Context, key models.ScoreKey) ([]models.ScoreRecord, error) {
	const query = `SELECT id, teacher_id, course_id, session, objective_code, assessment_type, pass_mark, entries, created_at
        FROM score_records WHERE teacher_id = $1 AND course_id = $2 AND session = $3 ORDER BY created_at ASC`
	var records []models.ScoreRecord
	if err := r.db.SelectContext(ctx, &records, query, key.TeacherID, key.CourseID, key.Session); err != nil {
		return nil, fmt.Errorf("list score records: %w", err)
	}
	return records, nil
}
