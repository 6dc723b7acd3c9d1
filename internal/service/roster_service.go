package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/obetrack/obe-api/internal/models"
	appErrors "github.com/obetrack/obe-api/pkg/errors"
)

type rosterRepo interface {
	FindBySessionProgram(ctx context.Context, session, program string) (*models.Roster, error)
	Upsert(ctx context.Context, roster *models.Roster) error
	MoveStudents(ctx context.Context, sourceID, targetID string, studentIDs []string) error
}

// UpsertRosterRequest replaces the roster for (session, program).
type UpsertRosterRequest struct {
	Session  string                 `json:"session" validate:"required"`
	Program  string                 `json:"program" validate:"required"`
	Students []models.RosterStudent `json:"students" validate:"dive"`
	Courses  []models.RosterCourse  `json:"courses" validate:"dive"`
}

// MoveStudentsRequest moves students between two rosters of a session.
type MoveStudentsRequest struct {
	Session       string   `json:"session" validate:"required"`
	SourceProgram string   `json:"source_program" validate:"required"`
	TargetProgram string   `json:"target_program" validate:"required"`
	StudentIDs    []string `json:"student_ids" validate:"required,min=1"`
}

// RosterService manages per-(session, program) student rosters.
type RosterService struct {
	rosters   rosterRepo
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRosterService constructs a RosterService.
func NewRosterService(rosters rosterRepo, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{rosters: rosters, audit: audit, validator: validate, logger: logger}
}

// Get returns the roster for (session, program).
func (s *RosterService) Get(ctx context.Context, session, program string) (*models.Roster, error) {
	if session == "" || program == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session and program are required")
	}
	roster, err := s.rosters.FindBySessionProgram(ctx, session, program)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "roster not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	if roster.Students == nil {
		roster.Students = []models.RosterStudent{}
	}
	if roster.Courses == nil {
		roster.Courses = []models.RosterCourse{}
	}
	return roster, nil
}

// Upsert replaces the roster content for (session, program).
func (s *RosterService) Upsert(ctx context.Context, req UpsertRosterRequest) (*models.Roster, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid roster payload")
	}

	roster := &models.Roster{
		Session:  req.Session,
		Program:  req.Program,
		Students: req.Students,
		Courses:  req.Courses,
	}
	if err := s.rosters.Upsert(ctx, roster); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save roster")
	}

	return s.Get(ctx, req.Session, req.Program)
}

// Move transfers the listed students from the source program's roster to
// the target program's, all or nothing.
func (s *RosterService) Move(ctx context.Context, actorID string, req MoveStudentsRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload")
	}
	if req.SourceProgram == req.TargetProgram {
		return appErrors.Clone(appErrors.ErrValidation, "source and target programs are identical")
	}

	source, err := s.Get(ctx, req.Session, req.SourceProgram)
	if err != nil {
		return err
	}
	target, err := s.Get(ctx, req.Session, req.TargetProgram)
	if err != nil {
		return err
	}

	if err := s.rosters.MoveStudents(ctx, source.ID, target.ID, req.StudentIDs); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move students")
	}

	if s.audit != nil {
		payload, _ := json.Marshal(req)
		if err := s.audit.Create(ctx, &models.AuditLog{
			UserID:     &actorID,
			Action:     models.AuditActionRosterMove,
			Resource:   "roster",
			ResourceID: &source.ID,
			NewValues:  payload,
		}); err != nil {
			s.logger.Warn("failed to record roster move audit log", zap.Error(err))
		}
	}

	return nil
}
