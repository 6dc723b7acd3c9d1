package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/obetrack/obe-api/internal/models"
	appErrors "github.com/obetrack/obe-api/pkg/errors"
)

type catalogRepo interface {
	FindByName(ctx context.Context, name string) (*models.Program, error)
	ListNames(ctx context.Context) ([]string, error)
	Upsert(ctx context.Context, program *models.Program) error
}

// CatalogCourseInput is one catalog row in a program upsert.
type CatalogCourseInput struct {
	Code    string  `json:"code" validate:"required"`
	Version string  `json:"version"`
	Title   string  `json:"title" validate:"required"`
	Credit  float64 `json:"credit" validate:"gte=0"`
}

// UpsertProgramRequest replaces a program's course catalog.
type UpsertProgramRequest struct {
	Name    string               `json:"name" validate:"required"`
	Courses []CatalogCourseInput `json:"courses" validate:"dive"`
}

// CatalogService serves the per-program course catalog that objective
// editing and roster screens read from.
type CatalogService struct {
	programs  catalogRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(programs catalogRepo, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{programs: programs, validator: validate, logger: logger}
}

// ListPrograms returns the known program names.
func (s *CatalogService) ListPrograms(ctx context.Context) ([]string, error) {
	names, err := s.programs.ListNames(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// GetProgram returns one program with its catalog entries.
func (s *CatalogService) GetProgram(ctx context.Context, name string) (*models.Program, error) {
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "program name is required")
	}
	program, err := s.programs.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	if program.Courses == nil {
		program.Courses = []models.ProgramCourse{}
	}
	return program, nil
}

// UpsertProgram replaces a program's catalog entries wholesale.
func (s *CatalogService) UpsertProgram(ctx context.Context, req UpsertProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}

	courses := make([]models.ProgramCourse, len(req.Courses))
	for i, input := range req.Courses {
		courses[i] = models.ProgramCourse{
			Code:    input.Code,
			Version: input.Version,
			Title:   input.Title,
			Credit:  input.Credit,
		}
	}

	program := &models.Program{Name: req.Name, Courses: courses}
	if err := s.programs.Upsert(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save program")
	}

	return s.GetProgram(ctx, req.Name)
}
