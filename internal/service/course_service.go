package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/obetrack/obe-api/internal/models"
	appErrors "github.com/obetrack/obe-api/pkg/errors"
)

type courseRepo interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ExistsByCodeAndSession(ctx context.Context, code, session string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	ObjectivesByCourse(ctx context.Context, courseID string) ([]models.CourseObjective, error)
	ReplaceObjectives(ctx context.Context, courseID string, objectives []models.CourseObjective) error
}

type teacherReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AssignCourseRequest creates a course offering for a teacher.
type AssignCourseRequest struct {
	Code    string `json:"code" validate:"required"`
	Title   string `json:"title" validate:"required"`
	Session string `json:"session" validate:"required"`
}

// ObjectiveInput is one CO row in a full-overwrite save.
type ObjectiveInput struct {
	Code             string   `json:"code" validate:"required"`
	Description      string   `json:"description" validate:"required"`
	POCode           string   `json:"po_code" validate:"required"`
	BloomLevels      []string `json:"bloom_levels"`
	KnowledgeProfile []string `json:"knowledge_profile"`
	ComplexProblem   []string `json:"complex_problem"`
	ComplexActivity  []string `json:"complex_activity"`
}

// SaveObjectivesRequest replaces a course's objective set.
type SaveObjectivesRequest struct {
	Objectives []ObjectiveInput `json:"objectives" validate:"required,dive"`
}

// CourseService manages course offerings and their objectives.
type CourseService struct {
	courses   courseRepo
	teachers  teacherReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(courses courseRepo, teachers teacherReader, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{courses: courses, teachers: teachers, validator: validate, logger: logger}
}

// ListByTeacher returns the teacher's courses.
func (s *CourseService) ListByTeacher(ctx context.Context, teacherID, session string) ([]models.Course, error) {
	courses, err := s.courses.List(ctx, models.CourseFilter{TeacherID: teacherID, Session: session})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Get returns one course, restricted to its owning teacher.
func (s *CourseService) Get(ctx context.Context, courseID, teacherID string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if teacherID != "" && course.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course belongs to another teacher")
	}
	return course, nil
}

// Assign creates a course offering owned by the teacher. The offering
// insert carries the teacher link, so there is no second write to leave
// half done.
func (s *CourseService) Assign(ctx context.Context, teacherID string, req AssignCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if teacher.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}

	exists, err := s.courses.ExistsByCodeAndSession(ctx, req.Code, req.Session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check offering")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course already offered for this session")
	}

	course := &models.Course{
		Code:      req.Code,
		Title:     req.Title,
		Session:   req.Session,
		TeacherID: teacher.ID,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Objectives returns a course's objectives in saved order. Unset tag
// lists come back as empty arrays, never null.
func (s *CourseService) Objectives(ctx context.Context, courseID, teacherID string) ([]models.CourseObjective, error) {
	if _, err := s.Get(ctx, courseID, teacherID); err != nil {
		return nil, err
	}
	objectives, err := s.courses.ObjectivesByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load objectives")
	}
	for i := range objectives {
		normalizeObjective(&objectives[i])
	}
	if objectives == nil {
		objectives = []models.CourseObjective{}
	}
	return objectives, nil
}

// SaveObjectives overwrites the course's objective set in input order.
func (s *CourseService) SaveObjectives(ctx context.Context, courseID, teacherID string, req SaveObjectivesRequest) ([]models.CourseObjective, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid objectives payload")
	}
	if _, err := s.Get(ctx, courseID, teacherID); err != nil {
		return nil, err
	}

	objectives := make([]models.CourseObjective, len(req.Objectives))
	for i, input := range req.Objectives {
		objectives[i] = models.CourseObjective{
			CourseID:         courseID,
			Code:             input.Code,
			Description:      input.Description,
			POCode:           input.POCode,
			BloomLevels:      toArray(input.BloomLevels),
			KnowledgeProfile: toArray(input.KnowledgeProfile),
			ComplexProblem:   toArray(input.ComplexProblem),
			ComplexActivity:  toArray(input.ComplexActivity),
			Position:         i,
		}
	}

	if err := s.courses.ReplaceObjectives(ctx, courseID, objectives); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save objectives")
	}

	return s.Objectives(ctx, courseID, teacherID)
}

func toArray(values []string) pq.StringArray {
	if values == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(values)
}

func normalizeObjective(obj *models.CourseObjective) {
	if obj.BloomLevels == nil {
		obj.BloomLevels = pq.StringArray{}
	}
	if obj.KnowledgeProfile == nil {
		obj.KnowledgeProfile = pq.StringArray{}
	}
	if obj.ComplexProblem == nil {
		obj.ComplexProblem = pq.StringArray{}
	}
	if obj.ComplexActivity == nil {
		obj.ComplexActivity = pq.StringArray{}
	}
}
