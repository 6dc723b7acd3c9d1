package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/obetrack/obe-api/internal/models"
	appErrors "github.com/obetrack/obe-api/pkg/errors"
)

type mockCourseRepo struct {
	courses    []models.Course
	course     *models.Course
	findErr    error
	exists     bool
	existsErr  error
	objectives []models.CourseObjective
	replaced   []models.CourseObjective
	created    *models.Course
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	return m.courses, nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.course, nil
}

func (m *mockCourseRepo) ExistsByCodeAndSession(ctx context.Context, code, session string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.exists, nil
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	m.created = course
	return nil
}

func (m *mockCourseRepo) ObjectivesByCourse(ctx context.Context, courseID string) ([]models.CourseObjective, error) {
	return m.objectives, nil
}

func (m *mockCourseRepo) ReplaceObjectives(ctx context.Context, courseID string, objectives []models.CourseObjective) error {
	m.replaced = objectives
	m.objectives = objectives
	return nil
}

type mockTeacherReader struct {
	teacher *models.User
	err     error
}

func (m *mockTeacherReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.teacher, nil
}

func newCourseService(repo *mockCourseRepo, teachers *mockTeacherReader) *CourseService {
	return NewCourseService(repo, teachers, validator.New(), zap.NewNop())
}

func TestCourseServiceGetOwnershipEnforced(t *testing.T) {
	repo := &mockCourseRepo{course: &models.Course{ID: "c1", TeacherID: "t1"}}
	svc := newCourseService(repo, &mockTeacherReader{})

	_, err := svc.Get(context.Background(), "c1", "t2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	course, err := svc.Get(context.Background(), "c1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "c1", course.ID)
}

func TestCourseServiceGetNotFound(t *testing.T) {
	repo := &mockCourseRepo{findErr: sql.ErrNoRows}
	svc := newCourseService(repo, &mockTeacherReader{})

	_, err := svc.Get(context.Background(), "missing", "t1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceAssign(t *testing.T) {
	teacher := &models.User{ID: "t1", Role: models.RoleTeacher}
	repo := &mockCourseRepo{}
	svc := newCourseService(repo, &mockTeacherReader{teacher: teacher})

	course, err := svc.Assign(context.Background(), "t1", AssignCourseRequest{
		Code:    "CSE101",
		Title:   "Structured Programming",
		Session: "2025-2026",
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", course.TeacherID)
	require.NotNil(t, repo.created)
	assert.Equal(t, "CSE101", repo.created.Code)
}

func TestCourseServiceAssignDuplicateOffering(t *testing.T) {
	teacher := &models.User{ID: "t1", Role: models.RoleTeacher}
	repo := &mockCourseRepo{exists: true}
	svc := newCourseService(repo, &mockTeacherReader{teacher: teacher})

	_, err := svc.Assign(context.Background(), "t1", AssignCourseRequest{
		Code:    "CSE101",
		Title:   "Structured Programming",
		Session: "2025-2026",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceAssignRejectsAdminAccount(t *testing.T) {
	admin := &models.User{ID: "a1", Role: models.RoleAdmin}
	svc := newCourseService(&mockCourseRepo{}, &mockTeacherReader{teacher: admin})

	_, err := svc.Assign(context.Background(), "a1", AssignCourseRequest{
		Code:    "CSE101",
		Title:   "Structured Programming",
		Session: "2025-2026",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceSaveObjectivesRoundTrip(t *testing.T) {
	repo := &mockCourseRepo{course: &models.Course{ID: "c1", TeacherID: "t1"}}
	svc := newCourseService(repo, &mockTeacherReader{})

	saved, err := svc.SaveObjectives(context.Background(), "c1", "t1", SaveObjectivesRequest{
		Objectives: []ObjectiveInput{
			{Code: "CO1", Description: "Apply programming constructs", POCode: "PO1", BloomLevels: []string{"C3"}},
			{Code: "CO2", Description: "Analyse algorithms", POCode: "PO2"},
		},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)

	// Input order is preserved through positions.
	assert.Equal(t, "CO1", saved[0].Code)
	assert.Equal(t, 0, saved[0].Position)
	assert.Equal(t, "CO2", saved[1].Code)
	assert.Equal(t, 1, saved[1].Position)

	// Unset tag lists come back as empty arrays, never nil.
	assert.NotNil(t, saved[1].BloomLevels)
	assert.Empty(t, saved[1].BloomLevels)
	assert.NotNil(t, saved[0].KnowledgeProfile)
}

func TestCourseServiceObjectivesEmptyCourse(t *testing.T) {
	repo := &mockCourseRepo{course: &models.Course{ID: "c1", TeacherID: "t1"}}
	svc := newCourseService(repo, &mockTeacherReader{})

	objectives, err := svc.Objectives(context.Background(), "c1", "t1")
	require.NoError(t, err)
	assert.NotNil(t, objectives)
	assert.Empty(t, objectives)
}
