package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/obetrack/obe-api/internal/models"
	appErrors "github.com/obetrack/obe-api/pkg/errors"
)

type mockUserRepo struct {
	users       []models.User
	total       int
	user        *models.User
	findErr     error
	exists      bool
	created     *models.User
	updated     *models.User
	deactivated string
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	return m.users, m.total, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.user, nil
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return m.exists, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	m.created = user
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	m.updated = user
	return nil
}

func (m *mockUserRepo) Deactivate(ctx context.Context, id string) error {
	m.deactivated = id
	return nil
}

func newUserService(repo *mockUserRepo) *UserService {
	return NewUserService(repo, validator.New(), zap.NewNop())
}

func TestUserServiceCreateTeacherHashesPassword(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newUserService(repo)

	teacher, err := svc.CreateTeacher(context.Background(), CreateTeacherRequest{
		Email:    "new@example.com",
		FullName: "New Teacher",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, teacher.Role)
	assert.True(t, teacher.Active)
	assert.NotEqual(t, "secret123", teacher.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte("secret123")))
}

func TestUserServiceCreateTeacherDuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{exists: true}
	svc := newUserService(repo)

	_, err := svc.CreateTeacher(context.Background(), CreateTeacherRequest{
		Email:    "taken@example.com",
		FullName: "New Teacher",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateTeacherValidation(t *testing.T) {
	svc := newUserService(&mockUserRepo{})

	_, err := svc.CreateTeacher(context.Background(), CreateTeacherRequest{Email: "not-an-email", FullName: "X", Password: "short"})
	assert.Error(t, err)
}

func TestUserServiceGetTeacherHidesAdmins(t *testing.T) {
	repo := &mockUserRepo{user: &models.User{ID: "a1", Role: models.RoleAdmin}}
	svc := newUserService(repo)

	_, err := svc.GetTeacher(context.Background(), "a1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceGetTeacherNotFound(t *testing.T) {
	repo := &mockUserRepo{findErr: sql.ErrNoRows}
	svc := newUserService(repo)

	_, err := svc.GetTeacher(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceListTeachersForcesRole(t *testing.T) {
	repo := &mockUserRepo{users: []models.User{{ID: "t1", Role: models.RoleTeacher}}, total: 1}
	svc := newUserService(repo)

	teachers, pagination, err := svc.ListTeachers(context.Background(), models.UserFilter{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, teachers, 1)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, 10, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestUserServiceDeactivateTeacher(t *testing.T) {
	repo := &mockUserRepo{user: &models.User{ID: "t1", Role: models.RoleTeacher, Active: true}}
	svc := newUserService(repo)

	require.NoError(t, svc.DeactivateTeacher(context.Background(), "t1"))
	assert.Equal(t, "t1", repo.deactivated)
}

func TestUserServiceUpdateTeacher(t *testing.T) {
	repo := &mockUserRepo{user: &models.User{ID: "t1", Email: "old@example.com", Role: models.RoleTeacher, Active: true}}
	svc := newUserService(repo)

	inactive := false
	updated, err := svc.UpdateTeacher(context.Background(), "t1", UpdateTeacherRequest{
		FullName: "Renamed",
		Active:   &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.FullName)
	assert.False(t, updated.Active)
	assert.Equal(t, "old@example.com", updated.Email)
}
