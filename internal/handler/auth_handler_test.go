package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/obetrack/obe-api/internal/middleware"
	"github.com/obetrack/obe-api/internal/models"
	"github.com/obetrack/obe-api/internal/service"
)

type userRepoStub struct {
	user *models.User
}

func (s *userRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.user == nil {
		return nil, sql.ErrNoRows
	}
	return s.user, nil
}

func (s *userRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if s.user == nil {
		return nil, sql.ErrNoRows
	}
	return s.user, nil
}

func (s *userRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (s *userRepoStub) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	return nil
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func newAuthHandlerForTest(t *testing.T, password string, role models.UserRole) *AuthHandler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo := &userRepoStub{user: &models.User{
		ID:           "u1",
		Email:        "user@example.com",
		PasswordHash: string(hash),
		FullName:     "User One",
		Role:         role,
		Active:       true,
	}}
	auth := service.NewAuthService(repo, nil, validator.New(), zap.NewNop(), service.AuthConfig{
		Secret: "secret",
		Expiry: 30 * time.Minute,
		Issuer: "obe-api",
	})
	return NewAuthHandler(auth, nil, false)
}

func sessionCookie(res *http.Response, name string) *http.Cookie {
	for _, cookie := range res.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestAuthHandlerTeacherLoginSetsCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandlerForTest(t, "password", models.RoleTeacher)

	payload, _ := json.Marshal(models.LoginRequest{Email: "user@example.com", Password: "password"})
	c, w := newGinContext(http.MethodPost, "/auth/teacher/login", payload)

	handler.Login(models.RoleTeacher)(c)

	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(w.Result(), middleware.TeacherSessionCookie)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 1800, cookie.MaxAge)
	assert.Nil(t, sessionCookie(w.Result(), middleware.AdminSessionCookie))
}

func TestAuthHandlerLoginWrongPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandlerForTest(t, "password", models.RoleTeacher)

	payload, _ := json.Marshal(models.LoginRequest{Email: "user@example.com", Password: "wrong"})
	c, w := newGinContext(http.MethodPost, "/auth/teacher/login", payload)

	handler.Login(models.RoleTeacher)(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, sessionCookie(w.Result(), middleware.TeacherSessionCookie))
}

func TestAuthHandlerLoginWrongRoleGate(t *testing.T) {
	// The teacher account fails on the admin login endpoint just like a
	// bad password.
	gin.SetMode(gin.TestMode)
	handler := newAuthHandlerForTest(t, "password", models.RoleTeacher)

	payload, _ := json.Marshal(models.LoginRequest{Email: "user@example.com", Password: "password"})
	c, w := newGinContext(http.MethodPost, "/auth/admin/login", payload)

	handler.Login(models.RoleAdmin)(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerLoginBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandlerForTest(t, "password", models.RoleTeacher)

	c, w := newGinContext(http.MethodPost, "/auth/teacher/login", []byte("{"))

	handler.Login(models.RoleTeacher)(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerLogoutClearsCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandlerForTest(t, "password", models.RoleTeacher)

	c, w := newGinContext(http.MethodPost, "/auth/teacher/logout", nil)
	c.Set(middleware.ContextUserKey, &models.SessionClaims{UserID: "u1", Role: models.RoleTeacher})

	handler.Logout(models.RoleTeacher)(c)
	c.Writer.WriteHeaderNow()

	require.Equal(t, http.StatusNoContent, w.Code)
	cookie := sessionCookie(w.Result(), middleware.TeacherSessionCookie)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestAuthHandlerMe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandlerForTest(t, "password", models.RoleTeacher)

	c, w := newGinContext(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserKey, &models.SessionClaims{
		UserID:   "u1",
		Role:     models.RoleTeacher,
		Email:    "user@example.com",
		FullName: "User One",
	})

	handler.Me(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user@example.com")
}
