package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/obetrack/obe-api/internal/models"
	"github.com/obetrack/obe-api/internal/service"
)

type stubUserRepo struct{}

func (stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, nil
}

func (stubUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return nil, nil
}

func (stubUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (stubUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	return nil
}

func newTestAuthService(expiry time.Duration) *service.AuthService {
	return service.NewAuthService(stubUserRepo{}, nil, validator.New(), zap.NewNop(), service.AuthConfig{
		Secret: "test-secret",
		Expiry: expiry,
		Issuer: "obe-api",
	})
}

func issueToken(t *testing.T, auth *service.AuthService, role models.UserRole) string {
	t.Helper()
	token, err := auth.IssueToken(&models.User{
		ID:       "u1",
		Email:    "user@example.com",
		FullName: "User One",
		Role:     role,
	})
	require.NoError(t, err)
	return token
}

func newTestRouter(auth *service.AuthService, role models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", SessionAuth(auth, role, false), func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.SessionClaims)
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID})
	})
	return r
}

func clearedCookies(res *http.Response) map[string]bool {
	cleared := make(map[string]bool)
	for _, cookie := range res.Cookies() {
		if cookie.Value == "" && cookie.MaxAge < 0 {
			cleared[cookie.Name] = true
		}
	}
	return cleared
}

func TestSessionAuthMissingCookie(t *testing.T) {
	auth := newTestAuthService(30 * time.Minute)
	r := newTestRouter(auth, models.RoleTeacher)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	cleared := clearedCookies(w.Result())
	assert.True(t, cleared[TeacherSessionCookie])
	assert.True(t, cleared[AdminSessionCookie])
}

func TestSessionAuthRedirectsHTMLClients(t *testing.T) {
	auth := newTestAuthService(30 * time.Minute)
	r := newTestRouter(auth, models.RoleTeacher)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, TeacherLoginPath, w.Header().Get("Location"))
	cleared := clearedCookies(w.Result())
	assert.True(t, cleared[TeacherSessionCookie])
	assert.True(t, cleared[AdminSessionCookie])
}

func TestSessionAuthAdminRedirectTarget(t *testing.T) {
	auth := newTestAuthService(30 * time.Minute)
	r := newTestRouter(auth, models.RoleAdmin)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Accept", "text/html")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, AdminLoginPath, w.Header().Get("Location"))
}

func TestSessionAuthValidToken(t *testing.T) {
	auth := newTestAuthService(30 * time.Minute)
	r := newTestRouter(auth, models.RoleTeacher)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: TeacherSessionCookie, Value: issueToken(t, auth, models.RoleTeacher)})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u1")
}

func TestSessionAuthRejectsWrongRoleToken(t *testing.T) {
	// A valid admin session never admits a teacher route; the cookie name
	// alone is not trusted.
	auth := newTestAuthService(30 * time.Minute)
	r := newTestRouter(auth, models.RoleTeacher)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: TeacherSessionCookie, Value: issueToken(t, auth, models.RoleAdmin)})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	cleared := clearedCookies(w.Result())
	assert.True(t, cleared[TeacherSessionCookie])
	assert.True(t, cleared[AdminSessionCookie])
}

func TestSessionAuthIgnoresOtherRoleCookie(t *testing.T) {
	// The teacher gate reads only the teacher cookie; an admin cookie on
	// the request does not admit.
	auth := newTestAuthService(30 * time.Minute)
	r := newTestRouter(auth, models.RoleTeacher)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AdminSessionCookie, Value: issueToken(t, auth, models.RoleAdmin)})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionAuthRejectsExpiredToken(t *testing.T) {
	shortLived := newTestAuthService(time.Millisecond)
	token := issueToken(t, shortLived, models.RoleTeacher)
	time.Sleep(5 * time.Millisecond)

	r := newTestRouter(shortLived, models.RoleTeacher)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: TeacherSessionCookie, Value: token})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionAuthRejectsGarbageToken(t *testing.T) {
	auth := newTestAuthService(30 * time.Minute)
	r := newTestRouter(auth, models.RoleTeacher)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: TeacherSessionCookie, Value: "not-a-token"})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRedirectIfAuthenticated(t *testing.T) {
	auth := newTestAuthService(30 * time.Minute)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", RedirectIfAuthenticated(auth, models.RoleTeacher), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// No cookie: the login handler runs.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// A live session bounces to the home path.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(&http.Cookie{Name: TeacherSessionCookie, Value: issueToken(t, auth, models.RoleTeacher)})
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, TeacherHomePath, w.Header().Get("Location"))
}
