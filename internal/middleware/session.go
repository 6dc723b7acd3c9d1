package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/obetrack/obe-api/internal/models"
	"github.com/obetrack/obe-api/internal/service"
	appErrors "github.com/obetrack/obe-api/pkg/errors"
	"github.com/obetrack/obe-api/pkg/response"
)

// ContextUserKey is the gin context key storing session claims.
const ContextUserKey = "currentUser"

// Session cookie names, one per role. The two gates are independent: a
// route group only ever reads its own cookie.
const (
	TeacherSessionCookie = "teacher_session"
	AdminSessionCookie   = "admin_session"
)

// Login and home paths per role, used for the HTML redirect variants.
const (
	TeacherLoginPath = "/login"
	AdminLoginPath   = "/admin/login"
	TeacherHomePath  = "/dashboard"
	AdminHomePath    = "/admin/dashboard"
)

// CookieName returns the session cookie belonging to the role.
func CookieName(role models.UserRole) string {
	if role == models.RoleAdmin {
		return AdminSessionCookie
	}
	return TeacherSessionCookie
}

func loginPath(role models.UserRole) string {
	if role == models.RoleAdmin {
		return AdminLoginPath
	}
	return TeacherLoginPath
}

func homePath(role models.UserRole) string {
	if role == models.RoleAdmin {
		return AdminHomePath
	}
	return TeacherHomePath
}

// ClearSessionCookies expires both session cookies. Any auth failure
// wipes both so a half-valid state cannot linger.
func ClearSessionCookies(c *gin.Context, secure bool) {
	c.SetCookie(TeacherSessionCookie, "", -1, "/", "", secure, true)
	c.SetCookie(AdminSessionCookie, "", -1, "/", "", secure, true)
}

func acceptsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}

// SessionAuth protects a route group with the role's session cookie.
// An absent, invalid, expired or wrong-role token is one and the same
// failure: both cookies are cleared, HTML clients are redirected to the
// role's login page and API clients get a 401 envelope.
func SessionAuth(authService *service.AuthService, role models.UserRole, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		reject := func() {
			ClearSessionCookies(c, secure)
			if acceptsHTML(c) {
				c.Redirect(http.StatusSeeOther, loginPath(role))
				c.Abort()
				return
			}
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
		}

		token, err := c.Cookie(CookieName(role))
		if err != nil || token == "" {
			reject()
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			reject()
			return
		}
		if claims.Role != role {
			reject()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// RedirectIfAuthenticated bounces an already logged-in user away from
// the role's login endpoint to their home path. Invalid cookies are
// ignored; the login flow will replace them.
func RedirectIfAuthenticated(authService *service.AuthService, role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(CookieName(role))
		if err != nil || token == "" {
			c.Next()
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil || claims.Role != role {
			c.Next()
			return
		}

		c.Redirect(http.StatusSeeOther, homePath(role))
		c.Abort()
	}
}
