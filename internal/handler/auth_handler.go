package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/obetrack/obe-api/internal/middleware"
	"github.com/obetrack/obe-api/internal/models"
	"github.com/obetrack/obe-api/internal/service"
	appErrors "github.com/obetrack/obe-api/pkg/errors"
	"github.com/obetrack/obe-api/pkg/response"
)

// AuthHandler wires the teacher and admin session endpoints plus the
// public OTP password-reset flow.
type AuthHandler struct {
	auth         *service.AuthService
	otp          *service.OTPService
	secureCookie bool
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(auth *service.AuthService, otp *service.OTPService, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: auth, otp: otp, secureCookie: secureCookie}
}

// Login returns a handler that authenticates the given role and sets
// that role's session cookie. The cookie lives exactly as long as the
// token it carries.
func (h *AuthHandler) Login(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
			return
		}
		req.IP = c.ClientIP()
		req.UserAgent = c.GetHeader("User-Agent")

		res, err := h.auth.Login(c.Request.Context(), req, role)
		if err != nil {
			response.Error(c, err)
			return
		}

		maxAge := int(h.auth.TokenTTL().Seconds())
		c.SetCookie(middleware.CookieName(role), res.Token, maxAge, "/", "", h.secureCookie, true)

		response.JSON(c, http.StatusOK, res, nil)
	}
}

// Logout returns a handler that records the logout and expires the
// role's session cookie.
func (h *AuthHandler) Logout(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFromContext(c)
		h.auth.Logout(c.Request.Context(), claims, c.ClientIP(), c.GetHeader("User-Agent"))

		c.SetCookie(middleware.CookieName(role), "", -1, "/", "", h.secureCookie, true)
		response.NoContent(c)
	}
}

// Me godoc
// @Summary Get current user
// @Description Returns the authenticated user's info
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	info := models.UserInfo{
		ID:       claims.UserID,
		Email:    claims.Email,
		FullName: claims.FullName,
		Role:     claims.Role,
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// RequestOTP godoc
// @Summary Request password reset code
// @Description Emails a one-time reset code; the response never reveals whether the account exists
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.OTPRequest true "OTP request"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /auth/otp/request [post]
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req models.OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.otp.Request(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusAccepted, gin.H{"message": "if the email exists, a code will be sent"}, nil)
}

// VerifyOTP godoc
// @Summary Verify password reset code
// @Description Verifies the emailed code and sets the new password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.OTPVerifyRequest true "OTP verification"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /auth/otp/verify [post]
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req models.OTPVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.otp.Verify(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
