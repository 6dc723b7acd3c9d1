package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/obetrack/obe-api/internal/models"
	"github.com/obetrack/obe-api/internal/service"
	appErrors "github.com/obetrack/obe-api/pkg/errors"
	"github.com/obetrack/obe-api/pkg/response"
)

// ScoreHandler exposes score submission and the derived summary.
type ScoreHandler struct {
	scores *service.ScoreService
}

// NewScoreHandler creates a new handler.
func NewScoreHandler(scores *service.ScoreService) *ScoreHandler {
	return &ScoreHandler{scores: scores}
}

func scoreKeyFromQuery(c *gin.Context, teacherID string) models.ScoreKey {
	return models.ScoreKey{
		TeacherID: teacherID,
		CourseID:  c.Query("course_id"),
		Session:   c.Query("session"),
	}
}

// Submit godoc
// @Summary Submit one assessment's marks
// @Description Submissions are insert-only; re-submitting accumulates alongside earlier records
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body service.SubmitScoresRequest true "Score payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /scores [post]
func (h *ScoreHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SubmitScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid score payload"))
		return
	}

	record, err := h.scores.Submit(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Raw godoc
// @Summary List raw score records
// @Tags Scores
// @Produce json
// @Param course_id query string true "Course ID"
// @Param session query string true "Academic session"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /scores [get]
func (h *ScoreHandler) Raw(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	records, err := h.scores.Raw(c.Request.Context(), scoreKeyFromQuery(c, claims.UserID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Summary godoc
// @Summary Derived course outcome summary
// @Description Recomputed from the raw records on every read; zero records yields empty lists
// @Tags Scores
// @Produce json
// @Param course_id query string true "Course ID"
// @Param session query string true "Academic session"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /scores/summary [get]
func (h *ScoreHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	summary, err := h.scores.Summarize(c.Request.Context(), scoreKeyFromQuery(c, claims.UserID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
