package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/obetrack/obe-api/internal/models"
	"github.com/obetrack/obe-api/internal/service"
	appErrors "github.com/obetrack/obe-api/pkg/errors"
	"github.com/obetrack/obe-api/pkg/response"
)

// ReportHandler streams rendered course outcome exports.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler creates a new handler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) generate(c *gin.Context, kind string) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := c.DefaultQuery("format", service.ReportFormatCSV)
	key := models.ScoreKey{
		TeacherID: claims.UserID,
		CourseID:  c.Query("course_id"),
		Session:   c.Query("session"),
	}
	if key.CourseID == "" || key.Session == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "course_id and session are required"))
		return
	}

	report, err := h.reports.Generate(c.Request.Context(), key, kind, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", report.Filename))
	c.Data(200, report.ContentType, report.Content)
}

// Summary godoc
// @Summary Download the course outcome summary
// @Tags Reports
// @Produce octet-stream
// @Param course_id query string true "Course ID"
// @Param session query string true "Academic session"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	h.generate(c, service.ReportKindSummary)
}

// Raw godoc
// @Summary Download the raw score submissions
// @Tags Reports
// @Produce octet-stream
// @Param course_id query string true "Course ID"
// @Param session query string true "Academic session"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /reports/raw [get]
func (h *ReportHandler) Raw(c *gin.Context) {
	h.generate(c, service.ReportKindRaw)
}
