package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/obetrack/obe-api/internal/service"
	appErrors "github.com/obetrack/obe-api/pkg/errors"
	"github.com/obetrack/obe-api/pkg/response"
)

// FeedbackHandler accepts public feedback submissions.
type FeedbackHandler struct {
	feedback *service.FeedbackService
}

// NewFeedbackHandler creates a new handler.
func NewFeedbackHandler(feedback *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

// Submit godoc
// @Summary Submit feedback
// @Description Queues a feedback mail to the fixed recipient
// @Tags Feedback
// @Accept json
// @Produce json
// @Param payload body service.FeedbackRequest true "Feedback payload"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /feedback [post]
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req service.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}

	if err := h.feedback.Submit(req); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusAccepted, gin.H{"message": "feedback received"}, nil)
}
