package service

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/obetrack/obe-api/pkg/errors"
	"github.com/obetrack/obe-api/pkg/jobs"
	"github.com/obetrack/obe-api/pkg/mailer"
)

// FeedbackRequest is a public feedback submission.
type FeedbackRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,max=4000"`
}

// FeedbackService forwards public feedback to a fixed recipient. The
// sender never chooses the destination address.
type FeedbackService struct {
	mail          mailEnqueuer
	recipientName string
	recipientAddr string
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewFeedbackService constructs a FeedbackService.
func NewFeedbackService(mail mailEnqueuer, recipientName, recipientAddr string, validate *validator.Validate, logger *zap.Logger) *FeedbackService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackService{
		mail:          mail,
		recipientName: recipientName,
		recipientAddr: recipientAddr,
		validator:     validate,
		logger:        logger,
	}
}

// Submit queues the feedback mail for delivery.
func (s *FeedbackService) Submit(req FeedbackRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	job := jobs.MailJob{
		ID: uuid.NewString(),
		Message: mailer.Message{
			ToName:    s.recipientName,
			ToAddress: s.recipientAddr,
			Subject:   fmt.Sprintf("Feedback from %s", req.Name),
			Body:      fmt.Sprintf("From: %s <%s>\n\n%s", req.Name, req.Email, req.Message),
		},
	}
	if err := s.mail.Enqueue(job); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue feedback")
	}

	s.logger.Info("feedback queued", zap.String("from", req.Email))
	return nil
}
