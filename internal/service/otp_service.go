package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/obetrack/obe-api/internal/models"
	appErrors "github.com/obetrack/obe-api/pkg/errors"
	"github.com/obetrack/obe-api/pkg/jobs"
	"github.com/obetrack/obe-api/pkg/mailer"
)

type otpAccountReader interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type mailEnqueuer interface {
	Enqueue(job jobs.MailJob) error
}

type passwordResetter interface {
	ResetPassword(ctx context.Context, email, newPassword string) error
}

// OTPConfig tunes the one-time-code flow.
type OTPConfig struct {
	TTL         time.Duration
	MaxAttempts int
}

// OTPService implements the password-reset code flow. Codes live in the
// shared cache with a TTL, one active code per email; verifying consumes
// the code. Attempts are capped so the expiry window cannot be brute
// forced.
type OTPService struct {
	accounts  otpAccountReader
	cache     CacheRepository
	mail      mailEnqueuer
	reset     passwordResetter
	validator *validator.Validate
	logger    *zap.Logger
	config    OTPConfig
}

// NewOTPService constructs an OTPService.
func NewOTPService(accounts otpAccountReader, cache CacheRepository, mail mailEnqueuer, reset passwordResetter, validate *validator.Validate, logger *zap.Logger, config OTPConfig) *OTPService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TTL <= 0 {
		config.TTL = 10 * time.Minute
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 5
	}
	return &OTPService{accounts: accounts, cache: cache, mail: mail, reset: reset, validator: validate, logger: logger, config: config}
}

func otpKey(email string) string {
	return "otp:" + email
}

func otpAttemptsKey(email string) string {
	return "otp_attempts:" + email
}

// Request generates and emails a fresh code. A new request replaces any
// outstanding code and resets the attempt counter. Whether the account
// exists is not revealed to the caller.
func (s *OTPService) Request(ctx context.Context, req models.OTPRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}

	user, err := s.accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		s.logger.Info("otp requested for unknown email", zap.String("email", req.Email))
		return nil
	}

	code, err := generateCode()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate code")
	}

	if err := s.cache.Set(ctx, otpKey(req.Email), code, s.config.TTL); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store code")
	}
	if err := s.cache.Delete(ctx, otpAttemptsKey(req.Email)); err != nil {
		s.logger.Warn("failed to reset otp attempts", zap.Error(err))
	}

	job := jobs.MailJob{
		ID: uuid.NewString(),
		Message: mailer.Message{
			ToName:    user.FullName,
			ToAddress: user.Email,
			Subject:   "Your password reset code",
			Body:      fmt.Sprintf("Your one-time code is %s. It expires in %d minutes.", code, int(s.config.TTL.Minutes())),
		},
	}
	if err := s.mail.Enqueue(job); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue mail")
	}

	return nil
}

// Verify checks the submitted code and, on success, consumes it and
// resets the password.
func (s *OTPService) Verify(ctx context.Context, req models.OTPVerifyRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid verify payload")
	}

	attempts, err := s.cache.Increment(ctx, otpAttemptsKey(req.Email), s.config.TTL)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to track attempts")
	}
	if attempts > int64(s.config.MaxAttempts) {
		return appErrors.Clone(appErrors.ErrOTPLocked, "")
	}

	var stored string
	if err := s.cache.Get(ctx, otpKey(req.Email), &stored); err != nil {
		return appErrors.Clone(appErrors.ErrOTPExpired, "")
	}
	if stored != req.Code {
		return appErrors.Clone(appErrors.ErrOTPMismatch, "")
	}

	if err := s.reset.ResetPassword(ctx, req.Email, req.NewPassword); err != nil {
		return err
	}

	if err := s.cache.Delete(ctx, otpKey(req.Email)); err != nil {
		s.logger.Warn("failed to delete consumed otp", zap.Error(err))
	}
	if err := s.cache.Delete(ctx, otpAttemptsKey(req.Email)); err != nil {
		s.logger.Warn("failed to clear otp attempts", zap.Error(err))
	}

	return nil
}

func generateCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
