package mailer

import (
	"context"

	"go.uber.org/zap"
)

// Message is a single outbound email.
type Message struct {
	ToName    string
	ToAddress string
	Subject   string
	Body      string
}

// Mailer delivers outbound email. Implementations must be safe for
// concurrent use; the mail queue calls Send from multiple workers.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ConsoleMailer logs messages instead of delivering them. Used in
// development and in tests.
type ConsoleMailer struct {
	logger *zap.Logger
}

// NewConsoleMailer builds a console-backed mailer.
func NewConsoleMailer(logger *zap.Logger) *ConsoleMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleMailer{logger: logger}
}

// Send writes the message to the log.
func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("outbound email",
		zap.String("to", msg.ToAddress),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
