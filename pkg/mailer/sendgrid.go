package mailer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridMailer delivers email through the SendGrid API using a fixed
// sender account.
type SendGridMailer struct {
	client        *sendgrid.Client
	senderName    string
	senderAddress string
}

// NewSendGridMailer builds a SendGrid-backed mailer.
func NewSendGridMailer(apiKey, senderName, senderAddress string) *SendGridMailer {
	return &SendGridMailer{
		client:        sendgrid.NewSendClient(apiKey),
		senderName:    senderName,
		senderAddress: senderAddress,
	}
}

// Send delivers the message, returning an error on any non-2xx response.
func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	from := sgmail.NewEmail(m.senderName, m.senderAddress)
	to := sgmail.NewEmail(msg.ToName, msg.ToAddress)
	email := sgmail.NewSingleEmail(from, msg.Subject, to, msg.Body, msg.Body)

	resp, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("sendgrid send: unexpected status %d", resp.StatusCode)
	}
	return nil
}
