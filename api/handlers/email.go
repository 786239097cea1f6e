package handlers

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/linesmerrill/medtrack-api/config"
	templates "github.com/linesmerrill/medtrack-api/templates/html"
)

// Mailer sends a transactional email
type Mailer interface {
	Send(toEmail, toName, subject, plainText string) error
}

// SendgridMailer delivers email through the SendGrid v3 API
type SendgridMailer struct {
	client   *sendgrid.Client
	fromName string
	from     string
}

// NewSendgridMailer returns a Mailer for the configured API key, or nil when
// no key is set
func NewSendgridMailer(conf *config.Config) *SendgridMailer {
	if conf.SendgridAPIKey == "" {
		return nil
	}
	return &SendgridMailer{
		client:   sendgrid.NewSendClient(conf.SendgridAPIKey),
		fromName: "MedTrack",
		from:     conf.EmailFrom,
	}
}

// Send renders plainText into the branded template and sends it
func (m *SendgridMailer) Send(toEmail, toName, subject, plainText string) error {
	from := mail.NewEmail(m.fromName, m.from)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, templates.RenderGenericEmail(subject, plainText))

	response, err := m.client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send email", "error", err, "to", toEmail)
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", toEmail)
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}
	zap.S().Infow("email sent successfully", "to", toEmail, "subject", subject)
	return nil
}
