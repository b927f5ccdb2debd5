package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ecorewards/ecorewards/internal/utils"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	ErrInvalidMailSender    = errors.New("invalid mail sender")
	ErrInvalidMailRecipient = errors.New("invalid mail recipient")
)

type EmailService struct {
	config *Config
	client *sendgrid.Client
}

func NewEmailService(config *Config) *EmailService {
	svc := &EmailService{config: config}
	if config.Enabled {
		svc.client = sendgrid.NewSendClient(config.SendgridAPIKey)
	}
	return svc
}

// Send delivers the email through sendgrid. With delivery disabled the email is written to the
// log instead, which is how codes reach the developer on a local setup.
func (s *EmailService) Send(ctx context.Context, info *EmailInfo) error {
	if info.FromEmail == "" {
		info.FromEmail = s.config.FromEmail
	}
	if info.FromName == "" {
		info.FromName = s.config.FromName
	}

	if info.FromEmail == "" {
		return ErrInvalidMailSender
	}
	if info.ToEmail == "" {
		return ErrInvalidMailRecipient
	}

	if !s.config.Enabled {
		slog.Warn("email delivery disabled", "to", info.ToEmail, "subject", info.Subject, "body", info.TextBody)
		return nil
	}

	if info.ToName == "" {
		info.ToName = info.ToEmail
	}

	from := mail.NewEmail(info.FromName, info.FromEmail)
	to := mail.NewEmail(info.ToName, info.ToEmail)
	message := mail.NewSingleEmail(from, info.Subject, to, info.TextBody, info.HTMLBody)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("send email: sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}

	slog.Debug("email sent", "to", utils.MaskEmail(info.ToEmail), "status", resp.StatusCode, "messageId", resp.Headers["X-Message-Id"])
	return nil
}
