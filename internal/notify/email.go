package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/rajasatyajit/EmergencyTriage/config"
	apperrors "github.com/rajasatyajit/EmergencyTriage/internal/errors"
	"github.com/rajasatyajit/EmergencyTriage/internal/models"
)

type mailer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Email sends the alert over SMTP with STARTTLS and PLAIN auth
type Email struct {
	cfg       config.EmailConfig
	newMailer func(cfg config.EmailConfig) (mailer, error)
}

// NewEmail creates an email channel
func NewEmail(cfg config.EmailConfig) *Email {
	return &Email{cfg: cfg, newMailer: newSMTPClient}
}

func (e *Email) Name() string { return ChannelEmail }

// Send builds the message and delivers it to the configured receiver
func (e *Email) Send(ctx context.Context, payload models.AlertPayload) error {
	if e.cfg.Sender == "" || e.cfg.AppPassword == "" || e.cfg.Receiver == "" {
		return apperrors.ChannelError{Channel: ChannelEmail, Err: apperrors.ErrMissingCredentials}
	}

	msg := mail.NewMsg()
	if err := msg.From(e.cfg.Sender); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(e.cfg.Receiver); err != nil {
		return fmt.Errorf("set receiver: %w", err)
	}
	subject := payload.Subject
	if subject == "" {
		subject = "EMERGENCY ALERT: " + payload.Category.Upper()
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, payload.Message)

	client, err := e.newMailer(e.cfg)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return apperrors.ChannelError{Channel: ChannelEmail, Err: fmt.Errorf("%w: %v", apperrors.ErrDeliveryFailed, err)}
	}
	return nil
}

func newSMTPClient(cfg config.EmailConfig) (mailer, error) {
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Sender),
		mail.WithPassword(cfg.AppPassword),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}
