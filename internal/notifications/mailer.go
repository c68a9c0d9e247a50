package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/angelmondragon/farmconnect-backend/pkg/config"
)

// Mailer delivers a plain-text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type sendFunc func(ctx context.Context, msgs ...*mail.Msg) error

// SMTPMailer sends mail through a single relay.
type SMTPMailer struct {
	from string
	send sendFunc
}

// NewSMTPMailer returns a nil mailer when mail is not configured.
func NewSMTPMailer(cfg config.MailConfig) (*SMTPMailer, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPMailer{from: cfg.From, send: client.DialAndSendWithContext}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("recipient required")
	}
	msg, err := m.message(to, subject, body)
	if err != nil {
		return err
	}
	return m.send(ctx, msg)
}

// message rejects addresses that do not parse; headers are encoded by go-mail.
func (m *SMTPMailer) message(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}
