package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"creativehub/contexts/creative-review/approval-workflow/domain/entities"

	"github.com/wneessen/go-mail"
)

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// MailSender is the part of *mail.Client the sink needs.
type MailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// EmailSink sends a plain-text mail per event over SMTP.
type EmailSink struct {
	cfg    EmailConfig
	sender MailSender
	now    func() time.Time
}

// NewEmailSink builds an SMTP client from cfg when sender is nil. STARTTLS is
// used when the server offers it.
func NewEmailSink(cfg EmailConfig, sender MailSender) (*EmailSink, error) {
	if strings.TrimSpace(cfg.Host) == "" || strings.TrimSpace(cfg.From) == "" || len(cfg.To) == 0 {
		return nil, errors.New("email sink requires host, sender and at least one recipient")
	}
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	if sender == nil {
		client, err := newMailClient(cfg)
		if err != nil {
			return nil, err
		}
		sender = client
	}
	return &EmailSink{cfg: cfg, sender: sender, now: time.Now}, nil
}

func newMailClient(cfg EmailConfig) (*mail.Client, error) {
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
	return client, nil
}

func (*EmailSink) Name() string {
	return "email"
}

func (s *EmailSink) Deliver(ctx context.Context, event entities.WorkflowEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := s.compose(event)
	if err != nil {
		return err
	}
	if err := s.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func (s *EmailSink) compose(event entities.WorkflowEvent) (*mail.Msg, error) {
	msg := mail.NewMsg(mail.WithEncoding(mail.NoEncoding))
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("mail sender: %w", err)
	}
	if err := msg.To(s.cfg.To...); err != nil {
		return nil, fmt.Errorf("mail recipients: %w", err)
	}
	msg.Subject(subjectFor(event))
	msg.SetDateWithValue(s.now().UTC())
	msg.SetMessageIDWithValue(event.EventID + "@creativehub")
	msg.SetBodyString(mail.TypeTextPlain, bodyFor(event))
	return msg, nil
}
