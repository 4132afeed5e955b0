package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gomail "gopkg.in/gomail.v2"

	"github.com/medconnect/booking-api/internal/config"
)

// Service sends user-facing notifications. All sends are best-effort from the
// caller's perspective; failures never abort the triggering operation.
type Service interface {
	SendBookingConfirmed(ctx context.Context, email, name string, slotTime time.Time) error
	SendFamilyInvitation(ctx context.Context, email, inviterName, token string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
	logger zerolog.Logger
}

func NewEmailService(cfg config.SMTPConfig, logger zerolog.Logger) Service {
	return &emailService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger.With().Str("component", "notification").Logger(),
	}
}

func (s *emailService) SendBookingConfirmed(ctx context.Context, email, name string, slotTime time.Time) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Appointment booked")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\nYour appointment on %s is booked and awaiting the doctor's confirmation.\n",
		name, slotTime.Format("Monday, January 2 2006 at 15:04"),
	))

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send booking confirmation: %w", err)
	}
	return nil
}

func (s *emailService) SendFamilyInvitation(ctx context.Context, email, inviterName, token string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Family care invitation")
	msg.SetBody("text/plain", fmt.Sprintf(
		"%s invited you to join their care circle.\n\nYour invitation token: %s\n",
		inviterName, token,
	))

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send invitation: %w", err)
	}
	return nil
}

// NoopService discards notifications. Used when SMTP is not configured.
type NoopService struct{}

func (NoopService) SendBookingConfirmed(ctx context.Context, email, name string, slotTime time.Time) error {
	return nil
}

func (NoopService) SendFamilyInvitation(ctx context.Context, email, inviterName, token string) error {
	return nil
}
