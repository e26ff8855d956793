// Package notify delivers permit status-change notifications to applicants.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/norar1/fireportal/internal/config"
	"github.com/norar1/fireportal/internal/logger"
	"github.com/norar1/fireportal/internal/models"
)

// ErrNoRecipient is returned when a notice has no email address.
var ErrNoRecipient = errors.New("notice has no recipient")

// StatusNotice describes one permit review decision to announce.
type StatusNotice struct {
	DecidedOn  models.Date
	Recipient  string
	PermitName string
	PermitType models.PermitType
	Status     models.Status
}

// Subject returns the email subject line.
func (n StatusNotice) Subject() string {
	return fmt.Sprintf("Your %s permit application has been %s", n.PermitType.Label(), n.Status)
}

// Body returns the plain-text email body.
func (n StatusNotice) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Good day,\r\n\r\n")
	fmt.Fprintf(&b, "The %s permit application for %s has been %s", n.PermitType.Label(), n.PermitName, n.Status)
	if !n.DecidedOn.IsZero() {
		fmt.Fprintf(&b, " on %s", n.DecidedOn.String())
	}
	b.WriteString(".\r\n\r\n")
	switch n.Status {
	case models.StatusApproved:
		b.WriteString("Please visit the fire station to settle any remaining fees and claim your certificate.\r\n")
	case models.StatusRejected:
		b.WriteString("Please visit the fire station or contact us for the reason and the requirements to re-apply.\r\n")
	}
	b.WriteString("\r\nBureau of Fire Protection\r\n")
	return b.String()
}

// Sender dispatches status notices.
type Sender interface {
	SendStatusChange(ctx context.Context, notice StatusNotice) error
}

// sendMailFunc matches smtp.SendMail.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender sends notices through an SMTP relay.
type SMTPSender struct {
	send sendMailFunc
	auth smtp.Auth
	addr string
	from string
}

// NewSMTPSender creates a Sender for the configured relay.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPSender{
		send: smtp.SendMail,
		auth: auth,
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from: cfg.From,
	}
}

// SendStatusChange composes and sends the notice.
// smtp.SendMail has no context support, so ctx is only checked before dialing.
func (s *SMTPSender) SendStatusChange(ctx context.Context, notice StatusNotice) error {
	if notice.Recipient == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := composeMessage(s.from, notice, time.Now())
	if err := s.send(s.addr, s.auth, s.from, []string{notice.Recipient}, msg); err != nil {
		return fmt.Errorf("failed to send notification to %s: %w", notice.Recipient, err)
	}
	return nil
}

func composeMessage(from string, notice StatusNotice, now time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", notice.Recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", notice.Subject())
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(notice.Body())
	return []byte(b.String())
}

// LogSender records notices in the log instead of sending them.
// It is used when no mail relay is configured.
type LogSender struct {
	log *logger.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

// SendStatusChange logs the notice.
func (s *LogSender) SendStatusChange(_ context.Context, notice StatusNotice) error {
	if notice.Recipient == "" {
		return ErrNoRecipient
	}
	s.log.Info("Status notification (mail relay disabled)", map[string]interface{}{
		"recipient":   notice.Recipient,
		"permit_type": string(notice.PermitType),
		"status":      string(notice.Status),
		"subject":     notice.Subject(),
	})
	return nil
}

// New picks the SMTP sender when a relay is configured, else the log sender.
func New(cfg config.SMTPConfig, log *logger.Logger) Sender {
	if cfg.Enabled() {
		return NewSMTPSender(cfg)
	}
	return NewLogSender(log)
}
