package mailer

import (
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/acro-planner/backend/config"
)

// Mailer sends plain-text notification emails over SMTP.
type Mailer struct {
	cfg    config.EmailConfig
	logger *zap.Logger
}

// New creates a Mailer from email config.
func New(cfg config.EmailConfig, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{cfg: cfg, logger: logger}
}

// Enabled reports whether SMTP delivery is configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.SMTPHost != ""
}

// Send delivers a single message. Returns an error so the caller can retry via the job queue.
func (m *Mailer) Send(recipient, subject, body string) error {
	if !m.Enabled() {
		m.logger.Warn("smtp not configured, dropping email", zap.String("recipient", recipient), zap.String("subject", subject))
		return nil
	}

	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.cfg.FromName, m.cfg.FromAddress, recipient, subject, body,
	)

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	auth := smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)

	if err := smtp.SendMail(addr, auth, m.cfg.FromAddress, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	m.logger.Info("email sent", zap.String("recipient", recipient), zap.String("subject", subject))
	return nil
}
