package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Lllllllleong/heatsheetflow/internal/gcp"
)

// ErrNotConfigured is returned by Send when SMTP credentials are missing.
var ErrNotConfigured = errors.New("smtp not configured")

// Message is one outbound HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the SMTP server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// SMTPMailer sends mail through an SMTP server with STARTTLS and PLAIN auth.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailerFromEnv reads SMTP_HOST, SMTP_PORT, SMTP_USERNAME,
// SMTP_PASSWORD, SMTP_FROM and SMTP_FROM_NAME.
func NewSMTPMailerFromEnv() *SMTPMailer {
	return NewSMTPMailer(SMTPConfig{
		Host:     gcp.GetEnv("SMTP_HOST", "smtp.gmail.com"),
		Port:     gcp.GetEnvInt("SMTP_PORT", 587),
		Username: gcp.GetEnv("SMTP_USERNAME", ""),
		Password: gcp.GetEnv("SMTP_PASSWORD", ""),
		From:     gcp.GetEnv("SMTP_FROM", "noreply@heatsheetflow.app"),
		FromName: gcp.GetEnv("SMTP_FROM_NAME", "heatsheetflow"),
	})
}

// NewSMTPMailer returns a mailer for cfg.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// IsConfigured reports whether credentials are present.
func (m *SMTPMailer) IsConfigured() bool {
	return m.cfg.Host != "" && m.cfg.Username != "" && m.cfg.Password != ""
}

// Send delivers msg. The context bounds the connection attempt and the session.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if !m.IsConfigured() {
		return ErrNotConfigured
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to start SMTP session: %w", err)
	}
	defer c.Close()

	if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}
	if err := c.Auth(smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err := c.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := c.Rcpt(msg.To); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err := w.Write(m.render(msg)); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return c.Quit()
}

func (m *SMTPMailer) render(msg Message) []byte {
	domain := m.cfg.Host
	if i := strings.LastIndex(m.cfg.From, "@"); i >= 0 {
		domain = m.cfg.From[i+1:]
	}
	headers := [][2]string{
		{"From", fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", m.cfg.FromName), m.cfg.From)},
		{"To", msg.To},
		{"Subject", mime.QEncoding.Encode("utf-8", msg.Subject)},
		{"Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}
	var b strings.Builder
	for _, h := range headers {
		fmt.Fprintf(&b, "%s: %s\r\n", h[0], h[1])
	}
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}
