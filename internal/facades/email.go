package facades

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/sbilibin2017/gw-home-inventory/internal/logger"
)

// SMTPConfig holds outbound mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPMailer delivers one-time codes over SMTP. Port 465 uses implicit TLS,
// other ports upgrade with STARTTLS when the server offers it.
type SMTPMailer struct {
	cfg     SMTPConfig
	codeTTL time.Duration
}

// NewSMTPMailer creates a mailer. codeTTL is only used in the message text.
func NewSMTPMailer(cfg SMTPConfig, codeTTL time.Duration) *SMTPMailer {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPMailer{cfg: cfg, codeTTL: codeTTL}
}

// SendOTP emails a password reset code.
func (m *SMTPMailer) SendOTP(ctx context.Context, to, firstName, code string) error {
	msg := buildOTPMessage(m.cfg.From, to, firstName, code, m.codeTTL)

	if err := m.send(ctx, to, msg); err != nil {
		logger.Log.Errorw("failed to send OTP email", "host", m.cfg.Host, "error", err)
		return err
	}

	logger.Log.Infow("OTP email sent", "host", m.cfg.Host)
	return nil
}

func (m *SMTPMailer) send(ctx context.Context, to, msg string) error {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	tlsConfig := &tls.Config{
		ServerName: m.cfg.Host,
		MinVersion: tls.VersionTLS12,
	}

	dialer := &net.Dialer{Timeout: m.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(m.cfg.Timeout))
	}

	if m.cfg.Port == 465 {
		conn = tls.Client(conn, tlsConfig)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if m.cfg.Port != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("failed to start TLS: %w", err)
			}
		}
	}

	if m.cfg.User != "" && m.cfg.Password != "" {
		auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open message body: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return client.Quit()
}

func buildOTPMessage(from, to, firstName, code string, ttl time.Duration) string {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "there"
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString("Subject: Your password reset code\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(fmt.Sprintf("Hello %s,\r\n\r\n", name))
	msg.WriteString(fmt.Sprintf("Your one-time password reset code is %s.\r\n", code))
	msg.WriteString(fmt.Sprintf("It expires in %d minutes. If you did not ask for it, ignore this email.\r\n", int(ttl.Minutes())))
	return msg.String()
}

// LogMailer is used when SMTP is not configured. It records that a code was
// issued without revealing it.
type LogMailer struct{}

// NewLogMailer creates a LogMailer.
func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

// SendOTP logs the delivery attempt.
func (LogMailer) SendOTP(ctx context.Context, to, firstName, code string) error {
	logger.Log.Warnw("SMTP not configured, OTP email not delivered", "recipient_domain", domainOf(to))
	return nil
}

func domainOf(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 {
		return email[i+1:]
	}
	return ""
}
