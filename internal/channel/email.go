package channel

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/shenikar/incident_dispatch/internal/models"
)

const (
	smtpSecurityNone     = "none"
	smtpSecurityStartTLS = "starttls"
	smtpSecurityTLS      = "tls"
)

// EmailSender отправляет письма через SMTP
type EmailSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	security string
	timeout  time.Duration
}

// NewEmailSender создает отправителя писем; ConfigurationError, если SMTP не настроен
func NewEmailSender(cfg models.EmailSettings, timeout time.Duration) (*EmailSender, error) {
	host := strings.TrimSpace(cfg.Host)
	from := strings.TrimSpace(cfg.From)
	if host == "" || cfg.Port <= 0 || from == "" {
		return nil, &ConfigurationError{Channel: models.ChannelEmail, Reason: "smtp server, port and from address are required"}
	}
	if _, err := mail.ParseAddress(from); err != nil {
		return nil, &ConfigurationError{Channel: models.ChannelEmail, Reason: fmt.Sprintf("invalid from address %q", from)}
	}

	security := strings.ToLower(strings.TrimSpace(cfg.Security))
	switch security {
	case smtpSecurityNone, smtpSecurityStartTLS, smtpSecurityTLS:
	case "":
		security = smtpSecurityStartTLS
	default:
		return nil, &ConfigurationError{Channel: models.ChannelEmail, Reason: fmt.Sprintf("unknown smtp security %q", cfg.Security)}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &EmailSender{
		host:     host,
		port:     cfg.Port,
		username: strings.TrimSpace(cfg.Username),
		password: cfg.Password,
		from:     from,
		security: security,
		timeout:  timeout,
	}, nil
}

func (s *EmailSender) Channel() models.Channel { return models.ChannelEmail }

// Send отправляет письмо одному получателю
func (s *EmailSender) Send(ctx context.Context, recipient string, msg Message) error {
	addr, err := mail.ParseAddress(strings.TrimSpace(recipient))
	if err != nil {
		return Permanent(models.ChannelEmail, fmt.Sprintf("malformed recipient %q", recipient), err)
	}
	return s.deliver(ctx, addr.Address, s.buildMessage(addr.Address, msg))
}

// Test отправляет проверочное письмо на target
func (s *EmailSender) Test(ctx context.Context, target string) error {
	now := time.Now()
	return s.Send(ctx, target, Render(TestIncident(now), now))
}

func (s *EmailSender) buildMessage(recipient string, msg Message) []byte {
	headers := []string{
		fmt.Sprintf("From: %s", s.from),
		fmt.Sprintf("To: %s", recipient),
		fmt.Sprintf("Subject: %s", msg.Subject),
		fmt.Sprintf("Date: %s", msg.GeneratedAt.UTC().Format(time.RFC1123Z)),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
	}
	body := strings.ReplaceAll(msg.Body, "\n", "\r\n")
	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + body + "\r\n")
}

func (s *EmailSender) deliver(ctx context.Context, recipient string, message []byte) error {
	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Mail(s.from); err != nil {
		return classifySMTP("mail from rejected", err)
	}
	if err := client.Rcpt(recipient); err != nil {
		return classifySMTP("recipient rejected", err)
	}
	writer, err := client.Data()
	if err != nil {
		return classifySMTP("data command failed", err)
	}
	if _, err := writer.Write(message); err != nil {
		_ = writer.Close()
		return classifySMTP("write message", err)
	}
	if err := writer.Close(); err != nil {
		return classifySMTP("message rejected", err)
	}
	if err := client.Quit(); err != nil {
		return classifySMTP("quit", err)
	}
	return nil
}

func (s *EmailSender) connect(ctx context.Context) (*smtp.Client, error) {
	address := net.JoinHostPort(s.host, fmt.Sprintf("%d", s.port))
	dialer := &net.Dialer{Timeout: s.timeout}

	var (
		conn net.Conn
		err  error
	)
	if s.security == smtpSecurityTLS {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: s.host}}
		conn, err = tlsDialer.DialContext(ctx, "tcp", address)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", address)
	}
	if err != nil {
		return nil, Transient(models.ChannelEmail, "connect to smtp server", err)
	}

	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return nil, classifySMTP("smtp greeting", err)
	}
	if s.security == smtpSecurityStartTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			_ = client.Close()
			return nil, Permanent(models.ChannelEmail, "smtp server does not support STARTTLS", nil)
		}
		if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
			_ = client.Close()
			return nil, Transient(models.ChannelEmail, "starttls handshake", err)
		}
	}
	if s.username != "" {
		auth := smtp.PlainAuth("", s.username, s.password, s.host)
		if err := client.Auth(auth); err != nil {
			_ = client.Close()
			return nil, Permanent(models.ChannelEmail, "smtp authentication failed", err)
		}
	}
	return client, nil
}

// classifySMTP: 4xx - временные, 5xx - постоянные, сетевые сбои - временные
func classifySMTP(detail string, err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch {
		case protoErr.Code >= 400 && protoErr.Code < 500:
			return Transient(models.ChannelEmail, detail, err)
		default:
			return Permanent(models.ChannelEmail, detail, err)
		}
	}
	return Transient(models.ChannelEmail, detail, err)
}
