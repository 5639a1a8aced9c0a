package auth

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// SMTPConfig holds the settings for SMTPMailer
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string `mask:"filled"`
	From     string
}

// SMTPMailer delivers verification codes over SMTP with PLAIN auth
type SMTPMailer struct {
	cfg      SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer returns a mailer for cfg
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPMailer{cfg: cfg, sendMail: smtp.SendMail}
}

func (m *SMTPMailer) SendVerificationCode(ctx context.Context, to, code string) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled before sending mail")
	default:
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := verificationMessage(m.cfg.From, to, code)
	if err := m.sendMail(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "failed to deliver verification code").
			WithCode(goerrors.CodeInternal).
			WithTextCode(TextCodeMailDelivery)
	}
	return nil
}

func verificationMessage(from, to, code string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: Verify your email\r\n")
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	fmt.Fprintf(&b, "Your verification code is %s\r\n", code)
	b.WriteString("The code expires in 10 minutes.\r\n")
	return []byte(b.String())
}

// LogMailer writes codes to the logger instead of sending mail.
// Only meant for local development.
type LogMailer struct {
	Logger Logger
}

func (m LogMailer) SendVerificationCode(_ context.Context, to, code string) error {
	normalizeLogger(m.Logger).Info("verification code for %s: %s", to, code)
	return nil
}
