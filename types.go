package auth

import (
	"context"
	"time"
)

// Logger is the logging contract used across the package
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds the values the token service and the cookie helpers need
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetSessionTTL() time.Duration
	GetPendingTTL() time.Duration
	GetCookieName() string
	GetSecureCookies() bool
}

// TokenService mints and decodes the two signed envelopes we hand out
type TokenService interface {
	SignSession(user *User) (string, error)
	ValidateSession(token string) (*SessionClaims, error)
	SignPending(pending PendingUser, otp string) (string, error)
	ValidatePending(token string) (*PendingClaims, error)
}

// Authenticator checks credentials and resolves sessions
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	SessionFromToken(token string) (*SessionClaims, error)
}

// Mailer delivers verification codes
type Mailer interface {
	SendVerificationCode(ctx context.Context, to, code string) error
}

// MailerFunc adapts a function to the Mailer interface.
type MailerFunc func(ctx context.Context, to, code string) error

// SendVerificationCode implements Mailer.
func (f MailerFunc) SendVerificationCode(ctx context.Context, to, code string) error {
	return f(ctx, to, code)
}
