package auth

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

// Auther checks credentials against the store and mints sessions
type Auther struct {
	users        Users
	tokenService TokenService
	logger       Logger
	activitySink ActivitySink
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(users Users, tokens TokenService) *Auther {
	return &Auther{
		users:        users,
		tokenService: tokens,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = normalizeLogger(logger)
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// Login returns a signed session token for valid credentials.
// Unknown email and wrong password are reported with different errors.
func (s *Auther) Login(ctx context.Context, email, password string) (string, error) {
	if err := validation.Validate(strings.TrimSpace(email), validation.Required); err != nil {
		return "", missingFieldsError()
	}
	if err := validation.Validate(password, validation.Required); err != nil {
		return "", missingFieldsError()
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if HasTextCode(err, TextCodeUserNotFound) {
			s.loginFailed(ctx, email, "unknown_email")
		}
		return "", err
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if HasTextCode(err, TextCodePasswordMismatch) {
			s.loginFailed(ctx, email, "bad_password")
			return "", ErrInvalidCredentials.Clone()
		}
		return "", err
	}

	token, err := s.tokenService.SignSession(user)
	if err != nil {
		return "", err
	}

	recordActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Email:     user.Email,
		Role:      user.Role,
	})

	return token, nil
}

// SessionFromToken decodes a session cookie
func (s *Auther) SessionFromToken(token string) (*SessionClaims, error) {
	return s.tokenService.ValidateSession(token)
}

func (s *Auther) loginFailed(ctx context.Context, email, reason string) {
	s.logger.Info("login failed for %s: %s", email, reason)
	recordActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		Email:     normalizeEmail(email),
		Reason:    reason,
	})
}

func missingFieldsError() error {
	return goerrors.New(msgMissingFields, goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithTextCode(TextCodeValidation)
}
