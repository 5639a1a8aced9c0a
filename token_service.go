package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

const (
	// DefaultSessionTTL is how long a session token lives
	DefaultSessionTTL = 5 * 24 * time.Hour
	// DefaultPendingTTL is how long a registration can wait for its code
	DefaultPendingTTL = 10 * time.Minute
)

// Token audiences keep session and pending tokens from standing in for
// each other.
const (
	AudienceSession = "session"
	AudiencePending = "pending"
)

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	issuer     string
	sessionTTL time.Duration
	pendingTTL time.Duration
	now        func() time.Time
	logger     Logger
}

// TokenServiceOption customizes a TokenServiceImpl
type TokenServiceOption func(*TokenServiceImpl)

// WithTokenClock overrides the time source, used to mint expired tokens
func WithTokenClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		ts.logger = normalizeLogger(logger)
	}
}

// NewTokenService creates a TokenService from cfg. An empty signing key
// is rejected.
func NewTokenService(cfg Config, opts ...TokenServiceOption) (*TokenServiceImpl, error) {
	if cfg == nil || cfg.GetSigningKey() == "" {
		return nil, ErrEmptySigningKey.Clone()
	}

	ts := &TokenServiceImpl{
		signingKey: []byte(cfg.GetSigningKey()),
		issuer:     cfg.GetIssuer(),
		sessionTTL: cfg.GetSessionTTL(),
		pendingTTL: cfg.GetPendingTTL(),
		now:        time.Now,
		logger:     defLogger{},
	}

	if ts.sessionTTL <= 0 {
		ts.sessionTTL = DefaultSessionTTL
	}

	if ts.pendingTTL <= 0 {
		ts.pendingTTL = DefaultPendingTTL
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts, nil
}

// SignSession mints the session token for user
func (ts *TokenServiceImpl) SignSession(user *User) (string, error) {
	if user == nil {
		return "", errors.New("user must not be nil", errors.CategoryInternal)
	}

	claims := &SessionClaims{
		RegisteredClaims: ts.registered(user.Email, AudienceSession, ts.sessionTTL),
		Username:         user.Username,
		UserRole:         user.Role,
		Email:            user.Email,
	}

	return ts.sign(claims)
}

// ValidateSession decodes a session token
func (ts *TokenServiceImpl) ValidateSession(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := ts.parse(tokenString, AudienceSession, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// SignPending mints the registration envelope holding pending and otp
func (ts *TokenServiceImpl) SignPending(pending PendingUser, otp string) (string, error) {
	claims := &PendingClaims{
		RegisteredClaims:  ts.registered(pending.Email, AudiencePending, ts.pendingTTL),
		User:              pending,
		VerificationToken: otp,
	}

	return ts.sign(claims)
}

// ValidatePending decodes a registration envelope
func (ts *TokenServiceImpl) ValidatePending(tokenString string) (*PendingClaims, error) {
	claims := &PendingClaims{}
	if err := ts.parse(tokenString, AudiencePending, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (ts *TokenServiceImpl) registered(subject, audience string, ttl time.Duration) jwt.RegisteredClaims {
	now := ts.now()
	claims := jwt.RegisteredClaims{
		Issuer:    ts.issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	ensureTokenID(&claims)
	return claims
}

func (ts *TokenServiceImpl) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

func (ts *TokenServiceImpl) parse(tokenString, audience string, claims jwt.Claims) error {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(ts.now),
		jwt.WithExpirationRequired(),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return errors.Wrap(err, ErrTokenExpired.Category, ErrTokenExpired.Message).
				WithCode(ErrTokenExpired.Code).
				WithTextCode(ErrTokenExpired.TextCode)
		}
		return errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithCode(ErrTokenMalformed.Code).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	if !token.Valid {
		return ErrTokenMalformed.Clone()
	}

	return nil
}
