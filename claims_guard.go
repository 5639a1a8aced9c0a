package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-otp-auth/middleware/jwtware"
)

// SessionValidator adapts a TokenService to jwtware.TokenValidator
type SessionValidator struct {
	Tokens TokenService
}

func (v SessionValidator) Validate(tokenString string) (any, error) {
	return v.Tokens.ValidateSession(tokenString)
}

// GuardOptions configures the authentication and authorization stages
type GuardOptions struct {
	CookieName string
	ContextKey string
	Logger     Logger
	Activity   ActivitySink
}

func (o GuardOptions) normalize() GuardOptions {
	if o.CookieName == "" {
		o.CookieName = DefaultCookieName
	}
	if o.ContextKey == "" {
		o.ContextKey = DefaultContextKey
	}
	o.Logger = normalizeLogger(o.Logger)
	return o
}

// Authenticate reads the session cookie, rejecting a missing cookie with
// 401 and a bad or expired one with 403. Claims land in Locals under
// ContextKey and in the user context.
func Authenticate(tokens TokenService, opts GuardOptions) fiber.Handler {
	opts = opts.normalize()

	return jwtware.New(jwtware.Config{
		TokenLookup:    "cookie:" + opts.CookieName,
		ContextKey:     opts.ContextKey,
		TokenValidator: SessionValidator{Tokens: tokens},
		ContextEnricher: func(ctx context.Context, claims any) context.Context {
			if sc, ok := claims.(*SessionClaims); ok {
				return WithClaimsContext(ctx, sc)
			}
			return ctx
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
				denyAccess(c, opts, "", "missing_token")
				return ErrTokenNotAvailable.Clone()
			}

			reason := "invalid_token"
			if HasTextCode(err, TextCodeTokenExpired) {
				reason = "expired_token"
			}
			denyAccess(c, opts, "", reason)
			return ErrSessionInvalid.Clone()
		},
	})
}

// RequireRoles lets the request through only when the authenticated role is
// a member of allowed. It must run after Authenticate.
func RequireRoles(allowed RoleSet, opts GuardOptions) fiber.Handler {
	opts = opts.normalize()

	return func(c *fiber.Ctx) error {
		claims, ok := GetRouterClaims(c, opts.ContextKey)
		if !ok || claims.Role() == "" {
			denyAccess(c, opts, "", "missing_role")
			return ErrRoleMissing.Clone()
		}

		if !allowed.Allows(claims.Role()) {
			denyAccess(c, opts, claims.Role(), "role_forbidden")
			return ErrRoleForbidden.Clone()
		}

		return c.Next()
	}
}

// Protected chains Authenticate and RequireRoles for a route group
func Protected(tokens TokenService, allowed RoleSet, opts GuardOptions) []fiber.Handler {
	return []fiber.Handler{
		Authenticate(tokens, opts),
		RequireRoles(allowed, opts),
	}
}

func denyAccess(c *fiber.Ctx, opts GuardOptions, role UserRole, reason string) {
	opts.Logger.Debug("access denied on %s: %s", c.Path(), reason)
	recordActivity(c.UserContext(), opts.Activity, opts.Logger, ActivityEvent{
		EventType: ActivityEventAccessDenied,
		Role:      role,
		Reason:    reason,
	})
}
