package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the payload of the session cookie
type SessionClaims struct {
	jwt.RegisteredClaims
	Username string   `json:"username"`
	UserRole UserRole `json:"role"`
	Email    string   `json:"email"`
}

// Role returns the role carried by the session
func (c *SessionClaims) Role() UserRole {
	return c.UserRole
}

// PendingClaims is the payload of the pending registration cookie. The
// code lives next to the candidate user so both are covered by one signature.
type PendingClaims struct {
	jwt.RegisteredClaims
	User              PendingUser `json:"user"`
	VerificationToken string      `json:"verificationToken" mask:"filled"`
}

// ensureTokenID stamps a jti so each token is distinguishable in logs
func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
