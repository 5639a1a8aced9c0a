package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-otp-auth"
)

func TestNewTokenServiceRequiresKey(t *testing.T) {
	cfg := newTestConfig()
	cfg.key = ""

	ts, err := auth.NewTokenService(cfg)
	require.Error(t, err)
	assert.Nil(t, ts)
	assert.True(t, auth.HasTextCode(err, auth.TextCodeEmptySigningKey))
}

func TestNewTokenServiceDefaultsTTLs(t *testing.T) {
	cfg := newTestConfig()
	cfg.sessionTTL = 0
	cfg.pendingTTL = 0

	ts, err := auth.NewTokenService(cfg, auth.WithTokenLogger(nopLogger{}))
	require.NoError(t, err)

	token, err := ts.SignPending(auth.PendingUser{Email: "a@example.com"}, fixedOTP)
	require.NoError(t, err)

	claims, err := ts.ValidatePending(token)
	require.NoError(t, err)
	assert.Equal(t, auth.DefaultPendingTTL, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestSessionTokenRoundTrip(t *testing.T) {
	ts := newTestTokens(t)
	user := &auth.User{
		Email:    "ana@example.com",
		Username: "ana",
		Role:     auth.RoleModerator,
	}

	token, err := ts.SignSession(user)
	require.NoError(t, err)

	claims, err := ts.ValidateSession(token)
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", claims.Subject)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, "ana", claims.Username)
	assert.Equal(t, auth.RoleModerator, claims.Role())
	assert.Equal(t, testIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, 120*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestSessionTokensAreUnique(t *testing.T) {
	ts := newTestTokens(t)
	user := &auth.User{Email: "ana@example.com", Username: "ana", Role: auth.RoleUser}

	a, err := ts.SignSession(user)
	require.NoError(t, err)
	b, err := ts.SignSession(user)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestPendingTokenRoundTrip(t *testing.T) {
	ts := newTestTokens(t)
	pending := auth.PendingUser{
		Email:        "bob@example.com",
		Username:     "bob",
		PasswordHash: "$2a$10$hash",
		Role:         auth.RoleUser,
	}

	token, err := ts.SignPending(pending, "654321")
	require.NoError(t, err)

	claims, err := ts.ValidatePending(token)
	require.NoError(t, err)

	assert.Equal(t, pending, claims.User)
	assert.Equal(t, "654321", claims.VerificationToken)
	assert.Equal(t, "bob@example.com", claims.Subject)
	assert.Equal(t, 10*time.Minute, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestTokenValidationFailures(t *testing.T) {
	ts := newTestTokens(t)
	user := &auth.User{Email: "ana@example.com", Username: "ana", Role: auth.RoleUser}

	past := func() time.Time { return time.Now().Add(-6 * 24 * time.Hour) }
	expired, err := newTestTokens(t, auth.WithTokenClock(past)).SignSession(user)
	require.NoError(t, err)

	otherCfg := newTestConfig()
	otherCfg.key = "another-secret"
	other, err := auth.NewTokenService(otherCfg, auth.WithTokenLogger(nopLogger{}))
	require.NoError(t, err)
	wrongKey, err := other.SignSession(user)
	require.NoError(t, err)

	otherIssuerCfg := newTestConfig()
	otherIssuerCfg.issuer = "someone-else"
	otherIssuer, err := auth.NewTokenService(otherIssuerCfg, auth.WithTokenLogger(nopLogger{}))
	require.NoError(t, err)
	wrongIssuer, err := otherIssuer.SignSession(user)
	require.NoError(t, err)

	claims := &auth.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   user.Email,
			Audience:  jwt.ClaimStrings{auth.AudienceSession},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserRole: auth.RoleAdmin,
		Email:    user.Email,
	}
	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExp := &auth.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   testIssuer,
			Subject:  user.Email,
			Audience: jwt.ClaimStrings{auth.AudienceSession},
		},
		UserRole:         auth.RoleUser,
	}
	withoutExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, noExp).SignedString([]byte(testSecret))
	require.NoError(t, err)

	pending, err := ts.SignPending(auth.PendingUser{Email: user.Email, Username: user.Username, Role: auth.RoleAdmin}, fixedOTP)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		code  string
	}{
		{"expired", expired, auth.TextCodeTokenExpired},
		{"pending token", pending, auth.TextCodeTokenMalformed},
		{"wrong key", wrongKey, auth.TextCodeTokenMalformed},
		{"wrong issuer", wrongIssuer, auth.TextCodeTokenMalformed},
		{"alg none", noneAlg, auth.TextCodeTokenMalformed},
		{"alg hs512", hs512, auth.TextCodeTokenMalformed},
		{"no expiry", withoutExpiry, auth.TextCodeTokenMalformed},
		{"garbage", "not.a.jwt", auth.TextCodeTokenMalformed},
		{"empty", "", auth.TextCodeTokenMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ts.ValidateSession(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.True(t, auth.HasTextCode(err, tt.code), "expected %s", tt.code)
			assert.Equal(t, 401, auth.ErrorStatus(err))
		})
	}
}

func TestPendingRejectsSessionToken(t *testing.T) {
	ts := newTestTokens(t)
	session, err := ts.SignSession(&auth.User{Email: "ana@example.com", Username: "ana", Role: auth.RoleUser})
	require.NoError(t, err)

	claims, err := ts.ValidatePending(session)
	require.Error(t, err)
	assert.Nil(t, claims)
	assert.True(t, auth.HasTextCode(err, auth.TextCodeTokenMalformed))
}

func TestPendingTokenExpires(t *testing.T) {
	past := func() time.Time { return time.Now().Add(-11 * time.Minute) }
	token, err := newTestTokens(t, auth.WithTokenClock(past)).SignPending(auth.PendingUser{Email: "a@example.com"}, fixedOTP)
	require.NoError(t, err)

	_, err = newTestTokens(t).ValidatePending(token)
	require.Error(t, err)
	assert.True(t, auth.HasTextCode(err, auth.TextCodeTokenExpired))
}
