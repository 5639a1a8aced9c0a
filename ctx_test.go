package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	auth "github.com/goliatone/go-otp-auth"
)

func TestClaimsContextRoundTrip(t *testing.T) {
	claims := &auth.SessionClaims{Email: "ana@example.com", UserRole: auth.RoleUser}
	ctx := auth.WithClaimsContext(context.Background(), claims)

	got, ok := auth.GetClaims(ctx)
	assert.True(t, ok)
	assert.Same(t, claims, got)

	_, ok = auth.GetClaims(context.Background())
	assert.False(t, ok)

	_, ok = auth.GetClaims(auth.WithClaimsContext(context.Background(), nil))
	assert.False(t, ok)
}
