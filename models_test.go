package auth_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-otp-auth"
)

func TestPendingUserToUser(t *testing.T) {
	pending := auth.PendingUser{
		Email:        " Ana@Example.com ",
		Username:     " ana ",
		PasswordHash: "$2a$10$hash",
		Role:         auth.RoleModerator,
	}

	user, err := pending.ToUser()
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, "ana", user.Username)
	assert.Equal(t, "$2a$10$hash", user.PasswordHash)
	assert.Equal(t, auth.RoleModerator, user.Role)
	assert.True(t, user.IsVerified)
	assert.Equal(t, mustUUID(t, "ana@example.com"), user.ID)

	again, err := auth.PendingUser{Email: "ana@example.com"}.ToUser()
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID, "id is derived from the normalized email")
}

func TestUserJSONHidesPasswordHash(t *testing.T) {
	user := &auth.User{
		Email:        "ana@example.com",
		Username:     "ana",
		PasswordHash: "$2a$10$secret",
		Role:         auth.RoleUser,
		IsVerified:   true,
	}

	raw, err := json.Marshal(user)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, string(raw), "password")
	assert.Contains(t, string(raw), `"role":"user"`)
	assert.Contains(t, string(raw), `"isVerified":true`)
}
