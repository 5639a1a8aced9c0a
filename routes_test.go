package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-otp-auth"
)

func TestNewServiceValidatesDependencies(t *testing.T) {
	repo := newTestRepo(t)

	emptyKey := newTestConfig()
	emptyKey.key = ""
	_, err := auth.NewService(emptyKey, repo, &captureMailer{}, auth.WithServiceLogger(nopLogger{}))
	require.Error(t, err)
	assert.True(t, auth.HasTextCode(err, auth.TextCodeEmptySigningKey))

	_, err = auth.NewService(newTestConfig(), repo, nil, auth.WithServiceLogger(nopLogger{}))
	require.Error(t, err)

	svc, err := auth.NewService(newTestConfig(), repo, &captureMailer{}, auth.WithServiceLogger(nopLogger{}))
	require.NoError(t, err)
	assert.Equal(t, auth.DefaultCookieName, svc.Guard.CookieName)
	assert.Equal(t, auth.DefaultContextKey, svc.Guard.ContextKey)
}

func TestServiceUsesConfiguredCookie(t *testing.T) {
	cfg := newTestConfig()
	cfg.cookie = "sid"
	cfg.secure = true

	svc, err := auth.NewService(cfg, newTestRepo(t), &captureMailer{},
		auth.WithServiceLogger(nopLogger{}),
		auth.WithServiceOTPGenerator(fixedOTPGenerator),
	)
	require.NoError(t, err)

	app := newErrorApp()
	svc.Mount(app.Group("/api"))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(anaRegistration))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	cookie := findCookie(resp, "sid")
	require.NotNil(t, cookie)
	assert.True(t, cookie.Secure)
	assert.Nil(t, findCookie(resp, auth.DefaultCookieName))
}

func TestRegisterLimiter(t *testing.T) {
	app := newErrorApp()
	app.Post("/register", auth.NewRegisterLimiter(2, time.Minute), func(c *fiber.Ctx) error {
		return auth.SendEnvelope(c, fiber.StatusCreated, auth.MsgRegistered)
	})

	statuses := []int{}
	var last auth.Envelope
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/register", nil), -1)
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&last))
	}

	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, statuses)
	assert.False(t, last.Success)
	assert.Equal(t, auth.MsgTooManyRequests, last.Message)
}
