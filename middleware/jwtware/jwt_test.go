package jwtware_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-otp-auth/middleware/jwtware"
)

type ctxKey struct{}

var errBadToken = errors.New("bad token")

func validator(t *testing.T) jwtware.TokenValidator {
	t.Helper()
	return jwtware.TokenValidatorFunc(func(token string) (any, error) {
		if token == "good" {
			return "claims-for-good", nil
		}
		return nil, errBadToken
	})
}

func newApp(t *testing.T, cfg jwtware.Config) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Get("/protected", jwtware.New(cfg), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user").(string))
	})
	return app
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestJWTWare_CookieExtraction(t *testing.T) {
	app := newApp(t, jwtware.Config{TokenValidator: validator(t)})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "good"})

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "claims-for-good", body(t, resp))
}

func TestJWTWare_DefaultErrorHandler(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		status int
	}{
		{name: "missing cookie is unauthorized", status: http.StatusUnauthorized},
		{name: "invalid token is forbidden", cookie: "bad", status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(t, jwtware.Config{TokenValidator: validator(t)})
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestJWTWare_CookieLookupOrder(t *testing.T) {
	app := newApp(t, jwtware.Config{
		TokenValidator: validator(t),
		TokenLookup:    "cookie:sid,cookie:token",
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "good"})

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// bearer headers are not a token source
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good")

	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestJWTWare_CustomErrorHandlerReceivesCause(t *testing.T) {
	var got error
	app := newApp(t, jwtware.Config{
		TokenValidator: validator(t),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			got = err
			return c.SendStatus(http.StatusTeapot)
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "bad"})

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.ErrorIs(t, got, errBadToken)
}

func TestJWTWare_ListenersAndEnricher(t *testing.T) {
	listenerCalled := false
	app := fiber.New()
	app.Get("/protected", jwtware.New(jwtware.Config{
		TokenValidator: validator(t),
		ValidationListeners: []jwtware.ValidationListener{
			nil,
			func(c *fiber.Ctx, claims any) error {
				listenerCalled = true
				assert.Equal(t, "claims-for-good", claims)
				return nil
			},
		},
		ContextEnricher: func(ctx context.Context, claims any) context.Context {
			return context.WithValue(ctx, ctxKey{}, claims)
		},
	}), func(c *fiber.Ctx) error {
		return c.SendString(c.UserContext().Value(ctxKey{}).(string))
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "good"})

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "claims-for-good", body(t, resp))
	assert.True(t, listenerCalled)
}

func TestJWTWare_ListenerErrorStopsRequest(t *testing.T) {
	app := newApp(t, jwtware.Config{
		TokenValidator: validator(t),
		ValidationListeners: []jwtware.ValidationListener{
			func(*fiber.Ctx, any) error { return errors.New("denied") },
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "good"})

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestJWTWare_Filter(t *testing.T) {
	app := fiber.New()
	app.Get("/open", jwtware.New(jwtware.Config{
		TokenValidator: validator(t),
		Filter:         func(*fiber.Ctx) bool { return true },
	}), func(c *fiber.Ctx) error {
		return c.SendString("open")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/open", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
