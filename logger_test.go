package auth_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-otp-auth"
)

func TestSlogLoggerFormatsAndTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := auth.NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	logger.Debug("hidden %d", 1)
	logger.Warn("login failed for %s: %s", "ana@example.com", "bad_password")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "login failed for ana@example.com: bad_password", record["msg"])
	assert.Equal(t, "auth", record["component"])
}

func TestNewSlogLoggerDefaultsWhenNil(t *testing.T) {
	logger := auth.NewSlogLogger(nil)
	require.NotNil(t, logger.Slog())
}
