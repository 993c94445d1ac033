// ABOUTME: Tests for client configuration loading and validation
// ABOUTME: Covers defaults, env expansion, duration parsing, validation failures

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parley.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  url: wss://chat.example.com/ws
  dial_timeout: 5s
  reconnect_min_backoff: 500ms
  reconnect_max_backoff: 1m
auth:
  token_path: /tmp/parley-token
history:
  max_conversations: 50
  max_messages: 200
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "wss://chat.example.com/ws", cfg.Server.URL)
	assert.Equal(t, 5*time.Second, cfg.Server.DialTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Server.ReconnectMinBackoff)
	assert.Equal(t, time.Minute, cfg.Server.ReconnectMaxBackoff)
	assert.Equal(t, "/tmp/parley-token", cfg.Auth.TokenPath)
	assert.Equal(t, 50, cfg.History.MaxConversations)
	assert.Equal(t, 200, cfg.History.MaxMessages)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_DefaultsFillUnsetFields(t *testing.T) {
	path := writeConfig(t, `
server:
  url: ws://localhost:3000/ws
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Server.DialTimeout)
	assert.Equal(t, time.Second, cfg.Server.ReconnectMinBackoff)
	assert.Equal(t, 30*time.Second, cfg.Server.ReconnectMaxBackoff)
	assert.Zero(t, cfg.History.MaxConversations, "retention is unlimited by default")
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("PARLEY_TEST_SERVER", "ws://env.example.com/ws")

	path := writeConfig(t, `
server:
  url: ${PARLEY_TEST_SERVER}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ws://env.example.com/ws", cfg.Server.URL)
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, `
server:
  url: ws://localhost:3000/ws
  dial_timeout: not-a-duration
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial_timeout")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_RejectsNonWebsocketURL(t *testing.T) {
	cfg := Default()
	cfg.Server.URL = "http://example.com"
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNegativeRetention(t *testing.T) {
	cfg := Default()
	cfg.History.MaxMessages = -1
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsInvertedBackoff(t *testing.T) {
	cfg := Default()
	cfg.Server.ReconnectMinBackoff = time.Minute
	cfg.Server.ReconnectMaxBackoff = time.Second
	assert.Error(t, cfg.Validate())
}
