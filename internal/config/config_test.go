package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, cfg.Key)
	assert.Empty(t, cfg.Secret)
	assert.Equal(t, 30*time.Second, cfg.REST.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.REST.Retry.InitialInterval)
	assert.Equal(t, 10*time.Second, cfg.REST.Retry.MaxInterval)
	assert.Equal(t, uint64(3), cfg.REST.Retry.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.Stream.DialTimeout)
	assert.Equal(t, 10*time.Second, cfg.Stream.WriteTimeout)
	assert.Equal(t, 256, cfg.Stream.Buffer)
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
key: file-key
secret: file-secret
rest:
  base_url: https://data.example.com
  timeout: 5s
  retry:
    max_attempts: 7
stream:
  url: wss://stream.example.com/v2/iex
  buffer: 64
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.Key)
	assert.Equal(t, "file-secret", cfg.Secret)
	assert.Equal(t, "https://data.example.com", cfg.REST.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.REST.Timeout)
	assert.Equal(t, uint64(7), cfg.REST.Retry.MaxAttempts)
	assert.Equal(t, "wss://stream.example.com/v2/iex", cfg.Stream.URL)
	assert.Equal(t, 64, cfg.Stream.Buffer)

	// Keys the file omits keep their defaults.
	assert.Equal(t, 500*time.Millisecond, cfg.REST.Retry.InitialInterval)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("MARKETWIRE_KEY", "env-key")
	t.Setenv("MARKETWIRE_REST_BASE_URL", "https://env.example.com")
	t.Setenv("MARKETWIRE_STREAM_URL", "wss://env.example.com/stream")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Key)
	assert.Equal(t, "https://env.example.com", cfg.REST.BaseURL)
	assert.Equal(t, "wss://env.example.com/stream", cfg.Stream.URL)
}

func TestLoadConfig_EnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("key: file-key\n"), 0o600))
	t.Setenv("MARKETWIRE_KEY", "env-key")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Key)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("key: [unclosed\n"), 0o600))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}
