package config

import (
	"encoding/base64"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeFile(t, `
node:
  name: node-2
  serf:
    bind_addr: 127.0.0.1:7947
cluster:
  seeds: ["127.0.0.1:7946"]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "node-2", cfg.Node.Name)
	assert.Equal(t, 8080, cfg.Node.HTTP.Port)
	assert.Equal(t, "./gantt.db", cfg.Node.Database.Path)
	assert.Equal(t, []string{"127.0.0.1:7946"}, cfg.Cluster.Seeds)
	assert.Equal(t, 10*time.Second, cfg.Cluster.JoinTimeoutDuration())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Cluster.Standalone)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, "node: [unclosed"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "node-1", cfg.Node.Name)
	assert.Equal(t, "0.0.0.0:7946", cfg.Node.Serf.BindAddr)
	assert.Equal(t, 8080, cfg.Node.HTTP.Port)
}

func TestDecodeEncryptKey(t *testing.T) {
	key, err := ClusterConfig{}.DecodeEncryptKey()
	require.NoError(t, err)
	assert.Nil(t, key)

	raw := make([]byte, 32)
	key, err = ClusterConfig{EncryptKey: base64.StdEncoding.EncodeToString(raw)}.DecodeEncryptKey()
	require.NoError(t, err)
	assert.Len(t, key, 32)

	_, err = ClusterConfig{EncryptKey: base64.StdEncoding.EncodeToString(raw[:10])}.DecodeEncryptKey()
	assert.Error(t, err)

	_, err = ClusterConfig{EncryptKey: "%%%"}.DecodeEncryptKey()
	assert.Error(t, err)
}

func TestLoadClientConfig(t *testing.T) {
	cfg, err := LoadClientConfig(writeFile(t, "server_url: http://gantt:9000\nmax_pending: 5\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://gantt:9000", cfg.ServerURL)
	assert.Equal(t, 5, cfg.MaxPending)
	assert.Equal(t, 10*time.Second, cfg.TimeoutDuration())
	assert.Equal(t, "warn", cfg.LogLevel)

	def := DefaultClient()
	assert.Equal(t, "http://127.0.0.1:8080", def.ServerURL)
	assert.Equal(t, 3, def.MaxPending)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("bogus"))
}
