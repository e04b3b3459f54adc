package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "presenced.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeTempConfig(t, `
app:
  client_id: "1234567890"
  users:
    alice: token-a
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":5030", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Equal(t, "presence", cfg.Store.Prefix)
	assert.Equal(t, "https://discord.com/api", cfg.Gateway.APIBase)
	assert.Equal(t, 41*time.Second, cfg.Gateway.HeartbeatInterval)
	assert.Equal(t, "token-a", cfg.App.Users["alice"])
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("PRESENCED_REDIS_ADDR", "10.0.0.5:6379")
	path := writeTempConfig(t, `
store:
  type: redis
  redis:
    addr: ${PRESENCED_REDIS_ADDR}
    db: ${PRESENCED_REDIS_DB:2}
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Store.Type)
	assert.Equal(t, "10.0.0.5:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 2, cfg.Store.Redis.DB)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTempConfig(t, "app: [not a map")
	_, err := Load(path)
	assert.Error(t, err)
}
