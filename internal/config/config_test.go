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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  path: /tmp/test.db
jwt:
  secret: test-secret
  expire_hours: 48
log:
  level: debug
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", c.Server.Address) // default survives partial files
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, "/tmp/test.db", c.Database.Path)
	assert.Equal(t, 48*time.Hour, c.TokenDuration())
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "jwt:\n  secret: file-secret\n")
	t.Setenv("TALLY_SERVER_PORT", "9000")
	t.Setenv("TALLY_JWT_SECRET", "env-secret")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, c.Server.Port)
	assert.Equal(t, "env-secret", c.JWT.Secret)
}

func TestLoad_RequiresSecret(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\n")
	_, err := Load(path)
	assert.Error(t, err)
}
