package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "shoplist.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 10*time.Minute, cfg.Invite.TTL())
	assert.True(t, cfg.Recipe.WebLookup)
	assert.Equal(t, 15*time.Second, cfg.Recipe.Timeout())
	assert.Equal(t, "gemini-1.5-flash", cfg.Parser.GeminiModel)
	assert.Equal(t, "http://localhost:8080", cfg.Client.Endpoint)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SHOPLIST_SERVER_PORT", "9090")
	t.Setenv("SHOPLIST_INVITE_TTL_MINUTES", "3")
	t.Setenv("SHOPLIST_CLIENT_LIST_ID", "42")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3*time.Minute, cfg.Invite.TTL())
	assert.Equal(t, int64(42), cfg.Client.ListID)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SHOPLIST_DATABASE_PATH=/tmp/lists.db\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("SHOPLIST_DATABASE_PATH") })

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/lists.db", cfg.Database.Path)
}
