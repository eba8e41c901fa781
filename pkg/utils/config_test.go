package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{"HTTP_ADDR", "STORE_DRIVER", "REDIS_ADDR", "MEDIA_CLOUD_NAME", "JWT_TTL_HOURS", "DB_DSN", "DB_PATH"} {
		t.Setenv(envPrefix+k, "")
	}

	cfg := LoadAppConfig()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":7070", cfg.TCPAddr)
	assert.Equal(t, "sqlite3", cfg.Store.Driver)
	assert.Equal(t, "storefront:catalog-events", cfg.EventsChannel)
	assert.Equal(t, 15*time.Second, cfg.Media.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Auth.JWTDuration)
	assert.False(t, cfg.MediaEnabled())
}

func TestLoadAppConfigOverrides(t *testing.T) {
	t.Setenv("STOREFRONT_HTTP_ADDR", ":9999")
	t.Setenv("STOREFRONT_STORE_DRIVER", "redis")
	t.Setenv("STOREFRONT_REDIS_ADDR", "localhost:6379")
	t.Setenv("STOREFRONT_REDIS_DB", "3")
	t.Setenv("STOREFRONT_MEDIA_CLOUD_NAME", "demo")
	t.Setenv("STOREFRONT_MEDIA_UPLOAD_PRESET", "unsigned")
	t.Setenv("STOREFRONT_MEDIA_TIMEOUT", "3s")
	t.Setenv("STOREFRONT_JWT_TTL_HOURS", "not-a-number")
	t.Setenv("STOREFRONT_LOG_DEV", "true")

	cfg := LoadAppConfig()

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "localhost:6379", cfg.Store.RedisAddr)
	assert.Equal(t, 3, cfg.Store.RedisDB)
	assert.Equal(t, 3*time.Second, cfg.Media.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Auth.JWTDuration)
	assert.True(t, cfg.Log.Development)
	assert.True(t, cfg.MediaEnabled())
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, LoadEnvFiles(), "missing files are fine")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STOREFRONT_TEST_ONLY_KEY=from-file\n"), 0o600))
	t.Setenv("STOREFRONT_TEST_ONLY_KEY", "")
	require.NoError(t, os.Unsetenv("STOREFRONT_TEST_ONLY_KEY"))

	require.NoError(t, LoadEnvFiles())
	assert.Equal(t, "from-file", getenv("TEST_ONLY_KEY", ""))
}

func TestLoadAppConfigDSNSelectsPostgres(t *testing.T) {
	t.Setenv("STOREFRONT_STORE_DRIVER", "")
	t.Setenv("STOREFRONT_DB_DSN", "postgres://u@localhost/storefront")

	cfg := LoadAppConfig()

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://u@localhost/storefront", cfg.Store.Database.DSN)
}
