package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	cfg := Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "nested", "data.db")}

	db, err := Open(cfg)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db))
	// idempotent
	require.NoError(t, Migrate(db))

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM documents`))
	assert.Equal(t, 0, n)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	assert.Error(t, err)
}

func TestDefaultConfigEnv(t *testing.T) {
	t.Setenv("STOREFRONT_DB_DSN", "")
	t.Setenv("STOREFRONT_DB_PATH", "/tmp/x.db")
	assert.Equal(t, Config{Driver: DriverSQLite, Path: "/tmp/x.db"}, DefaultConfig())

	t.Setenv("STOREFRONT_DB_DSN", "postgres://u@h/db")
	assert.Equal(t, DriverPostgres, DefaultConfig().Driver)
}
