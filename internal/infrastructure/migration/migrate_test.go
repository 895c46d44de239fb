package migration

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	dsn := "file:" + filepath.ToSlash(filepath.Join(t.TempDir(), "medbill.db"))
	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	return db, dsn
}

func tableExists(t *testing.T, dsn, table string) bool {
	t.Helper()
	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	defer db.Close()

	var n int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
	require.NoError(t, err)
	return n == 1
}

func TestMigrator_UpDown(t *testing.T) {
	db, dsn := openTestDB(t)

	m, err := New(db, zap.NewNop())
	require.NoError(t, err)
	defer m.Close()

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)

	require.NoError(t, m.Up())
	assert.True(t, tableExists(t, dsn, "medicines"))
	assert.True(t, tableExists(t, dsn, "app_settings"))

	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)

	// a second Up is a no-op
	require.NoError(t, m.Up())

	require.NoError(t, m.Steps(-1))
	assert.False(t, tableExists(t, dsn, "app_settings"))
	assert.True(t, tableExists(t, dsn, "medicines"))

	require.NoError(t, m.GoTo(2))
	assert.True(t, tableExists(t, dsn, "app_settings"))

	require.NoError(t, m.Down())
	assert.False(t, tableExists(t, dsn, "medicines"))
}

func TestMigrator_Force(t *testing.T) {
	db, _ := openTestDB(t)

	m, err := New(db, nil)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Force(1))

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestApplyAll(t *testing.T) {
	dsn := "file:" + filepath.ToSlash(filepath.Join(t.TempDir(), "medbill.db"))

	require.NoError(t, ApplyAll(dsn, zap.NewNop()))
	require.NoError(t, ApplyAll(dsn, zap.NewNop()))

	assert.True(t, tableExists(t, dsn, "medicines"))
}
