package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDB_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "pagechat.db")

	db, err := InitDB(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'kv'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "kv", name)
}

func TestInitDB_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagechat.db")

	db, err := InitDB(path)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO kv (key, value, updated_at) VALUES ('k', 'v', CURRENT_TIMESTAMP)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening must not fail on an already-migrated database or lose data.
	db, err = InitDB(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var value string
	require.NoError(t, db.QueryRow("SELECT value FROM kv WHERE key = 'k'").Scan(&value))
	assert.Equal(t, "v", value)
}
