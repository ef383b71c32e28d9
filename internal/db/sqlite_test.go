package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_RunsMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lens.db")

	database, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	var tables []string
	require.NoError(t, database.Select(&tables,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name IN ('documents', 'connections', 'projects') ORDER BY name`))
	assert.Equal(t, []string{"connections", "documents", "projects"}, tables)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "lens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	assert.NoError(t, RunMigrations(database))
}
