package testdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/6529-Collections/salesnode/internal/db"
	"github.com/stretchr/testify/require"
)

// SetupTestDB opens a migrated SQLite database in a per-test temp directory.
func SetupTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	sqlite, err := db.OpenSqlite(filepath.Join(t.TempDir(), "sqlite", "sales.db"))
	require.NoError(t, err)

	cleanup := func() {
		sqlite.Close()
	}
	return sqlite, cleanup
}
