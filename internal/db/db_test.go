package db_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/gitpm/internal/db"
	"github.com/vrsandeep/gitpm/migrations"
)

func TestInitDBAndMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gitpm.db")
	database, err := db.InitDB(path)
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, db.RunMigrations(database, migrations.FS, migrations.Dir))

	for _, table := range []string{"installed_packages", "operations"} {
		var name string
		err := database.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}

	// Running migrations twice is a no-op.
	assert.NoError(t, db.RunMigrations(database, migrations.FS, migrations.Dir))
}
