package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "engine.db"), MaxOpenConns: 1}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLoadMigrations_Order(t *testing.T) {
	fsys := fstest.MapFS{
		"010_add_index.sql":      {Data: []byte("CREATE INDEX x ON t(a);")},
		"002_second.sql":         {Data: []byte("CREATE TABLE t (a INTEGER);")},
		"README.md":              {Data: []byte("ignored")},
		"001_initial_schema.sql": {Data: []byte("SELECT 1;")},
	}

	migrations, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{migrations[0].Version, migrations[1].Version, migrations[2].Version})
	assert.Equal(t, "initial_schema", migrations[0].Name)
}

func TestLoadMigrations_Invalid(t *testing.T) {
	_, err := LoadMigrations(fstest.MapFS{"schema.sql": {Data: []byte("SELECT 1;")}})
	assert.Error(t, err)

	_, err = LoadMigrations(fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"001_b.sql": {Data: []byte("SELECT 1;")},
	})
	assert.Error(t, err)
}

func TestRunMigrations_EmbeddedSchemaIsIdempotent(t *testing.T) {
	db := openTemp(t)
	migrator := NewMigrator(db, zap.NewNop())

	require.NoError(t, migrator.RunMigrations(Migrations()))
	require.NoError(t, migrator.RunMigrations(Migrations()))

	for _, table := range []string{"reports", "expenses", "travel_requests", "approval_steps", "approved_budgets", "notifications", "policy_violations", "status_history"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}

	var applied int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&applied))
	assert.Equal(t, 2, applied)

	var attempts int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('notifications') WHERE name = 'attempts'`).Scan(&attempts))
	assert.Equal(t, 1, attempts)
}

func TestRunMigrations_FailureRollsBack(t *testing.T) {
	db := openTemp(t)
	migrator := NewMigrator(db, zap.NewNop())

	err := migrator.RunMigrations(fstest.MapFS{
		"001_ok.sql":     {Data: []byte("CREATE TABLE ok (a INTEGER);")},
		"002_broken.sql": {Data: []byte("CREATE TABLE broken (;")},
	})
	require.Error(t, err)

	var applied int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&applied))
	assert.Equal(t, 2, applied)

	var attempts int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('notifications') WHERE name = 'attempts'`).Scan(&attempts))
	assert.Equal(t, 1, attempts)
}
