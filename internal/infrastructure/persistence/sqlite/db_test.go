package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite3", "file:"+filepath.Join(t.TempDir(), "tx.db")+"?_busy_timeout=5000")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	_, err = sqlDB.Exec(`CREATE TABLE counters (name TEXT PRIMARY KEY, value INTEGER NOT NULL)`)
	require.NoError(t, err)
	return NewDB(sqlDB, zap.NewNop())
}

func count(t *testing.T, db *DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM counters`).Scan(&n))
	return n
}

func TestWithTransaction_Commit(t *testing.T) {
	db := openTestDB(t)

	err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
		_, err := Executor(ctx, db.DB).ExecContext(ctx, `INSERT INTO counters (name, value) VALUES ('a', 1)`)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count(t, db))
}

func TestWithTransaction_RollbackOnError(t *testing.T) {
	db := openTestDB(t)
	boom := errors.New("boom")

	err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
		if _, err := Executor(ctx, db.DB).ExecContext(ctx, `INSERT INTO counters (name, value) VALUES ('a', 1)`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, count(t, db))
}

func TestWithTransaction_NestedJoinsOuter(t *testing.T) {
	db := openTestDB(t)
	boom := errors.New("outer failed")

	assert.False(t, InTransaction(context.Background()))
	err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
		assert.True(t, InTransaction(ctx))
		inner := db.WithTransaction(ctx, func(ctx context.Context) error {
			_, err := Executor(ctx, db.DB).ExecContext(ctx, `INSERT INTO counters (name, value) VALUES ('b', 2)`)
			return err
		})
		require.NoError(t, inner)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, count(t, db), "inner write must roll back with the outer transaction")
}

func TestWithTransaction_PanicRollsBack(t *testing.T) {
	db := openTestDB(t)

	assert.Panics(t, func() {
		_ = db.WithTransaction(context.Background(), func(ctx context.Context) error {
			_, _ = Executor(ctx, db.DB).ExecContext(ctx, `INSERT INTO counters (name, value) VALUES ('c', 3)`)
			panic("handler bug")
		})
	})
	assert.Equal(t, 0, count(t, db))
}

func TestExecutor_WithoutTransaction(t *testing.T) {
	db := openTestDB(t)

	q := Executor(context.Background(), db.DB)
	_, ok := q.(*sql.DB)
	assert.True(t, ok)
}
