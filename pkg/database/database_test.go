package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("in-memory sqlite shares one connection", func(t *testing.T) {
		db, err := New(ctx)
		require.NoError(t, err)
		defer db.Close()

		_, err = db.ExecContext(ctx, `CREATE TABLE t (v INTEGER)`)
		require.NoError(t, err)
		_, err = db.ExecContext(ctx, `INSERT INTO t (v) VALUES (1)`)
		require.NoError(t, err)

		var n int
		require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM t`).Scan(&n))
		assert.Equal(t, 1, n)
		assert.Equal(t, 1, db.Stats().MaxOpenConnections)
	})

	t.Run("file path creates directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

		db, err := New(ctx, WithDataSource(path))
		require.NoError(t, err)
		defer db.Close()

		_, err = db.ExecContext(ctx, `CREATE TABLE t (v INTEGER)`)
		require.NoError(t, err)
		assert.FileExists(t, path)
	})

	t.Run("empty driver", func(t *testing.T) {
		_, err := New(ctx, WithDriver(""))
		assert.EqualError(t, err, "database driver cannot be empty")
	})

	t.Run("empty data source", func(t *testing.T) {
		_, err := New(ctx, WithDataSource(""))
		assert.EqualError(t, err, "database data source cannot be empty")
	})

	t.Run("unknown driver exhausts retries", func(t *testing.T) {
		_, err := New(ctx, WithDriver("nope"), WithRetry(2, time.Millisecond))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "after 2 attempts")
	})
}

func TestEnsureDir(t *testing.T) {
	assert.NoError(t, ensureDir(":memory:"))
	assert.NoError(t, ensureDir("file::memory:?cache=shared"))
	assert.NoError(t, ensureDir("local.db"))

	dir := filepath.Join(t.TempDir(), "a")
	assert.NoError(t, ensureDir("file:"+filepath.Join(dir, "x.db")+"?_fk=1"))
	assert.DirExists(t, dir)
}
