package sqlite

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portal.db")
	db, err := NewDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, path
}

func TestNewDB_CreatesPrivateDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "portal.db")

	db, err := NewDB(path)
	require.NoError(t, err)
	defer db.Close()

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	require.True(t, info.IsDir())
	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), info.Mode().Perm())
	}

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestNewDB_MigratesBasketTable(t *testing.T) {
	db, _ := openTemp(t)

	var name string
	err := db.conn.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='basket_items'",
	).Scan(&name)
	require.NoError(t, err)
	require.Equal(t, "basket_items", name)

	var notes int
	err = db.conn.QueryRow(
		"SELECT COUNT(*) FROM pragma_table_info('basket_items') WHERE name = 'notes'",
	).Scan(&notes)
	require.NoError(t, err)
	require.Equal(t, 1, notes)
}

func TestNewDB_BacksUpExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.db")

	db1, err := NewDB(path)
	require.NoError(t, err)
	_, err = db1.conn.Exec(
		"INSERT INTO basket_items (kind, part_number, quantity, added_at, updated_at) VALUES ('cart', 'P1', 1, 1, 1)")
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	_, err = os.Stat(path + ".bak")
	require.True(t, os.IsNotExist(err), "first open has nothing to back up")

	db2, err := NewDB(path)
	require.NoError(t, err)
	defer db2.Close()

	info, err := os.Stat(path + ".bak")
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))

	var count int
	require.NoError(t, db2.conn.QueryRow("SELECT COUNT(*) FROM basket_items").Scan(&count))
	require.Equal(t, 1, count, "reopening keeps data")
}

func TestNewDB_Pragmas(t *testing.T) {
	db, _ := openTemp(t)

	var journal string
	require.NoError(t, db.conn.QueryRow("PRAGMA journal_mode").Scan(&journal))
	require.Equal(t, "wal", journal)

	var fk int
	require.NoError(t, db.conn.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	require.Equal(t, 1, fk)

	var busy int
	require.NoError(t, db.conn.QueryRow("PRAGMA busy_timeout").Scan(&busy))
	require.Equal(t, 5000, busy)
}

func TestDB_CloseAndConnection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.db")
	db, err := NewDB(path)
	require.NoError(t, err)

	require.NotNil(t, db.Connection())
	require.NoError(t, db.Connection().Ping())
	require.NotNil(t, db.BasketRepository())

	require.NoError(t, db.Close())
	require.Error(t, db.conn.Ping())
}

func TestNewDB_TwoHandlesSameFile(t *testing.T) {
	db1, path := openTemp(t)

	db2, err := NewDB(path)
	require.NoError(t, err)
	defer db2.Close()

	var n1, n2 int
	require.NoError(t, db1.conn.QueryRow("SELECT COUNT(*) FROM basket_items").Scan(&n1))
	require.NoError(t, db2.conn.QueryRow("SELECT COUNT(*) FROM basket_items").Scan(&n2))
	require.Equal(t, n1, n2)
}

func TestNewDB_InvalidPath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := NewDB(filepath.Join(blocker, "portal.db"))
	require.Error(t, err)
}
