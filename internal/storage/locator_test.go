package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// denyUnder makes every target inside dir unwritable.
func denyUnder(dirs ...string) func(string) bool {
	return func(path string) bool {
		for _, d := range dirs {
			if path == d || filepath.Dir(path) == d {
				return false
			}
		}
		return isWritable(path)
	}
}

func seedDatabaseFile(t *testing.T, path, uid string) {
	t.Helper()

	db, err := open(context.Background(), path, ModePreferred, Options{})
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE items (name TEXT PRIMARY KEY)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO items (name) VALUES (?)`, uid)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func itemNames(t *testing.T, db *DB) []string {
	t.Helper()

	rows, err := db.Query(`SELECT name FROM items ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		names = append(names, n)
	}
	require.NoError(t, rows.Err())
	return names
}

func TestResolveUsesPreferredWhenWritable(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	preferred := filepath.Join(base, "root", "gate.sqlite3")
	fallback := filepath.Join(base, "webui", "data", "app.sqlite3")

	db, err := ResolveWritableDatabase(context.Background(), preferred, fallback, Options{})
	require.NoError(t, err)
	defer db.Close()

	require.Equal(t, ModePreferred, db.Mode())
	require.Equal(t, preferred, db.Path())
	require.FileExists(t, preferred)
	require.NoFileExists(t, fallback)
	require.DirExists(t, filepath.Dir(fallback))
}

func TestResolveOpensPathWithURIMetacharacters(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	preferred := filepath.Join(base, "we?ird #1", "gate 100%.sqlite3")
	fallback := filepath.Join(base, "data", "app.sqlite3")

	db, err := ResolveWritableDatabase(context.Background(), preferred, fallback, Options{})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE items (name TEXT PRIMARY KEY)`)
	require.NoError(t, err)

	require.Equal(t, ModePreferred, db.Mode())
	require.Equal(t, preferred, db.Path())
	require.FileExists(t, preferred)

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.ElementsMatch(t, []string{"we?ird #1", "data"}, names)
}

func TestResolveFallsBackAndCopiesOnce(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	preferredDir := filepath.Join(base, "readonly")
	require.NoError(t, os.MkdirAll(preferredDir, 0o755))
	preferred := filepath.Join(preferredDir, "gate.sqlite3")
	fallback := filepath.Join(base, "data", "app.sqlite3")

	seedDatabaseFile(t, preferred, "original")
	original, err := os.ReadFile(preferred)
	require.NoError(t, err)

	loc := NewLocator(Options{})
	loc.Writable = denyUnder(preferredDir)

	db, err := loc.Resolve(context.Background(), preferred, fallback)
	require.NoError(t, err)

	copied, err := os.ReadFile(fallback)
	require.NoError(t, err)
	require.Equal(t, original, copied)

	require.Equal(t, ModeFallback, db.Mode())
	require.Equal(t, fallback, db.Path())
	require.Equal(t, []string{"original"}, itemNames(t, db))

	_, err = db.Exec(`INSERT INTO items (name) VALUES (?)`, "sentinel")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	again, err := loc.Resolve(context.Background(), preferred, fallback)
	require.NoError(t, err)
	defer again.Close()

	require.Equal(t, ModeFallback, again.Mode())
	require.Equal(t, []string{"original", "sentinel"}, itemNames(t, again))
}

func TestResolveFallbackWithoutPreferredFile(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	preferred := filepath.Join(base, "readonly", "gate.sqlite3")
	fallback := filepath.Join(base, "data", "app.sqlite3")

	loc := NewLocator(Options{})
	loc.Writable = denyUnder(filepath.Dir(preferred))

	db, err := loc.Resolve(context.Background(), preferred, fallback)
	require.NoError(t, err)
	defer db.Close()

	require.Equal(t, ModeFallback, db.Mode())
	require.NoFileExists(t, preferred)
	require.FileExists(t, fallback)
}

func TestResolveFailsWhenNothingIsWritable(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	preferred := filepath.Join(base, "a", "gate.sqlite3")
	fallback := filepath.Join(base, "b", "app.sqlite3")

	loc := NewLocator(Options{})
	loc.Writable = denyUnder(filepath.Dir(preferred), filepath.Dir(fallback))

	db, err := loc.Resolve(context.Background(), preferred, fallback)
	require.Nil(t, db)
	require.ErrorIs(t, err, ErrNoWritableStorage)

	var nws *NoWritableStorageError
	require.True(t, errors.As(err, &nws))
	require.Equal(t, filepath.Dir(preferred), nws.Preferred)
	require.Equal(t, filepath.Dir(fallback), nws.Fallback)
	require.Contains(t, err.Error(), filepath.Dir(preferred))
	require.Contains(t, err.Error(), filepath.Dir(fallback))

	require.NoFileExists(t, preferred)
	require.NoFileExists(t, fallback)
}

func TestResolveWithReadOnlyDirectories(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	t.Parallel()

	base := t.TempDir()
	preferredDir := filepath.Join(base, "ro-preferred")
	fallbackDir := filepath.Join(base, "ro-fallback")
	require.NoError(t, os.MkdirAll(preferredDir, 0o755))
	require.NoError(t, os.MkdirAll(fallbackDir, 0o755))

	preferred := filepath.Join(preferredDir, "gate.sqlite3")
	fallback := filepath.Join(fallbackDir, "app.sqlite3")
	seedDatabaseFile(t, preferred, "original")
	require.NoError(t, os.Chmod(preferred, 0o444))
	require.NoError(t, os.Chmod(preferredDir, 0o555))
	t.Cleanup(func() {
		_ = os.Chmod(preferredDir, 0o755)
		_ = os.Chmod(fallbackDir, 0o755)
	})

	db, err := ResolveWritableDatabase(context.Background(), preferred, fallback, Options{})
	require.NoError(t, err)
	require.Equal(t, ModeFallback, db.Mode())
	require.Equal(t, []string{"original"}, itemNames(t, db))
	require.NoError(t, db.Close())
	require.NoError(t, os.Remove(fallback))
	_ = os.Remove(fallback + "-wal")
	_ = os.Remove(fallback + "-shm")

	require.NoError(t, os.Chmod(fallbackDir, 0o555))
	_, err = ResolveWritableDatabase(context.Background(), preferred, fallback, Options{})
	require.ErrorIs(t, err, ErrNoWritableStorage)
	require.NoFileExists(t, fallback)
}

func TestResolveRejectsDirectoryAsDatabase(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	preferred := filepath.Join(base, "gate.sqlite3")
	require.NoError(t, os.MkdirAll(preferred, 0o755))
	fallback := filepath.Join(base, "data", "app.sqlite3")

	loc := NewLocator(Options{})
	loc.Writable = func(string) bool { return false }

	_, err := loc.Resolve(context.Background(), preferred, fallback)
	require.ErrorIs(t, err, ErrNotAFile)
	require.NoFileExists(t, fallback)

	_, err = ResolveWritableDatabase(context.Background(), preferred, fallback, Options{})
	require.ErrorIs(t, err, ErrNotAFile)
}

func TestResolveSkipsCopyOntoSameFile(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	preferred := filepath.Join(base, "gate.sqlite3")
	fallback := filepath.Join(base, ".", "sub", "..", "gate.sqlite3")
	require.NoError(t, os.MkdirAll(filepath.Join(base, "sub"), 0o755))
	seedDatabaseFile(t, preferred, "original")

	var calls atomic.Int32
	loc := NewLocator(Options{})
	loc.Writable = func(string) bool { return calls.Add(1) > 1 }

	db, err := loc.Resolve(context.Background(), preferred, fallback)
	require.NoError(t, err)
	defer db.Close()

	require.Equal(t, ModeFallback, db.Mode())
	require.Equal(t, []string{"original"}, itemNames(t, db))
}

func TestSamePath(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "real"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(base, "real"), filepath.Join(base, "link")))

	same, err := samePath(filepath.Join(base, "real", "x.db"), filepath.Join(base, "link", "x.db"))
	require.NoError(t, err)
	require.True(t, same)

	same, err = samePath(filepath.Join(base, "real", "x.db"), filepath.Join(base, "real", "y.db"))
	require.NoError(t, err)
	require.False(t, same)
}

func TestCopyDatabaseNeverOverwrites(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	src := filepath.Join(base, "src.db")
	dst := filepath.Join(base, "dst.db")
	require.NoError(t, os.WriteFile(src, []byte("new bytes"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("kept"), 0o644))

	require.NoError(t, copyDatabase(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "kept", string(got))

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}
