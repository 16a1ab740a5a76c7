package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// Locator decides which database file a process opens.
type Locator struct {
	Options Options

	// Writable reports whether path can be written to. Defaults to an
	// access(2) check where the platform has one.
	Writable func(path string) bool
}

func NewLocator(opts Options) *Locator {
	return &Locator{Options: opts, Writable: isWritable}
}

// ResolveWritableDatabase is NewLocator(opts).Resolve.
func ResolveWritableDatabase(ctx context.Context, preferred, fallback string, opts Options) (*DB, error) {
	return NewLocator(opts).Resolve(ctx, preferred, fallback)
}

// candidate is one database path and the target its writability is judged on:
// the file when it exists, its directory when it still has to be created.
type candidate struct {
	path     string
	target   string
	exists   bool
	writable bool
}

// Resolve opens preferred when it is writable. Otherwise it opens fallback,
// first seeding it with a copy of preferred if fallback does not exist yet.
func (l *Locator) Resolve(ctx context.Context, preferred, fallback string) (*DB, error) {
	if preferred == "" || fallback == "" {
		return nil, fmt.Errorf("resolve database: empty path (preferred %q, fallback %q)", preferred, fallback)
	}

	for _, p := range []string{preferred, fallback} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			log.Debugf("[storage] could not create %s: %v", filepath.Dir(p), err)
		}
	}

	pref, err := l.inspect(preferred)
	if err != nil {
		return nil, err
	}
	if pref.writable {
		return open(ctx, preferred, ModePreferred, l.Options)
	}

	fb, err := l.inspect(fallback)
	if err != nil {
		return nil, err
	}
	if !fb.writable {
		return nil, &NoWritableStorageError{Preferred: pref.target, Fallback: fb.target}
	}

	if pref.exists && !fb.exists {
		same, err := samePath(preferred, fallback)
		if err != nil {
			return nil, err
		}
		if !same {
			if err := copyDatabase(preferred, fallback); err != nil {
				return nil, err
			}
			log.Infof("[storage] copied %s to %s", preferred, fallback)
		}
	}

	return open(ctx, fallback, ModeFallback, l.Options)
}

func (l *Locator) inspect(path string) (candidate, error) {
	writable := l.Writable
	if writable == nil {
		writable = isWritable
	}

	c := candidate{path: path}
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if !info.Mode().IsRegular() {
			return c, fmt.Errorf("%w: %s", ErrNotAFile, path)
		}
		c.exists = true
		c.target = path
	case errors.Is(err, fs.ErrNotExist):
		c.target = filepath.Dir(path)
	default:
		// Unreadable parent: nothing can be created or opened here.
		log.Debugf("[storage] stat %s: %v", path, err)
		c.target = path
		return c, nil
	}

	c.writable = writable(c.target)
	return c, nil
}

func samePath(a, b string) (bool, error) {
	ca, err := canonical(a)
	if err != nil {
		return false, err
	}
	cb, err := canonical(b)
	if err != nil {
		return false, err
	}
	return ca == cb, nil
}

// canonical resolves symlinks in the directory part only, since the file
// itself may not exist yet.
func canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", p, err)
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", p, err)
	}
	return filepath.Join(dir, filepath.Base(abs)), nil
}

// copyDatabase writes src to a temp file next to dst and links it into place,
// so dst is either absent or complete and an existing dst is never replaced.
func copyDatabase(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("copy database: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return fmt.Errorf("copy database: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("copy database: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("copy database: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("copy database: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("copy database: %w", err)
	}

	if err := os.Link(tmp.Name(), dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			log.Warnf("[storage] %s appeared during copy, keeping it", dst)
			return nil
		}
		// No hard links on this filesystem.
		if _, statErr := os.Stat(dst); statErr == nil {
			return nil
		}
		if err := os.Rename(tmp.Name(), dst); err != nil {
			return fmt.Errorf("copy database: %w", err)
		}
	}
	return nil
}
