package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const DefaultBusyTimeout = 3 * time.Second

type Mode string

const (
	ModePreferred Mode = "preferred"
	ModeFallback  Mode = "fallback"
)

type Options struct {
	// BusyTimeout bounds how long a writer waits on a locked database.
	BusyTimeout time.Duration
}

// DB is the process-wide database handle together with where it lives.
type DB struct {
	*sql.DB
	path string
	mode Mode
}

func (d *DB) Path() string {
	if d == nil {
		return ""
	}
	return d.path
}

func (d *DB) Mode() Mode {
	if d == nil {
		return ""
	}
	return d.mode
}

func (d *DB) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	return d.DB.Close()
}

// dsn carries the pragmas as driver parameters so that every pooled
// connection gets them, not just the first one.
func dsn(path string, opts Options) string {
	timeout := opts.BusyTimeout
	if timeout <= 0 {
		timeout = DefaultBusyTimeout
	}

	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", timeout.Milliseconds()))
	q.Add("_pragma", "foreign_keys(1)")

	// A file: URI keeps '?' and '#' in directory or file names part of the
	// path instead of being read as the start of the parameters.
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", OmitHost: true, Path: p, RawQuery: q.Encode()}
	return u.String()
}

func open(ctx context.Context, path string, mode Mode, opts Options) (*DB, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", dsn(path, opts))
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	return &DB{DB: db, path: path, mode: mode}, nil
}
