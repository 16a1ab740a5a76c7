// Package storage opens the single SQLite database file a service runs on.
// It picks a writable location between a preferred and a fallback path,
// applies connection pragmas and brings the schema to a known state.
package storage
