package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNoWritableStorage is matched by *NoWritableStorageError.
	ErrNoWritableStorage = errors.New("no writable database location")
	ErrNotAFile          = errors.New("database path is not a regular file")
)

// NoWritableStorageError names the writability targets that were tried.
type NoWritableStorageError struct {
	Preferred string
	Fallback  string
}

func (e *NoWritableStorageError) Error() string {
	return fmt.Sprintf("neither database nor fallback are writable (preferred: %s, fallback: %s)", e.Preferred, e.Fallback)
}

func (e *NoWritableStorageError) Is(target error) bool {
	return target == ErrNoWritableStorage
}
