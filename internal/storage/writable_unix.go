//go:build unix

package storage

import (
	"os"

	"golang.org/x/sys/unix"
)

func isWritable(path string) bool {
	mode := uint32(unix.W_OK)
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		mode |= unix.X_OK
	}
	return unix.Access(path, mode) == nil
}
