//go:build darwin

package region

import (
	"os"

	"golang.org/x/sys/unix"
)

// fdatasync flushes file data to disk.
//
// macOS has no fdatasync; regular fsync is the closest primitive that
// still orders the body write before the header update.
func fdatasync(f *os.File) error {
	return unix.Fsync(int(f.Fd()))
}
