//go:build !linux && !freebsd && !darwin

package region

import "os"

// fdatasync flushes file data to disk via the portable fallback.
func fdatasync(f *os.File) error {
	return f.Sync()
}
