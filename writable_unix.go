//go:build unix

package bazelenv

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// checkWritable reports whether the calling process may create files in dir.
func checkWritable(dir string) error {
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("access %s: %w", dir, err)
	}
	return nil
}
