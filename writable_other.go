//go:build !unix

package bazelenv

import (
	"os"
)

// checkWritable reports whether the calling process may create files in
// dir. Without access(2) the only reliable check is to create a file.
func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".bazelenv-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
