package runfiles

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/zhangyunhao116/bazelenv/internal/pathutil"
)

// Index maps logical paths to physical files. Implementations are
// read-only once built and safe for concurrent use.
type Index interface {
	// Lookup returns the physical path recorded for logical.
	//
	// found is false when the index has no entry for logical. A found
	// entry with an empty physical path is a file the build system
	// declared as empty and did not materialize. err is non-nil only when
	// the index itself is unusable (for example a malformed manifest);
	// it never reports a missing entry.
	Lookup(logical string) (physical string, found bool, err error)

	// Source describes where the index comes from, for error messages
	// (a manifest path or a runfiles directory).
	Source() string
}

// Directory is an Index backed by a runfiles symlink tree: the logical
// path is a real path under the directory.
type Directory string

// Lookup implements Index. It reports found only if the joined path is
// an existing regular file below the directory. A dangling symlink, a
// directory, or a path running through a file all count as missing.
func (d Directory) Lookup(logical string) (string, bool, error) {
	p := filepath.Join(string(d), filepath.FromSlash(logical))
	if !pathutil.IsWithin(string(d), p) {
		return "", false, nil
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return "", false, nil
		}
		return "", false, err
	}
	if info.IsDir() {
		return "", false, nil
	}
	return p, true, nil
}

// Source implements Index.
func (d Directory) Source() string {
	return string(d)
}
