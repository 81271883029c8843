// Package pathutil provides the path checks shared by environment
// resolution: logical path normalization, root containment, and upward
// marker search.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ---------------------------------------------------------------------------
// Logical Paths
// ---------------------------------------------------------------------------

// CleanLogical normalizes a logical path to its canonical slash-separated
// form. Logical paths are always relative: an empty path, an absolute path,
// a path containing NUL bytes, or one that climbs above its root with ".."
// is rejected.
//
// Examples:
//   - "src/./entry.ts"  -> "src/entry.ts"
//   - "a/../b.ts"       -> "b.ts"
//   - "../b.ts"         -> error
func CleanLogical(p string) (string, error) {
	if p == "" {
		return "", errors.New("empty logical path")
	}
	if ContainsNullByte(p) {
		return "", fmt.Errorf("logical path %q contains a null byte", p)
	}
	if filepath.IsAbs(p) || filepath.VolumeName(p) != "" {
		return "", fmt.Errorf("logical path %q must be relative", p)
	}
	slashed := filepath.ToSlash(p)
	if strings.HasPrefix(slashed, "/") {
		return "", fmt.Errorf("logical path %q must be relative", p)
	}
	cleaned := path.Clean(slashed)
	if cleaned == "." {
		return "", fmt.Errorf("logical path %q names its root", p)
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("logical path %q escapes its root", p)
	}
	return cleaned, nil
}

// ---------------------------------------------------------------------------
// Containment
// ---------------------------------------------------------------------------

// IsWithin reports whether target is root itself or lies below it. Both
// paths are cleaned lexically; symlinks are not followed.
//
// Examples:
//   - root=/ws, target=/ws/src/a.ts : true
//   - root=/ws, target=/ws          : true
//   - root=/ws, target=/wsx/a.ts    : false
func IsWithin(root, target string) bool {
	root = filepath.Clean(root)
	target = filepath.Clean(target)
	if root == target {
		return true
	}
	// When root is the filesystem root, every absolute path is within it.
	if root == string(filepath.Separator) {
		return filepath.IsAbs(target)
	}
	return strings.HasPrefix(target, root+string(filepath.Separator))
}

// ---------------------------------------------------------------------------
// Marker Search
// ---------------------------------------------------------------------------

// FindUpward looks for any of names in start and then each of its
// ancestors. It returns the directory holding the first marker found and
// the marker's name. Within one directory, names are checked in order.
func FindUpward(start string, names ...string) (dir, marker string, ok bool) {
	cur := filepath.Clean(start)
	for {
		for _, name := range names {
			if _, err := os.Stat(filepath.Join(cur, name)); err == nil {
				return cur, name, true
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", "", false
		}
		cur = parent
	}
}

// ---------------------------------------------------------------------------
// Path Helpers
// ---------------------------------------------------------------------------

// FindFirstNonExistent returns the first component in a path that does not
// exist. Returns "" if the entire path exists.
func FindFirstNonExistent(p string) string {
	cleaned := filepath.Clean(p)

	// Collect ancestor chain from cleaned up to root/".".
	var chain []string
	cur := cleaned
	for {
		chain = append(chain, cur)
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}

	// Walk from the root (end of chain) towards the leaf (start of chain).
	for i := len(chain) - 1; i >= 0; i-- {
		if _, err := os.Stat(chain[i]); err != nil {
			return chain[i]
		}
	}
	return ""
}

// ContainsNullByte returns true if the string contains a null byte.
func ContainsNullByte(s string) bool {
	return strings.ContainsRune(s, '\x00')
}
