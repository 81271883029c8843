package bazelenv

import (
	"os"
	"path/filepath"
	"testing"
)

// newWorkspace creates a temporary workspace checkout marked by
// MODULE.bazel and returns its root.
func newWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "MODULE.bazel"), "")
	return root
}

// writeFile creates path with content, creating parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// mustInit calls InitEnv and fails the test on error.
func mustInit(t *testing.T, baseDir string, opts ...Option) *ResolvedEnv {
	t.Helper()
	env, err := InitEnv(baseDir, opts...)
	if err != nil {
		t.Fatalf("InitEnv(%q): %v", baseDir, err)
	}
	return env
}

// writeBenchFile creates an empty file for benchmarks, which have no
// *testing.T to fail.
func writeBenchFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, nil, 0o644)
}
