package bazelenv

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"github.com/zhangyunhao116/bazelenv/internal/envutil"
	"github.com/zhangyunhao116/bazelenv/internal/pathutil"
)

// testOutputVars are the test runner's scratch directories, best first.
var testOutputVars = []string{EnvTestUndeclaredOutputs, EnvTestTmpDir}

// resolveOutputRoot computes the output root for mode. Directories the
// build system declares are used as given (made absolute against workDir)
// and only created if absent; Local mode without a declaration derives a
// per-build directory under cfg.LocalOutputDir. The result is an existing
// writable directory.
func resolveOutputRoot(mode ExecutionMode, environ []string, workDir, baseDir string, cfg *Config) (string, error) {
	var vars []string
	switch mode {
	case ModeTest:
		vars = append(append(vars, testOutputVars...), cfg.OutputDirVar)
	case ModeSandboxed, ModeLocal:
		vars = []string{cfg.OutputDirVar}
	default:
		return "", fmt.Errorf("bazelenv: output root for unknown mode %d", int(mode))
	}

	if name, value, ok := envutil.FirstNonEmpty(environ, vars...); ok {
		dir := absFrom(workDir, value)
		if err := ensureWritableDir(dir); err != nil {
			return "", &NoWritableOutputError{Mode: mode, Variable: name, Path: dir, Missing: pathutil.FindFirstNonExistent(dir), Err: err}
		}
		return dir, nil
	}

	if mode != ModeLocal {
		// Outside Local mode only a declared directory may be used.
		return "", &NoWritableOutputError{Mode: mode, Variable: vars[len(vars)-1]}
	}

	dir := localOutputDir(baseDir, cfg)
	if err := ensureWritableDir(dir); err != nil {
		return "", &NoWritableOutputError{Mode: mode, Path: dir, Missing: pathutil.FindFirstNonExistent(dir), Err: err}
	}
	return dir, nil
}

// localOutputDir returns the Local mode output directory for baseDir.
func localOutputDir(baseDir string, cfg *Config) string {
	parent := cfg.LocalOutputDir
	switch {
	case parent == "":
		parent = filepath.Join(os.TempDir(), "bazelenv")
	case !filepath.IsAbs(parent):
		parent = filepath.Join(baseDir, parent)
	}
	return filepath.Join(parent, buildIdentity(baseDir, cfg.BuildID))
}

// buildIdentity returns a short stable name for a (baseDir, buildID)
// pair. Distinct pairs get distinct names so that concurrent builds never
// share an output directory.
func buildIdentity(baseDir, buildID string) string {
	h := blake3.New()
	_, _ = h.Write([]byte(baseDir))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(buildID))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:8])
}

// absFrom makes p absolute against dir. Absolute values are returned
// unchanged.
func absFrom(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// ensureWritableDir creates dir if it does not exist and checks that it is
// a writable directory.
func ensureWritableDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return errors.New("not a directory")
		}
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	default:
		return err
	}
	return checkWritable(dir)
}
