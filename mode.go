package bazelenv

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zhangyunhao116/bazelenv/internal/envutil"
	"github.com/zhangyunhao116/bazelenv/internal/pathutil"
)

// ExecutionMode identifies how the current process was launched by the
// build system. It decides which variables and directory conventions are
// authoritative.
type ExecutionMode int

const (
	// ModeLocal is a plain invocation from a workspace checkout, or
	// "bazel run", with no runfiles environment.
	ModeLocal ExecutionMode = iota

	// ModeSandboxed is a build action or binary with a runfiles tree or
	// manifest.
	ModeSandboxed

	// ModeTest is a "bazel test" run. Tests carry every Sandboxed marker
	// plus their own.
	ModeTest
)

const unknownStr = "unknown"

// String returns the string representation of an ExecutionMode.
func (m ExecutionMode) String() string {
	switch m {
	case ModeLocal:
		return "local"
	case ModeSandboxed:
		return "sandboxed"
	case ModeTest:
		return "test"
	default:
		return unknownStr
	}
}

// valid reports whether m is one of the declared modes.
func (m ExecutionMode) valid() bool {
	return m >= ModeLocal && m <= ModeTest
}

// Environment variables consulted by the resolver.
const (
	EnvTestSrcDir              = "TEST_SRCDIR"
	EnvTestTarget              = "TEST_TARGET"
	EnvTestWorkspace           = "TEST_WORKSPACE"
	EnvTestTmpDir              = "TEST_TMPDIR"
	EnvTestUndeclaredOutputs   = "TEST_UNDECLARED_OUTPUTS_DIR"
	EnvRunfilesManifestFile    = "RUNFILES_MANIFEST_FILE"
	EnvRunfilesManifestOnly    = "RUNFILES_MANIFEST_ONLY"
	EnvRunfilesDir             = "RUNFILES_DIR"
	EnvBuildWorkspaceDirectory = "BUILD_WORKSPACE_DIRECTORY"
)

// Marker variables per mode, in the order Detect checks them.
var (
	testMarkers      = []string{EnvTestSrcDir, EnvTestTarget}
	sandboxedMarkers = []string{EnvRunfilesManifestFile, EnvRunfilesDir}
	localMarkers     = []string{EnvBuildWorkspaceDirectory}
)

// WorkspaceMarkers are the files whose presence in the working directory
// or an ancestor identifies a workspace checkout.
var WorkspaceMarkers = []string{"MODULE.bazel", "REPO.bazel", "WORKSPACE.bazel", "WORKSPACE"}

// Detect classifies the environment described by environ (KEY=VALUE
// entries, as from os.Environ) and workDir, the process's initial working
// directory.
//
// Checks run from most to least specific and the first match wins:
//  1. Test: TEST_SRCDIR or TEST_TARGET is set.
//  2. Sandboxed: RUNFILES_MANIFEST_FILE or RUNFILES_DIR is set.
//  3. Local: BUILD_WORKSPACE_DIRECTORY is set, or a workspace marker
//     file exists in workDir or one of its ancestors.
//
// Anything else returns an *UnrecognizedEnvironmentError. Variables set to
// the empty string count as unset. Detect only reads; it never modifies
// the environment or the filesystem.
func Detect(environ []string, workDir string) (ExecutionMode, error) {
	if _, _, ok := envutil.FirstNonEmpty(environ, testMarkers...); ok {
		return ModeTest, nil
	}
	if _, _, ok := envutil.FirstNonEmpty(environ, sandboxedMarkers...); ok {
		return ModeSandboxed, nil
	}
	if _, _, ok := envutil.FirstNonEmpty(environ, localMarkers...); ok {
		return ModeLocal, nil
	}
	if workDir != "" {
		if _, _, ok := pathutil.FindUpward(workDir, WorkspaceMarkers...); ok {
			return ModeLocal, nil
		}
	}

	checked := make([]string, 0, len(testMarkers)+len(sandboxedMarkers)+len(localMarkers)+len(WorkspaceMarkers))
	for _, group := range [][]string{testMarkers, sandboxedMarkers, localMarkers} {
		for _, v := range group {
			checked = append(checked, "$"+v)
		}
	}
	checked = append(checked, WorkspaceMarkers...)
	return 0, &UnrecognizedEnvironmentError{WorkDir: workDir, Checked: checked}
}

// DetectOS runs Detect against the current process environment and
// working directory.
func DetectOS() (ExecutionMode, error) {
	wd, err := os.Getwd()
	if err != nil {
		return 0, fmt.Errorf("bazelenv: cannot determine working directory: %w", err)
	}
	return Detect(os.Environ(), wd)
}

// workspaceRoot returns the root of the source workspace, or "" if
// it cannot be determined. It is informational: resolution never depends
// on it.
func workspaceRoot(environ []string, workDir string) string {
	if v, ok := envutil.NonEmpty(environ, EnvBuildWorkspaceDirectory); ok {
		return filepath.Clean(v)
	}
	if workDir == "" {
		return ""
	}
	dir, _, ok := pathutil.FindUpward(workDir, WorkspaceMarkers...)
	if !ok {
		return ""
	}
	return dir
}
