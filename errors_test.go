package bazelenv

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/zhangyunhao116/bazelenv/runfiles"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrUnrecognizedEnvironment, "bazelenv: unrecognized environment"},
		{ErrManifestParse, "runfiles: malformed manifest"},
		{ErrUnresolvedPath, "bazelenv: unresolved path"},
		{ErrNoWritableOutput, "bazelenv: no writable output directory"},
		{ErrConfigInvalid, "bazelenv: invalid configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorIdentity(t *testing.T) {
	// Each sentinel error should be distinct.
	allErrors := []error{
		ErrUnrecognizedEnvironment,
		ErrManifestParse,
		ErrUnresolvedPath,
		ErrNoWritableOutput,
		ErrConfigInvalid,
	}

	for i, a := range allErrors {
		for j, b := range allErrors {
			if i != j && errors.Is(a, b) {
				t.Errorf("errors.Is(%v, %v) should be false", a, b)
			}
		}
	}
}

func TestManifestParseAlias(t *testing.T) {
	if !errors.Is(ErrManifestParse, runfiles.ErrMalformedManifest) {
		t.Error("ErrManifestParse must be runfiles.ErrMalformedManifest")
	}
	var err error = &ManifestParseError{Path: "/m", Line: 3, Reason: "bad"}
	if !errors.Is(err, ErrManifestParse) {
		t.Error("ManifestParseError should wrap ErrManifestParse")
	}
}

func TestUnrecognizedEnvironmentError(t *testing.T) {
	err := fmt.Errorf("outer: %w", &UnrecognizedEnvironmentError{
		WorkDir: "/nowhere",
		Checked: []string{"$TEST_SRCDIR", "WORKSPACE"},
	})
	if !errors.Is(err, ErrUnrecognizedEnvironment) {
		t.Error("expected errors.Is to match ErrUnrecognizedEnvironment")
	}
	var ue *UnrecognizedEnvironmentError
	if !errors.As(err, &ue) || ue.WorkDir != "/nowhere" {
		t.Errorf("errors.As failed: %v", err)
	}
	for _, want := range []string{"/nowhere", "$TEST_SRCDIR", "WORKSPACE"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("message %q should contain %q", err.Error(), want)
		}
	}
}

func TestUnresolvedPathError(t *testing.T) {
	err := &UnresolvedPathError{
		Logical: "entry.ts",
		Mode:    ModeSandboxed,
		Roots:   []string{"/ws/src", "/ws/node_modules"},
		Index:   "/rf/MANIFEST",
		Reason:  "not found",
	}
	if !errors.Is(err, ErrUnresolvedPath) {
		t.Error("expected errors.Is to match ErrUnresolvedPath")
	}
	msg := err.Error()
	for _, want := range []string{`"entry.ts"`, "sandboxed", "/ws/src, /ws/node_modules", "/rf/MANIFEST", "not found"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q should contain %q", msg, want)
		}
	}
}

func TestNoWritableOutputError(t *testing.T) {
	t.Run("undeclared", func(t *testing.T) {
		err := &NoWritableOutputError{Mode: ModeSandboxed, Variable: "BAZEL_OUTPUT_DIR"}
		if !errors.Is(err, ErrNoWritableOutput) {
			t.Error("expected errors.Is to match ErrNoWritableOutput")
		}
		if !strings.Contains(err.Error(), "$BAZEL_OUTPUT_DIR: not declared") {
			t.Errorf("unexpected message: %s", err)
		}
	})

	t.Run("wraps cause", func(t *testing.T) {
		err := &NoWritableOutputError{Mode: ModeLocal, Path: "/a/b/c", Missing: "/a/b", Err: fs.ErrPermission}
		if !errors.Is(err, ErrNoWritableOutput) || !errors.Is(err, fs.ErrPermission) {
			t.Errorf("expected both sentinel and cause to match: %v", err)
		}
		if !strings.Contains(err.Error(), "/a/b does not exist") {
			t.Errorf("message should name missing ancestor: %s", err)
		}
	})
}
