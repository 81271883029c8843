package bazelenv

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zhangyunhao116/bazelenv/runfiles"
)

// Sentinel errors returned by the bazelenv package.
var (
	// ErrUnrecognizedEnvironment indicates no execution mode marker matched.
	ErrUnrecognizedEnvironment = errors.New("bazelenv: unrecognized environment")

	// ErrManifestParse indicates the runfiles manifest is malformed.
	// It is the same value as runfiles.ErrMalformedManifest.
	ErrManifestParse = runfiles.ErrMalformedManifest

	// ErrUnresolvedPath indicates a logical path matched no file.
	ErrUnresolvedPath = errors.New("bazelenv: unresolved path")

	// ErrNoWritableOutput indicates no writable output directory is available.
	ErrNoWritableOutput = errors.New("bazelenv: no writable output directory")

	// ErrConfigInvalid indicates the provided configuration failed validation.
	ErrConfigInvalid = errors.New("bazelenv: invalid configuration")
)

// ManifestParseError describes a malformed manifest record.
// It is an alias for runfiles.ParseError.
type ManifestParseError = runfiles.ParseError

// UnrecognizedEnvironmentError is returned when mode detection finds none
// of its markers. It wraps ErrUnrecognizedEnvironment.
type UnrecognizedEnvironmentError struct {
	// WorkDir is the working directory searched for workspace markers.
	WorkDir string
	// Checked lists the variables and marker files that were inspected,
	// in detection order.
	Checked []string
}

func (e *UnrecognizedEnvironmentError) Error() string {
	return fmt.Sprintf("%s: workdir %q, checked %s", ErrUnrecognizedEnvironment.Error(), e.WorkDir, strings.Join(e.Checked, ", "))
}

func (e *UnrecognizedEnvironmentError) Unwrap() error {
	return ErrUnrecognizedEnvironment
}

// UnresolvedPathError is returned when a logical path cannot be resolved.
// It wraps ErrUnresolvedPath.
type UnresolvedPathError struct {
	// Logical is the path as requested.
	Logical string
	// Mode is the execution mode the lookup ran in.
	Mode ExecutionMode
	// Roots are the source roots searched, in order.
	Roots []string
	// Index is the runfiles manifest or directory consulted, if any.
	Index string
	// Reason explains why resolution failed.
	Reason string
}

func (e *UnresolvedPathError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %q (%s mode): %s", ErrUnresolvedPath.Error(), e.Logical, e.Mode, e.Reason)
	if e.Index != "" {
		fmt.Fprintf(&b, "; runfiles %s", e.Index)
	}
	if len(e.Roots) > 0 {
		fmt.Fprintf(&b, "; roots [%s]", strings.Join(e.Roots, ", "))
	}
	return b.String()
}

func (e *UnresolvedPathError) Unwrap() error {
	return ErrUnresolvedPath
}

// NoWritableOutputError is returned when the output root cannot be used.
// It wraps ErrNoWritableOutput and, when present, the underlying cause.
type NoWritableOutputError struct {
	// Mode is the execution mode the output root was computed for.
	Mode ExecutionMode
	// Variable is the environment variable the candidate came from, if any.
	Variable string
	// Path is the candidate directory, empty if none was declared.
	Path string
	// Missing is the first ancestor of Path that does not exist, if any.
	Missing string
	// Err is the underlying filesystem error.
	Err error
}

func (e *NoWritableOutputError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s mode)", ErrNoWritableOutput.Error(), e.Mode)
	if e.Variable != "" {
		fmt.Fprintf(&b, ": $%s", e.Variable)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, ": %s", e.Path)
	} else {
		b.WriteString(": not declared")
	}
	if e.Missing != "" && e.Missing != e.Path {
		fmt.Fprintf(&b, " (%s does not exist)", e.Missing)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *NoWritableOutputError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrNoWritableOutput, e.Err}
	}
	return []error{ErrNoWritableOutput}
}
