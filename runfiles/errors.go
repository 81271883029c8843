package runfiles

import (
	"errors"
	"fmt"
)

// ErrMalformedManifest indicates a runfiles manifest could not be parsed.
// It signals a build system misconfiguration; callers should not try to
// recover from it.
var ErrMalformedManifest = errors.New("runfiles: malformed manifest")

// ParseError describes the first malformed record of a manifest.
// It wraps ErrMalformedManifest so that errors.Is(err, ErrMalformedManifest)
// still works.
type ParseError struct {
	// Path is the manifest file, empty when parsing from a reader.
	Path string
	// Line is the 1-based line of the offending record, 0 for I/O errors.
	Line int
	// Reason explains what is wrong with the record.
	Reason string
	// Err is the underlying I/O error, if any.
	Err error
}

func (e *ParseError) Error() string {
	where := e.Path
	if where == "" {
		where = "<reader>"
	}
	if e.Line > 0 {
		where = fmt.Sprintf("%s:%d", where, e.Line)
	}
	msg := fmt.Sprintf("%s: %s: %s", ErrMalformedManifest.Error(), where, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedManifest, e.Err}
	}
	return []error{ErrMalformedManifest}
}
