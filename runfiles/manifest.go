package runfiles

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// openManifest opens a manifest file for reading.
// It is overridden in tests to simulate I/O errors.
var openManifest = func(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Manifest is an Index backed by a runfiles manifest file. The file is
// parsed on first use and the result, including a parse failure, is kept
// for the lifetime of the Manifest.
type Manifest struct {
	path string

	once    sync.Once
	entries map[string]string
	err     error
}

// NewManifest returns a Manifest for the file at path. The file is not
// read until the first Lookup or Load.
func NewManifest(path string) *Manifest {
	return &Manifest{path: path}
}

// Load parses the manifest if it has not been parsed yet and returns the
// number of entries.
func (m *Manifest) Load() (int, error) {
	m.once.Do(func() {
		f, err := openManifest(m.path)
		if err != nil {
			m.err = &ParseError{Path: m.path, Reason: "cannot open manifest", Err: err}
			return
		}
		defer f.Close()
		entries, err := ParseManifest(f)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Path = m.path
			}
			m.err = err
			return
		}
		m.entries = entries
	})
	return len(m.entries), m.err
}

// Lookup implements Index with an exact match on the logical path.
func (m *Manifest) Lookup(logical string) (string, bool, error) {
	if _, err := m.Load(); err != nil {
		return "", false, err
	}
	physical, ok := m.entries[logical]
	return physical, ok, nil
}

// Source implements Index.
func (m *Manifest) Source() string {
	return m.path
}

// ParseManifest reads a runfiles manifest and returns its logical to
// physical mapping.
//
// Each line holds one record, "<logical> <physical>", split at the first
// space. A line that starts with a space uses the escaped form: in the
// logical part "\s" is a space, "\n" a newline and "\b" a backslash; the
// physical part knows only "\n" and "\b". An empty physical part declares
// an empty file. Blank lines are ignored.
//
// The first malformed record aborts parsing with a *ParseError.
func ParseManifest(r io.Reader) (map[string]string, error) {
	entries := make(map[string]string)
	br := bufio.NewReader(r)
	lineNo := 0
	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, &ParseError{Line: lineNo + 1, Reason: "read failed", Err: readErr}
		}
		if line == "" && readErr != nil {
			break
		}
		lineNo++
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")

		if line != "" {
			logical, physical, err := parseRecord(line)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Reason: err.Error()}
			}
			if prev, dup := entries[logical]; dup && prev != physical {
				return nil, &ParseError{Line: lineNo, Reason: fmt.Sprintf("conflicting duplicate entry for %q", logical)}
			}
			entries[logical] = physical
		}

		if readErr != nil {
			break
		}
	}
	return entries, nil
}

func parseRecord(line string) (logical, physical string, err error) {
	escaped := false
	if line[0] == ' ' {
		escaped = true
		line = line[1:]
	}

	idx := strings.IndexByte(line, ' ')
	if idx < 0 {
		return "", "", errors.New("missing separator between logical and physical path")
	}
	logical, physical = line[:idx], line[idx+1:]

	if escaped {
		if logical, err = unescape(logical, true); err != nil {
			return "", "", err
		}
		if physical, err = unescape(physical, false); err != nil {
			return "", "", err
		}
	}

	if logical == "" {
		return "", "", errors.New("empty logical path")
	}
	if strings.HasPrefix(logical, "/") {
		return "", "", fmt.Errorf("logical path %q must be relative", logical)
	}
	if physical != "" && !isAbsPhysical(physical) {
		return "", "", fmt.Errorf("physical path %q must be absolute", physical)
	}
	return logical, physical, nil
}

// unescape decodes the escape sequences of an escaped manifest record.
// allowSpace enables "\s", which only the logical part may use.
func unescape(s string, allowSpace bool) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 >= len(s) {
			return "", fmt.Errorf("dangling escape at end of %q", s)
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'b':
			b.WriteByte('\\')
		case 's':
			if !allowSpace {
				return "", fmt.Errorf(`"\s" escape not allowed in physical path %q`, s)
			}
			b.WriteByte(' ')
		default:
			return "", fmt.Errorf("unknown escape \\%c in %q", s[i], s)
		}
	}
	return b.String(), nil
}

// isAbsPhysical accepts host-absolute paths and drive-letter paths, since
// manifests written on Windows use "C:/..." targets.
func isAbsPhysical(p string) bool {
	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
		return true
	}
	if len(p) >= 3 && p[1] == ':' && (p[2] == '/' || p[2] == '\\') {
		c := p[0]
		return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
	}
	return false
}

