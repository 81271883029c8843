package bazelenv

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zhangyunhao116/bazelenv/internal/pathutil"
)

// ConfigFileName is the project configuration file InitEnv looks for in
// the base directory when no configuration is passed explicitly.
const ConfigFileName = ".bazelenv.yaml"

const (
	defaultOutputDirVar     = "BAZEL_OUTPUT_DIR"
	defaultLocalOutputDir   = ".bazelenv-out"
	defaultResolveCacheSize = 256
)

// Config holds the project-specific conventions the resolver cannot infer
// from the environment.
type Config struct {
	// SourceRoots lists directories searched for logical paths, highest
	// priority first. Relative entries are taken relative to the base
	// directory. If empty, the base directory itself is the only root.
	SourceRoots []string `yaml:"source_roots"`

	// OutputDirVar names the environment variable through which the build
	// system declares the output directory of a sandboxed action. Tests
	// use TEST_UNDECLARED_OUTPUTS_DIR or TEST_TMPDIR before this variable.
	OutputDirVar string `yaml:"output_dir_var"`

	// LocalOutputDir is the project's build-output directory for Local
	// mode when OutputDirVar is not set. Relative values are taken
	// relative to the base directory. If empty, os.TempDir() is used.
	LocalOutputDir string `yaml:"local_output_dir"`

	// Workspace is the workspace name that prefixes manifest keys
	// (for example "my_repo" in "my_repo/src/entry.ts"). TEST_WORKSPACE
	// overrides it in Test mode.
	Workspace string `yaml:"workspace"`

	// BuildID distinguishes concurrent Local builds of the same base
	// directory. Each distinct value gets its own output directory.
	BuildID string `yaml:"build_id"`

	// ResolveCacheSize bounds the number of memoized Resolve results per
	// ResolvedEnv. 0 disables memoization.
	ResolveCacheSize int `yaml:"resolve_cache_size"`

	// Logger is the structured logger for detection and resolution
	// diagnostics. If nil, slog.Default() is used.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns a Config with the conventional defaults.
func DefaultConfig() *Config {
	return &Config{
		OutputDirVar:     defaultOutputDirVar,
		LocalOutputDir:   defaultLocalOutputDir,
		ResolveCacheSize: defaultResolveCacheSize,
	}
}

// LoadConfigFile reads a YAML configuration file. Fields absent from the
// file keep their DefaultConfig values; unknown fields are rejected. The
// result is validated before it is returned.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bazelenv: read config: %w", err)
	}
	return parseConfig(data, path)
}

func parseConfig(data []byte, name string) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigInvalid, name, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors and returns a descriptive error
// if any field is invalid. The returned error wraps ErrConfigInvalid.
func (c *Config) Validate() error {
	var errs []string

	for i, root := range c.SourceRoots {
		if root == "" {
			errs = append(errs, fmt.Sprintf("SourceRoots[%d]: must not be empty", i))
			continue
		}
		if pathutil.ContainsNullByte(root) {
			errs = append(errs, fmt.Sprintf("SourceRoots[%d]: must not contain null bytes", i))
		}
	}

	if c.OutputDirVar == "" {
		errs = append(errs, "OutputDirVar: must not be empty")
	} else if !isEnvName(c.OutputDirVar) {
		errs = append(errs, fmt.Sprintf("OutputDirVar: %q is not a valid environment variable name", c.OutputDirVar))
	}

	if pathutil.ContainsNullByte(c.LocalOutputDir) {
		errs = append(errs, "LocalOutputDir: must not contain null bytes")
	}

	if strings.ContainsAny(c.Workspace, "/\\\x00") {
		errs = append(errs, fmt.Sprintf("Workspace: %q must be a single path segment", c.Workspace))
	}

	if c.ResolveCacheSize < 0 {
		errs = append(errs, "ResolveCacheSize: must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrConfigInvalid, strings.Join(errs, "; "))
	}
	return nil
}

// isEnvName reports whether s is a portable environment variable name.
func isEnvName(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z':
		case '0' <= c && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}

// deepCopyConfig returns a copy of cfg with slice fields deep-copied
// to prevent aliasing. Logger is shared by reference.
func deepCopyConfig(cfg *Config) Config {
	cfgCopy := *cfg
	cfgCopy.SourceRoots = append([]string(nil), cfg.SourceRoots...)
	return cfgCopy
}
