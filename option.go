package bazelenv

import (
	"log/slog"
)

// Option configures a single InitEnv call.
type Option func(*initOptions)

// initOptions holds per-call configuration applied via Option functions.
type initOptions struct {
	environ     []string
	environSet  bool
	workDir     string
	config      *Config
	sourceRoots []string
	logger      *slog.Logger
	mode        ExecutionMode
	modeSet     bool
}

// WithEnviron replaces the process environment with environ, a list of
// KEY=VALUE entries. The slice is copied.
func WithEnviron(environ []string) Option {
	cpy := append([]string{}, environ...)
	return func(o *initOptions) {
		o.environ = cpy
		o.environSet = true
	}
}

// WithWorkingDir sets the initial working directory used for mode
// detection and for relative declared directories. It must be absolute.
func WithWorkingDir(dir string) Option {
	return func(o *initOptions) {
		o.workDir = dir
	}
}

// WithConfig sets the configuration. The config is deep-copied, and
// ConfigFileName is not read.
func WithConfig(cfg *Config) Option {
	if cfg == nil {
		return func(o *initOptions) {
			o.config = nil
		}
	}
	cpy := deepCopyConfig(cfg)
	return func(o *initOptions) {
		o.config = &cpy
	}
}

// WithSourceRoots overrides Config.SourceRoots for a single call.
func WithSourceRoots(roots ...string) Option {
	cpy := append([]string{}, roots...)
	return func(o *initOptions) {
		o.sourceRoots = cpy
	}
}

// WithLogger overrides Config.Logger for a single call.
func WithLogger(logger *slog.Logger) Option {
	return func(o *initOptions) {
		o.logger = logger
	}
}

// WithMode skips detection and uses mode. Intended for callers that have
// already run Detect, such as a driver building several configurations.
func WithMode(mode ExecutionMode) Option {
	return func(o *initOptions) {
		o.mode = mode
		o.modeSet = true
	}
}
