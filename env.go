package bazelenv

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/zhangyunhao116/bazelenv/internal/envutil"
	"github.com/zhangyunhao116/bazelenv/internal/pathutil"
	"github.com/zhangyunhao116/bazelenv/runfiles"
)

// Variables set by CommandEnv for child processes.
const (
	EnvMode           = "BAZELENV_MODE"
	EnvOutputRoot     = "BAZELENV_OUTPUT_ROOT"
	EnvNodePath       = "NODE_PATH"
	EnvNPMConfigCache = "NPM_CONFIG_CACHE"
)

// ResolvedEnv is the resolved view of one build invocation's filesystem.
// It is immutable once returned by InitEnv and owned by the caller; the
// package keeps no reference to it. It is safe for concurrent use.
type ResolvedEnv struct {
	mode          ExecutionMode
	baseDir       string
	workspaceRoot string
	outputRoot    string
	sourceRoots   []string

	// workspace prefixes manifest keys; empty when unknown.
	workspace string
	// index is nil in Local mode and when the build system exposes no
	// runfiles.
	index runfiles.Index
	// cache memoizes Resolve results; nil when disabled.
	cache  *lru.Cache[string, string]
	logger *slog.Logger
}

// InitEnv inspects the execution environment and returns the resolved
// descriptor for a build rooted at baseDir, which must be absolute
// (typically the directory of the configuration file).
//
// By default the process environment and working directory are used and
// the configuration is read from ConfigFileName in baseDir if that file
// exists. Options override each input.
//
// InitEnv holds no state between calls: every call re-derives the
// descriptor from its inputs, so identical inputs give equal descriptors
// and nothing leaks from one build to the next. The runfiles manifest is
// parsed on the first Resolve, not here.
func InitEnv(baseDir string, opts ...Option) (*ResolvedEnv, error) {
	var o initOptions
	for _, opt := range opts {
		opt(&o)
	}

	if baseDir == "" || pathutil.ContainsNullByte(baseDir) || !filepath.IsAbs(baseDir) {
		return nil, fmt.Errorf("%w: base directory %q must be an absolute path", ErrConfigInvalid, baseDir)
	}
	baseDir = filepath.Clean(baseDir)

	environ := o.environ
	if !o.environSet {
		environ = os.Environ()
	}

	workDir := o.workDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("bazelenv: cannot determine working directory: %w", err)
		}
		workDir = wd
	}
	if !filepath.IsAbs(workDir) {
		return nil, fmt.Errorf("%w: working directory %q must be an absolute path", ErrConfigInvalid, workDir)
	}

	cfg, err := loadConfig(baseDir, o.config)
	if err != nil {
		return nil, err
	}
	if o.sourceRoots != nil {
		cfg.SourceRoots = o.sourceRoots
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = cfg.Logger
	}
	if logger == nil {
		logger = slog.Default()
	}

	mode := o.mode
	if o.modeSet {
		if !mode.valid() {
			return nil, fmt.Errorf("%w: execution mode %d", ErrConfigInvalid, int(mode))
		}
	} else {
		mode, err = Detect(environ, workDir)
		if err != nil {
			return nil, err
		}
	}

	index := selectIndex(mode, environ, workDir)

	outputRoot, err := resolveOutputRoot(mode, environ, workDir, baseDir, cfg)
	if err != nil {
		return nil, err
	}

	workspace := cfg.Workspace
	if mode == ModeTest {
		if v, ok := envutil.NonEmpty(environ, EnvTestWorkspace); ok {
			workspace = v
		}
	}

	env := &ResolvedEnv{
		mode:          mode,
		baseDir:       baseDir,
		workspaceRoot: workspaceRoot(environ, workDir),
		outputRoot:    outputRoot,
		sourceRoots:   normalizeRoots(baseDir, cfg.SourceRoots),
		workspace:     workspace,
		index:         index,
		logger:        logger,
	}
	if cfg.ResolveCacheSize > 0 {
		cache, err := lru.New[string, string](cfg.ResolveCacheSize)
		if err != nil {
			return nil, fmt.Errorf("%w: resolve cache: %w", ErrConfigInvalid, err)
		}
		env.cache = cache
	}

	logger.Debug("bazelenv: environment resolved",
		"mode", mode.String(),
		"base_dir", baseDir,
		"output_root", outputRoot,
		"source_roots", env.sourceRoots,
		"runfiles", env.RunfilesSource(),
	)
	return env, nil
}

// loadConfig returns a private copy of the configuration to use: the
// explicit one if given, else ConfigFileName in baseDir, else defaults.
func loadConfig(baseDir string, explicit *Config) (*Config, error) {
	if explicit != nil {
		cpy := deepCopyConfig(explicit)
		return &cpy, nil
	}
	path := filepath.Join(baseDir, ConfigFileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("bazelenv: stat config: %w", err)
	}
	return LoadConfigFile(path)
}

// selectIndex picks the runfiles index for mode. A manifest is preferred
// over a runfiles directory because it is what the build system declared.
func selectIndex(mode ExecutionMode, environ []string, workDir string) runfiles.Index {
	if mode == ModeLocal {
		return nil
	}
	if v, ok := envutil.NonEmpty(environ, EnvRunfilesManifestFile); ok {
		return runfiles.NewManifest(absFrom(workDir, v))
	}
	if dir, ok := envutil.NonEmpty(environ, EnvRunfilesDir); ok {
		dir = absFrom(workDir, dir)
		if only, _ := envutil.GetEnv(environ, EnvRunfilesManifestOnly); only == "1" {
			return runfiles.NewManifest(filepath.Join(dir, "MANIFEST"))
		}
		return runfiles.Directory(dir)
	}
	if dir, ok := envutil.NonEmpty(environ, EnvTestSrcDir); ok {
		return runfiles.Directory(absFrom(workDir, dir))
	}
	return nil
}

// normalizeRoots makes roots absolute against baseDir and drops
// duplicates, keeping the first occurrence. No roots means baseDir.
func normalizeRoots(baseDir string, roots []string) []string {
	if len(roots) == 0 {
		return []string{baseDir}
	}
	seen := make(map[string]bool, len(roots))
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		abs := filepath.Clean(absFrom(baseDir, r))
		if seen[abs] {
			continue
		}
		seen[abs] = true
		out = append(out, abs)
	}
	return out
}

// Mode returns the detected execution mode.
func (e *ResolvedEnv) Mode() ExecutionMode { return e.mode }

// BaseDir returns the absolute base directory passed to InitEnv.
func (e *ResolvedEnv) BaseDir() string { return e.baseDir }

// OutputRoot returns the absolute, writable output directory. It is
// computed once by InitEnv and never changes.
func (e *ResolvedEnv) OutputRoot() string { return e.outputRoot }

// WorkspaceRoot returns the workspace checkout directory, or "" if it
// could not be found. Inside a sandbox this is usually empty.
func (e *ResolvedEnv) WorkspaceRoot() string { return e.workspaceRoot }

// SourceRoots returns a copy of the absolute source roots, highest
// priority first.
func (e *ResolvedEnv) SourceRoots() []string {
	return append([]string(nil), e.sourceRoots...)
}

// RunfilesSource returns the manifest file or runfiles directory consulted
// by Resolve, or "" if none is.
func (e *ResolvedEnv) RunfilesSource() string {
	if e.index == nil {
		return ""
	}
	return e.index.Source()
}

// Resolve maps a logical path to an absolute path that exists on disk,
// searching the runfiles index and then SourceRoots.
//
// In Sandboxed and Test mode the runfiles index is consulted first, using
// the logical path and then the path prefixed with the workspace name. An
// index entry is authoritative: if it names a file that is missing,
// Resolve fails rather than falling back to the source roots. When the
// index has no entry, or in Local mode, the source roots are searched in
// order and the first hit wins.
//
// Failures are *UnresolvedPathError, or a *ManifestParseError when the
// runfiles manifest is malformed. No guessed path is ever returned.
func (e *ResolvedEnv) Resolve(logical string) (string, error) {
	clean, err := pathutil.CleanLogical(logical)
	if err != nil {
		return "", e.unresolved(logical, e.sourceRoots, err.Error())
	}

	if e.cache != nil {
		if p, ok := e.cache.Get(clean); ok {
			if existsFile(p) {
				return p, nil
			}
			e.cache.Remove(clean)
		}
	}

	p, err := e.resolve(logical, clean, e.sourceRoots)
	if err != nil {
		return "", err
	}
	if e.cache != nil {
		e.cache.Add(clean, p)
	}
	return p, nil
}

// ResolveFrom is Resolve with roots in place of SourceRoots. Relative
// roots are taken relative to BaseDir. Results are not memoized.
func (e *ResolvedEnv) ResolveFrom(logical string, roots ...string) (string, error) {
	abs := make([]string, 0, len(roots))
	for _, r := range roots {
		if r == "" || pathutil.ContainsNullByte(r) {
			return "", e.unresolved(logical, roots, fmt.Sprintf("invalid source root %q", r))
		}
		abs = append(abs, filepath.Clean(absFrom(e.baseDir, r)))
	}
	clean, err := pathutil.CleanLogical(logical)
	if err != nil {
		return "", e.unresolved(logical, abs, err.Error())
	}
	return e.resolve(logical, clean, abs)
}

// ResolveAll resolves each logical path in order and stops at the first
// failure.
func (e *ResolvedEnv) ResolveAll(logicals ...string) ([]string, error) {
	out := make([]string, 0, len(logicals))
	for _, l := range logicals {
		p, err := e.Resolve(l)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (e *ResolvedEnv) resolve(logical, clean string, roots []string) (string, error) {
	if e.index != nil {
		for _, key := range e.indexKeys(clean) {
			physical, found, err := e.index.Lookup(key)
			if err != nil {
				e.logger.Debug("bazelenv: runfiles index unusable", "source", e.index.Source(), "err", err)
				return "", fmt.Errorf("bazelenv: resolve %q: %w", logical, err)
			}
			if !found {
				continue
			}
			if physical == "" {
				return "", e.unresolved(logical, roots, fmt.Sprintf("runfiles entry %q is a declared empty file", key))
			}
			if !existsFile(physical) {
				return "", e.unresolved(logical, roots, fmt.Sprintf("runfiles entry %q points to missing file %s", key, physical))
			}
			return physical, nil
		}
	}

	for _, root := range roots {
		p := filepath.Join(root, filepath.FromSlash(clean))
		if pathutil.IsWithin(root, p) && existsFile(p) {
			return p, nil
		}
	}
	return "", e.unresolved(logical, roots, "not found")
}

// indexKeys returns the runfiles keys to try for clean, in order.
func (e *ResolvedEnv) indexKeys(clean string) []string {
	if e.workspace == "" || strings.HasPrefix(clean, e.workspace+"/") {
		return []string{clean}
	}
	return []string{clean, e.workspace + "/" + clean}
}

func (e *ResolvedEnv) unresolved(logical string, roots []string, reason string) error {
	err := &UnresolvedPathError{
		Logical: logical,
		Mode:    e.mode,
		Roots:   append([]string(nil), roots...),
		Index:   e.RunfilesSource(),
		Reason:  reason,
	}
	e.logger.Debug("bazelenv: resolve failed", "err", err)
	return err
}

// CommandEnv returns base extended with the descriptor's view for a child
// process, such as a bundler started by the configuration script:
// BAZELENV_MODE, BAZELENV_OUTPUT_ROOT, NODE_PATH (the source roots) and
// NPM_CONFIG_CACHE (a cache directory under the output root, so npm never
// writes outside the sandbox). These values replace any in base. base is
// not modified.
func (e *ResolvedEnv) CommandEnv(base []string) []string {
	var add []string
	add = envutil.SetEnv(add, EnvMode, e.mode.String())
	add = envutil.SetEnv(add, EnvOutputRoot, e.outputRoot)
	add = envutil.SetEnv(add, EnvNodePath, strings.Join(e.sourceRoots, string(os.PathListSeparator)))
	add = envutil.SetEnv(add, EnvNPMConfigCache, filepath.Join(e.outputRoot, ".npm"))
	return envutil.MergeEnv(base, add)
}

// existsFile reports whether p names an existing non-directory,
// following symlinks.
func existsFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
