// Package bazelenv reconciles a hermetic build system's runtime layout
// with the filesystem assumptions of a conventional bundler.
//
// A bundler expects an entry file reachable by path, a writable output
// directory and an ordered list of module search roots. Under Bazel the
// same build may run from a workspace checkout, inside an action sandbox
// with a runfiles tree or manifest, or as a test with its own scratch
// directories. InitEnv inspects the process environment once, classifies
// it as one of those execution modes, and returns an immutable
// ResolvedEnv that configuration code reads to fill in bundler fields.
//
// Key features:
//   - Total, ordered mode detection that fails instead of guessing
//   - Runfiles manifest and symlink tree lookup, manifest first
//   - Output directories owned by the build system, never fabricated
//   - No global state: every InitEnv call returns its own descriptor
//
// Basic usage:
//
//	env, err := bazelenv.InitEnv(baseDir)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	entry, err := env.Resolve("entry.ts")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	bundle := filepath.Join(env.OutputRoot(), "bundle.js")
package bazelenv
