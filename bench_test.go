package bazelenv

import (
	"path/filepath"
	"testing"
)

func BenchmarkConfigValidate(b *testing.B) {
	cfg := DefaultConfig()
	cfg.SourceRoots = []string{"src", "lib", "node_modules"}
	b.ResetTimer()
	for b.Loop() {
		_ = cfg.Validate()
	}
}

func BenchmarkDetect(b *testing.B) {
	environ := []string{"PATH=/usr/bin", "HOME=/home/me", "RUNFILES_MANIFEST_FILE=/rf/MANIFEST"}
	b.ResetTimer()
	for b.Loop() {
		_, _ = Detect(environ, "/")
	}
}

func benchmarkResolve(b *testing.B, cacheSize int) {
	ws := b.TempDir()
	if err := writeBenchFile(filepath.Join(ws, "MODULE.bazel")); err != nil {
		b.Fatal(err)
	}
	if err := writeBenchFile(filepath.Join(ws, "lib", "entry.ts")); err != nil {
		b.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.ResolveCacheSize = cacheSize
	env, err := InitEnv(ws,
		WithEnviron(nil),
		WithWorkingDir(ws),
		WithConfig(cfg),
		WithSourceRoots("src", "app", "lib"),
	)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for b.Loop() {
		if _, err := env.Resolve("entry.ts"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkResolve_Cached(b *testing.B)   { benchmarkResolve(b, defaultResolveCacheSize) }
func BenchmarkResolve_Uncached(b *testing.B) { benchmarkResolve(b, 0) }
