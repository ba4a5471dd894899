package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ownc.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeManifest(t, `
[project]
entry = "app::main"
`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Entry != "app::main" {
		t.Fatalf("expected entry app::main, got %q", p.Entry)
	}
	if p.CacheDir != defaultCacheDir {
		t.Fatalf("expected default cache dir %q, got %q", defaultCacheDir, p.CacheDir)
	}
	if p.MaxIterations != defaultMaxIterations {
		t.Fatalf("expected default max iterations %d, got %d", defaultMaxIterations, p.MaxIterations)
	}
	if p.Trace != TraceOff {
		t.Fatalf("expected default trace level off, got %q", p.Trace)
	}
}

func TestLoadRejectsMissingEntry(t *testing.T) {
	path := writeManifest(t, `
[project]
cache_dir = ".cache"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for a manifest missing [project].entry")
	}
}

func TestLoadRejectsUnknownTraceLevel(t *testing.T) {
	path := writeManifest(t, `
[project]
entry = "app::main"

[trace]
level = "loud"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for an unrecognized trace level")
	}
}

func TestLoadOverridesAreHonored(t *testing.T) {
	path := writeManifest(t, `
[project]
entry = "app::main"
cache_dir = "build/cache"

[limits]
max_iterations = 42

[trace]
level = "detail"
`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.CacheDir != "build/cache" {
		t.Fatalf("expected cache_dir override, got %q", p.CacheDir)
	}
	if p.MaxIterations != 42 {
		t.Fatalf("expected max_iterations override, got %d", p.MaxIterations)
	}
	if p.Trace != TraceDetail {
		t.Fatalf("expected trace level detail, got %q", p.Trace)
	}
}
