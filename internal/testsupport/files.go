package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"choirgrid/internal/project"
)

// WriteManifest writes project.toml into dir and returns dir.
func WriteManifest(t testing.TB, dir, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir project %s: %v", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, project.ManifestName), []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return dir
}

// Touch creates placeholder files, with their parent directories, for code
// that only checks existence or matches names.
func Touch(t testing.TB, paths ...string) {
	t.Helper()
	for _, path := range paths {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", path, err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("touch %s: %v", path, err)
		}
	}
}

// WriteScript installs an executable shell script named name in a fresh temp
// dir and returns its path. Tests use it to stand in for ffmpeg and ffprobe.
func WriteScript(t testing.TB, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script %s: %v", name, err)
	}
	return path
}
