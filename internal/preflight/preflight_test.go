package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"choirgrid/internal/project"
	"choirgrid/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckWritableDir(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name   string
		path   string
		passed bool
	}{
		{"existing", base, true},
		{"created later", filepath.Join(base, "results", "nested"), true},
		{"under a file", filepath.Join(file, "results"), false},
		{"blank", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckWritableDir("dir", tt.path); got.Passed != tt.passed {
				t.Fatalf("Passed = %v (%s), want %v", got.Passed, got.Detail, tt.passed)
			}
		})
	}
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.mp4")
	testsupport.Touch(t, path)
	if r := CheckFile("track", path); !r.Passed {
		t.Fatalf("expected pass: %s", r.Detail)
	}
	if r := CheckFile("track", dir); r.Passed {
		t.Fatal("expected failure for directory")
	}
	if r := CheckFile("track", filepath.Join(dir, "missing.mp4")); r.Passed {
		t.Fatal("expected failure for missing file")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, nil, Options{}); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_ProjectChecks(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	dir := t.TempDir()
	testsupport.Touch(t, filepath.Join(dir, "a.mp4"))
	testsupport.WriteManifest(t, dir, "title_page = \"title.png\"\n[[tracks]]\npath = \"a.mp4\"\n[[tracks]]\npath = \"gone.mp4\"\n")
	proj, err := project.Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	listing := func(context.Context, string, ...string) ([]byte, error) {
		return []byte(" ------\n V....D libx264 x\n A....D aac x\n A....D libmp3lame x\n"), nil
	}
	results := RunAll(context.Background(), cfg, proj, Options{Output: listing})

	byName := map[string]Result{}
	for _, r := range results {
		byName[r.Name] = r
	}
	for _, name := range []string{"Log directory", "FFmpeg", "FFprobe", "FFmpeg encoders", "Project directory", "Results directory", "Track 1 (a.mp4)"} {
		if r, ok := byName[name]; !ok || !r.Passed {
			t.Errorf("expected %q to pass, got %+v", name, r)
		}
	}
	if r := byName["Track 2 (gone.mp4)"]; r.Passed || !r.Advisory {
		t.Errorf("missing track should be an advisory failure: %+v", r)
	}
	if r := byName["Mixed audio"]; r.Passed || !r.Advisory {
		t.Errorf("missing mixed audio should be advisory: %+v", r)
	}

	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Title page" {
		t.Fatalf("expected only the title page to fail, got %+v", failed)
	}
}
