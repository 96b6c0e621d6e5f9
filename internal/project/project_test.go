package project_test

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"choirgrid/internal/project"
	"choirgrid/internal/services"
	"choirgrid/internal/testsupport"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	testsupport.WriteManifest(t, dir, content)
}

func TestLoadPreservesOrderAndDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
title_page = "title.png"

[[tracks]]
path = "tenor.mp4"
offset_ms = 0

[[tracks]]
path = "alto.mp4"
offset_ms = 2000
rotation = 90

[[tracks]]
path = "bass.mp4"
offset_ms = -1000
`)
	p, err := project.Load(dir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	names := []string{}
	for _, tr := range p.Tracks() {
		names = append(names, tr.Name())
	}
	if strings.Join(names, ",") != "tenor.mp4,alto.mp4,bass.mp4" {
		t.Fatalf("order not preserved: %v", names)
	}
	alto := p.Tracks()[1]
	if alto.Offset() != 2 || alto.SyncMS() != -2000 || alto.Rotation != 90 {
		t.Fatalf("unexpected alto track: %+v", alto)
	}
	if p.TitlePath() != filepath.Join(dir, "title.png") {
		t.Fatalf("TitlePath = %q", p.TitlePath())
	}
	if p.CreditsPath() != "" {
		t.Fatalf("expected no credits page, got %q", p.CreditsPath())
	}
	if p.ResultsDir() != filepath.Join(dir, "results") {
		t.Fatalf("ResultsDir = %q", p.ResultsDir())
	}
	if p.MixedAudioPath() != filepath.Join(dir, "results", "mixed_audio.mp3") {
		t.Fatalf("MixedAudioPath = %q", p.MixedAudioPath())
	}
	if p.SilentVideoPath() != filepath.Join(dir, "results", "silent_video.mp4") {
		t.Fatalf("SilentVideoPath = %q", p.SilentVideoPath())
	}
	if p.TrackPath(2) != filepath.Join(dir, "bass.mp4") {
		t.Fatalf("TrackPath = %q", p.TrackPath(2))
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		marker  error
	}{
		{"no tracks", `title_page = "x.png"`, services.ErrValidation},
		{"bad rotation", "[[tracks]]\npath = \"a.mp4\"\nrotation = 45\n", services.ErrValidation},
		{"empty path", "[[tracks]]\npath = \" \"\n", services.ErrValidation},
		{"colliding export names", "[[tracks]]\npath = \"a,b.mp4\"\n[[tracks]]\npath = \"ab.mov\"\n", services.ErrValidation},
		{"unknown key", "[[tracks]]\npath = \"a.mp4\"\noffset = 3\n", services.ErrConfiguration},
		{"malformed", "[[tracks]\n", services.ErrConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, tt.content)
			if _, err := project.Load(dir); !errors.Is(err, tt.marker) {
				t.Fatalf("Load = %v, want %v", err, tt.marker)
			}
		})
	}

	if _, err := project.Load(t.TempDir()); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("missing manifest = %v, want ErrNotFound", err)
	}
}

func TestAlignedName(t *testing.T) {
	if got := project.AlignedName("/x/Smith, Jane.mov"); got != "aligned_video_Smith Jane.mp4" {
		t.Fatalf("AlignedName = %q", got)
	}
}

func TestScaffold(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mp4", "a.MOV", "notes.txt", "mixed_audio.mp3"} {
		testsupport.Touch(t, filepath.Join(dir, name))
	}
	path, n, err := project.Scaffold(dir)
	if err != nil {
		t.Fatalf("Scaffold returned error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 tracks, got %d", n)
	}
	p, err := project.Load(dir)
	if err != nil {
		t.Fatalf("scaffolded manifest does not load: %v", err)
	}
	if p.Tracks()[0].Path != "a.MOV" || p.Tracks()[1].Path != "b.mp4" {
		t.Fatalf("unexpected tracks: %+v", p.Tracks())
	}
	if _, _, err := project.Scaffold(dir); err == nil {
		t.Fatalf("expected refusal to overwrite %s", path)
	}
}
