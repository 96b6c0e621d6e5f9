package deps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Optional", Command: "also-not-present", Optional: true},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[3].Detail != "command not configured" {
		t.Fatalf("unexpected blank detail: %q", results[3].Detail)
	}

	missing := Missing(results)
	if len(missing) != 2 || missing[0].Name != "Missing" || missing[1].Name != "Blank" {
		t.Fatalf("unexpected Missing result: %#v", missing)
	}
}

const encoderListing = `Encoders:
 V..... = Video
 A..... = Audio
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC
 A....D aac                  AAC (Advanced Audio Coding)
 A....D libmp3lame           libmp3lame MP3 (MPEG audio layer 3)
`

func TestCheckFFmpegEncoders(t *testing.T) {
	tests := []struct {
		name      string
		output    string
		err       error
		available bool
		detail    string
	}{
		{"all present", encoderListing, nil, true, ""},
		{"missing lame", " ------\n V....D libx264 x\n A....D aac x\n", nil, false, "missing libmp3lame"},
		{"header rows ignored", "V..... libx264\n ------\n", nil, false, "missing libx264, aac, libmp3lame"},
		{"command fails", "", errors.New("exit status 1"), false, "list encoders: exit status 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := func(_ context.Context, name string, args ...string) ([]byte, error) {
				if name != "ffmpeg" || len(args) != 2 || args[1] != "-encoders" {
					t.Fatalf("unexpected invocation %s %v", name, args)
				}
				return []byte(tt.output), tt.err
			}
			status := CheckFFmpegEncoders(context.Background(), "ffmpeg", run)
			if status.Available != tt.available || status.Detail != tt.detail {
				t.Fatalf("got %+v", status)
			}
		})
	}
}
