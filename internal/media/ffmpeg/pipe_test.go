package ffmpeg

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"choirgrid/internal/frame"
)

// writeScript installs an executable shell script standing in for ffmpeg.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestReaderExitStatus(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		frames  int
		wantErr error
	}{
		{
			name:    "clean end",
			script:  "printf 'abcdefabcdef'\nexit 0\n",
			frames:  2,
			wantErr: io.EOF,
		},
		{
			name:    "failure before any frame",
			script:  "echo 'Invalid data found when processing input' >&2\nexit 1\n",
			frames:  0,
			wantErr: ErrDecoderExit,
		},
		{
			name:    "failure at frame boundary",
			script:  "printf 'abcdef'\necho 'corrupt packet' >&2\nexit 1\n",
			frames:  1,
			wantErr: ErrDecoderExit,
		},
		{
			name:    "partial frame",
			script:  "printf 'abcde'\ni=0; while [ $i -lt 2000 ]; do echo \"warning line $i\" >&2; i=$((i+1)); done\nexit 1\n",
			frames:  0,
			wantErr: ErrShortFrame,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := OpenReader(context.Background(), writeScript(t, tt.script), "in.mp4", 1, 2)
			if err != nil {
				t.Fatalf("OpenReader: %v", err)
			}
			defer reader.Close()

			frames := 0
			for {
				_, err = reader.ReadFrame()
				if err != nil {
					break
				}
				frames++
			}
			if frames != tt.frames {
				t.Errorf("frames = %d, want %d", frames, tt.frames)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == io.EOF && err != io.EOF {
				t.Fatalf("clean end should be bare io.EOF, got %v", err)
			}
		})
	}
}

func TestReaderExitCarriesStderr(t *testing.T) {
	reader, err := OpenReader(context.Background(), writeScript(t, "echo 'Invalid data found' >&2\nexit 1\n"), "in.mp4", 2, 2)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer reader.Close()

	_, err = reader.ReadFrame()
	if err == nil || !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected decoder stderr in error, got %v", err)
	}
	if err := reader.Close(); err != nil {
		t.Fatalf("Close after exit: %v", err)
	}
}

func TestWriterEncoderExit(t *testing.T) {
	script := "echo 'Unknown encoder' >&2\nexit 1\n"
	writer, err := OpenWriter(context.Background(), writeScript(t, script), filepath.Join(t.TempDir(), "out.mp4"), 64, 64, 25, QualitySane)
	if err != nil {
		t.Fatalf("OpenWriter: %v", err)
	}

	f := frame.New(64, 64)
	var writeErr error
	for range 64 {
		if writeErr = writer.WriteFrame(f); writeErr != nil {
			break
		}
	}
	closeErr := writer.Close()
	if writeErr == nil && closeErr == nil {
		t.Fatal("expected the failed encoder to surface an error")
	}
	if closeErr == nil || !strings.Contains(closeErr.Error(), "Unknown encoder") {
		t.Fatalf("Close error = %v, want encoder stderr", closeErr)
	}
	if again := writer.Close(); again == nil || again.Error() != closeErr.Error() {
		t.Fatalf("second Close = %v, want %v", again, closeErr)
	}
}
