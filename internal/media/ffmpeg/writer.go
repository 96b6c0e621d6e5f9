package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"choirgrid/internal/frame"
)

// FrameWriter consumes frames in output order. Close finalizes the file.
type FrameWriter interface {
	WriteFrame(*frame.Frame) error
	Close() error
}

// WriterFactory opens a FrameWriter producing output from width x height frames.
type WriterFactory func(ctx context.Context, output string, width, height int) (FrameWriter, error)

// Writer encodes raw rgb24 frames piped into an ffmpeg subprocess.
type Writer struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *bytes.Buffer
	width  int
	height int
	frames int
	closed bool
	exit   error
}

// NewWriterFactory returns a WriterFactory encoding at fps with the given
// quality preset.
func NewWriterFactory(binary string, fps float64, quality string) WriterFactory {
	return func(ctx context.Context, output string, width, height int) (FrameWriter, error) {
		return OpenWriter(ctx, binary, output, width, height, fps, quality)
	}
}

// OpenWriter starts an encoder writing to output.
func OpenWriter(ctx context.Context, binary, output string, width, height int, fps float64, quality string) (*Writer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("ffmpeg writer: invalid frame size %dx%d", width, height)
	}
	if fps <= 0 {
		return nil, fmt.Errorf("ffmpeg writer: invalid frame rate %v", fps)
	}
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, binary, RawEncodeArgs(width, height, fps, quality, output)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg writer: stdin pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg writer: start: %w", err)
	}
	return &Writer{cmd: cmd, stdin: stdin, stderr: &stderr, width: width, height: height}, nil
}

// WriteFrame submits one frame. Frames must match the size given at open.
func (w *Writer) WriteFrame(f *frame.Frame) error {
	if w.closed {
		return errors.New("ffmpeg writer: closed")
	}
	if f == nil || f.Width != w.width || f.Height != w.height {
		return fmt.Errorf("ffmpeg writer: frame size mismatch, want %dx%d", w.width, w.height)
	}
	if _, err := w.stdin.Write(f.Pix); err != nil {
		// The encoder stopped reading. Reap it before touching stderr.
		if exitErr := w.finish(); exitErr != nil {
			return fmt.Errorf("ffmpeg writer: write frame %d: %w (%v)", w.frames, err, exitErr)
		}
		return fmt.Errorf("ffmpeg writer: write frame %d: %w", w.frames, err)
	}
	w.frames++
	return nil
}

// Frames returns the number of frames written so far.
func (w *Writer) Frames() int {
	return w.frames
}

// Close flushes the encoder and waits for it to exit.
func (w *Writer) Close() error {
	if w.closed {
		return w.exit
	}
	return w.finish()
}

// finish closes stdin and waits for the encoder. It runs once; later calls
// return the recorded result.
func (w *Writer) finish() error {
	if w.closed {
		return w.exit
	}
	w.closed = true
	closeErr := w.stdin.Close()
	if err := w.cmd.Wait(); err != nil {
		w.exit = fmt.Errorf("ffmpeg writer: %w: %s", err, lastLines(w.stderr.String(), 5))
	} else if closeErr != nil {
		w.exit = fmt.Errorf("ffmpeg writer: close stdin: %w", closeErr)
	}
	return w.exit
}
