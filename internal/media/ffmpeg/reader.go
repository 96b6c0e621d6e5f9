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

var (
	// ErrShortFrame reports a frame payload that ended before width*height*3 bytes.
	ErrShortFrame = errors.New("short frame payload")
	// ErrDecoderExit reports a decoder that closed its output and exited non-zero.
	ErrDecoderExit = errors.New("decoder exited with failure")
)

// FrameReader yields decoded frames in presentation order. ReadFrame returns
// io.EOF once the stream is drained.
type FrameReader interface {
	ReadFrame() (*frame.Frame, error)
	Close() error
}

// ReaderFactory opens a FrameReader for a file whose video stream is width x height.
type ReaderFactory func(ctx context.Context, path string, width, height int) (FrameReader, error)

// Reader decodes a file through an ffmpeg subprocess that writes raw rgb24
// frames to a pipe.
type Reader struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer
	width  int
	height int
	buf    []byte
	closed bool
	exited bool
	exit   error
}

// NewReaderFactory returns a ReaderFactory that launches binary.
func NewReaderFactory(binary string) ReaderFactory {
	return func(ctx context.Context, path string, width, height int) (FrameReader, error) {
		return OpenReader(ctx, binary, path, width, height)
	}
}

// OpenReader starts decoding path.
func OpenReader(ctx context.Context, binary, path string, width, height int) (*Reader, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("ffmpeg reader: invalid frame size %dx%d", width, height)
	}
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, binary, DecodeArgs(path)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg reader: stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg reader: start: %w", err)
	}
	return &Reader{
		cmd:    cmd,
		stdout: stdout,
		stderr: &stderr,
		width:  width,
		height: height,
		buf:    make([]byte, width*height*3),
	}, nil
}

// ReadFrame reads the next frame. io.EOF is returned only when the decoder
// drained its output and exited cleanly. A non-zero exit yields
// ErrDecoderExit and a partial payload yields ErrShortFrame.
func (r *Reader) ReadFrame() (*frame.Frame, error) {
	if r.closed {
		return nil, io.EOF
	}
	n, err := io.ReadFull(r.stdout, r.buf)
	switch {
	case err == nil:
		return frame.FromBytes(r.width, r.height, r.buf)
	case errors.Is(err, io.EOF):
		if exitErr := r.wait(); exitErr != nil {
			return nil, fmt.Errorf("%w: %w: %s", ErrDecoderExit, exitErr, r.diagnostics())
		}
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		exitErr := r.wait()
		return nil, fmt.Errorf("%w: got %d of %d bytes (exit: %v): %s", ErrShortFrame, n, len(r.buf), exitErr, r.diagnostics())
	default:
		return nil, fmt.Errorf("ffmpeg reader: %w", err)
	}
}

// wait reaps the decoder once its output is drained. stderr is only safe to
// read after it returns.
func (r *Reader) wait() error {
	if !r.exited {
		r.exited = true
		r.exit = r.cmd.Wait()
	}
	return r.exit
}

// diagnostics must only be called after wait.
func (r *Reader) diagnostics() string {
	return lastLines(r.stderr.String(), 5)
}

// Close stops the decoder. Frames not yet consumed are discarded.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.exited {
		return nil
	}
	_ = r.stdout.Close()
	if r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
	}
	_ = r.wait()
	return nil
}
