package testsupport

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"choirgrid/internal/frame"
	"choirgrid/internal/media/ffmpeg"
	"choirgrid/internal/media/ffprobe"
)

// Clip describes a synthetic media file served by FakeMedia.
type Clip struct {
	Width    int
	Height   int
	FPS      float64
	Duration float64
	// Frames is the number of decodable frames; defaults to round(Duration*FPS).
	Frames int
	Audio  bool
	// NoVideo makes the prober report an audio-only file.
	NoVideo bool
	// FailAt makes the reader return a short-frame error at this index when > 0.
	FailAt int
	// Color fills every channel of every frame. Zero means "frame index + 1".
	Color uint8
}

// FakeMedia serves probe results and decoded frames for synthetic clips keyed
// by base name.
type FakeMedia struct {
	mu     sync.Mutex
	clips  map[string]Clip
	opened map[string]int
}

// NewFakeMedia returns an empty fake.
func NewFakeMedia() *FakeMedia {
	return &FakeMedia{clips: map[string]Clip{}, opened: map[string]int{}}
}

// Add registers a clip under name.
func (m *FakeMedia) Add(name string, clip Clip) *FakeMedia {
	m.mu.Lock()
	defer m.mu.Unlock()
	if clip.Frames == 0 && !clip.NoVideo {
		clip.Frames = int(clip.Duration*clip.FPS + 0.5)
	}
	m.clips[name] = clip
	return m
}

// Opened returns how many readers were opened for name.
func (m *FakeMedia) Opened(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened[name]
}

func (m *FakeMedia) clip(path string) (Clip, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clips[filepath.Base(path)]
	return c, ok
}

// Probe mimics ffprobe for registered clips.
func (m *FakeMedia) Probe(_ context.Context, path string) (ffprobe.Result, error) {
	c, ok := m.clip(path)
	if !ok {
		return ffprobe.Result{}, fmt.Errorf("ffprobe inspect: %s: no such file", path)
	}
	var result ffprobe.Result
	if !c.NoVideo {
		result.Streams = append(result.Streams, ffprobe.Stream{
			CodecType:     "video",
			CodecName:     "h264",
			CodecLongName: "H.264 / AVC",
			Width:         c.Width,
			Height:        c.Height,
			RFrameRate:    strconv.FormatFloat(c.FPS, 'f', -1, 64) + "/1",
			AvgFrameRate:  strconv.FormatFloat(c.FPS, 'f', -1, 64) + "/1",
			Duration:      strconv.FormatFloat(c.Duration, 'f', -1, 64),
		})
	}
	if c.Audio || c.NoVideo {
		result.Streams = append(result.Streams, ffprobe.Stream{CodecType: "audio", CodecName: "aac"})
	}
	result.Format.Duration = strconv.FormatFloat(c.Duration, 'f', -1, 64)
	return result, nil
}

// Readers returns a reader factory serving registered clips.
func (m *FakeMedia) Readers() ffmpeg.ReaderFactory {
	return func(_ context.Context, path string, width, height int) (ffmpeg.FrameReader, error) {
		c, ok := m.clip(path)
		if !ok {
			return nil, fmt.Errorf("ffmpeg reader: %s: no such file", path)
		}
		m.mu.Lock()
		m.opened[filepath.Base(path)]++
		m.mu.Unlock()
		return &FakeReader{clip: c, width: width, height: height}, nil
	}
}

// FakeReader yields synthetic frames for a Clip.
type FakeReader struct {
	clip   Clip
	width  int
	height int
	next   int
	closed bool
}

// ReadFrame returns the next synthetic frame.
func (r *FakeReader) ReadFrame() (*frame.Frame, error) {
	if r.closed || r.next >= r.clip.Frames {
		return nil, io.EOF
	}
	if r.clip.FailAt > 0 && r.next == r.clip.FailAt {
		return nil, fmt.Errorf("%w: synthetic failure at frame %d", ffmpeg.ErrShortFrame, r.next)
	}
	f := SolidFrame(r.width, r.height, r.colorFor(r.next))
	r.next++
	return f, nil
}

func (r *FakeReader) colorFor(index int) uint8 {
	if r.clip.Color != 0 {
		return r.clip.Color
	}
	return uint8(index + 1)
}

// Close stops the reader.
func (r *FakeReader) Close() error {
	r.closed = true
	return nil
}

// SolidFrame returns a frame with every channel set to value.
func SolidFrame(width, height int, value uint8) *frame.Frame {
	f := frame.New(width, height)
	for i := range f.Pix {
		f.Pix[i] = value
	}
	return f
}

// MemoryWriter records frames written to it.
type MemoryWriter struct {
	Output string
	Width  int
	Height int
	Frames []*frame.Frame
	Closed bool
}

// WriteFrame stores a copy of f.
func (w *MemoryWriter) WriteFrame(f *frame.Frame) error {
	if w.Closed {
		return fmt.Errorf("memory writer: closed")
	}
	if f.Width != w.Width || f.Height != w.Height {
		return fmt.Errorf("memory writer: frame %dx%d, want %dx%d", f.Width, f.Height, w.Width, w.Height)
	}
	w.Frames = append(w.Frames, f.Clone())
	return nil
}

// Close marks the writer closed and, for absolute output paths, leaves a
// placeholder file behind the way the encoder would.
func (w *MemoryWriter) Close() error {
	w.Closed = true
	if filepath.IsAbs(w.Output) {
		return os.WriteFile(w.Output, []byte("x"), 0o644)
	}
	return nil
}

// MemoryWriters hands out MemoryWriters and remembers them by output path.
// Order keeps every writer in creation order, including ones whose output
// path was reused.
type MemoryWriters struct {
	mu      sync.Mutex
	Writers map[string]*MemoryWriter
	Order   []*MemoryWriter
}

// NewMemoryWriters returns an empty registry.
func NewMemoryWriters() *MemoryWriters {
	return &MemoryWriters{Writers: map[string]*MemoryWriter{}}
}

// Factory returns a WriterFactory backed by the registry.
func (m *MemoryWriters) Factory() ffmpeg.WriterFactory {
	return func(_ context.Context, output string, width, height int) (ffmpeg.FrameWriter, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		w := &MemoryWriter{Output: output, Width: width, Height: height}
		m.Writers[output] = w
		m.Order = append(m.Order, w)
		return w, nil
	}
}

// Get returns the writer created for output, if any.
func (m *MemoryWriters) Get(output string) *MemoryWriter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Writers[output]
}
