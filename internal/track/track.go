package track

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"

	"choirgrid/internal/frame"
	"choirgrid/internal/logging"
	"choirgrid/internal/media/ffmpeg"
	"choirgrid/internal/media/ffprobe"
)

var (
	// ErrNoVideoStream marks a file the prober found no video stream in.
	ErrNoVideoStream = errors.New("no video stream")
	// ErrEndOfStream marks a track whose decoder ran out of frames.
	ErrEndOfStream = errors.New("end of stream")
	// ErrDecode marks a track whose decoder failed or returned a partial frame.
	ErrDecode = errors.New("decode failure")
)

// State is the cursor lifecycle of a Track.
type State int

const (
	StateUnopened State = iota
	StateOpen
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpen:
		return "open"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Metadata holds the intrinsic properties reported by the prober.
type Metadata struct {
	FPS         float64
	Width       int
	Height      int
	Duration    float64
	TotalFrames int
	Codec       string
	HasAudio    bool
}

// Prober inspects a media file.
type Prober func(ctx context.Context, path string) (ffprobe.Result, error)

// Deps are the collaborators a Track uses to inspect and decode its file.
type Deps struct {
	Probe   Prober
	Readers ffmpeg.ReaderFactory
	Logger  *slog.Logger
}

// Track is a forward-only cursor over one source video. The cursor starts at
// -1 and only ever advances; once the decoder fails or runs dry the track is
// Exhausted for good.
type Track struct {
	path    string
	deps    Deps
	logger  *slog.Logger
	meta    Metadata
	state   State
	counter int
	current *frame.Frame
	reader  ffmpeg.FrameReader
	err     error
}

// New returns an unopened track for path.
func New(path string, deps Deps) *Track {
	return &Track{
		path:    path,
		deps:    deps,
		logger:  logging.NewComponentLogger(deps.Logger, "track").With(logging.String(logging.FieldTrack, filepath.Base(path))),
		counter: -1,
	}
}

// Open probes the file, starts the decoder, and primes the cursor with frame 0.
// A file without a video stream fails with ErrNoVideoStream. A decoder that
// produces no first frame leaves the track Exhausted but still returns nil.
func (t *Track) Open(ctx context.Context) error {
	if t.state != StateUnopened {
		return fmt.Errorf("track %s: open called in state %s", t.path, t.state)
	}
	if t.deps.Probe == nil || t.deps.Readers == nil {
		return fmt.Errorf("track %s: missing prober or reader factory", t.path)
	}

	result, err := t.deps.Probe(ctx, t.path)
	if err != nil {
		return fmt.Errorf("probe %s: %w", t.path, err)
	}
	video, ok := result.VideoStream()
	if !ok {
		return fmt.Errorf("%s: %w", t.path, ErrNoVideoStream)
	}
	fps := video.FrameRate()
	if fps <= 0 || video.Width <= 0 || video.Height <= 0 {
		return fmt.Errorf("%s: %w: unusable stream (fps=%v size=%dx%d)", t.path, ErrNoVideoStream, fps, video.Width, video.Height)
	}
	duration := result.VideoDuration()
	t.meta = Metadata{
		FPS:         fps,
		Width:       video.Width,
		Height:      video.Height,
		Duration:    duration,
		TotalFrames: int(math.Round(duration * fps)),
		Codec:       video.CodecLongName,
		HasAudio:    result.AudioStreamCount() > 0,
	}

	reader, err := t.deps.Readers(ctx, t.path, video.Width, video.Height)
	if err != nil {
		return fmt.Errorf("open decoder for %s: %w", t.path, err)
	}
	t.reader = reader
	t.state = StateOpen

	t.logger.Debug("track opened",
		logging.Float64("fps", t.meta.FPS),
		logging.String("size", fmt.Sprintf("%dx%d", t.meta.Width, t.meta.Height)),
		logging.Float64("duration_seconds", t.meta.Duration),
		logging.Int("total_frames", t.meta.TotalFrames),
		logging.String("codec", t.meta.Codec),
	)

	if t.FrameAt(0) == nil {
		logging.WarnWithContext(t.logger, "no first frame decoded", "track_no_first_frame",
			logging.Error(t.err),
			logging.String(logging.FieldImpact, "track is kept but contributes no pixels"),
			logging.String(logging.FieldErrorHint, "verify the file plays in another player"),
		)
	}
	return nil
}

// Path returns the source path.
func (t *Track) Path() string { return t.path }

// Metadata returns the probed properties. It is zero until Open succeeds.
func (t *Track) Metadata() Metadata { return t.meta }

// State returns the cursor state.
func (t *Track) State() State { return t.state }

// Position returns the index of the current frame, or -1 before the first read.
func (t *Track) Position() int { return t.counter }

// Current returns the most recently decoded frame, or nil once exhausted.
func (t *Track) Current() *frame.Frame { return t.current }

// Err reports why the track became exhausted: ErrEndOfStream or ErrDecode.
func (t *Track) Err() error { return t.err }

// FrameAt returns the frame at index round(seconds*fps), decoding forward as
// needed. Requests behind the cursor return the current frame. Negative times
// return a black frame sized like the last decoded frame. Once exhausted the
// result is nil.
func (t *Track) FrameAt(seconds float64) *frame.Frame {
	if t.state == StateUnopened {
		return nil
	}
	target := int(math.Round(seconds * t.meta.FPS))
	if target < 0 {
		if t.current != nil {
			return frame.New(t.current.Width, t.current.Height)
		}
		return frame.New(t.meta.Width, t.meta.Height)
	}
	for t.counter < target && t.state == StateOpen {
		t.advance()
	}
	return t.current
}

// Next advances by exactly one frame and returns it, or nil once exhausted.
func (t *Track) Next() *frame.Frame {
	if t.state == StateOpen {
		t.advance()
	}
	return t.current
}

// Skip discards round(seconds*fps) frames so the current frame moves that
// many positions forward. It returns the number of frames actually skipped.
func (t *Track) Skip(seconds float64) int {
	n := int(math.Round(seconds * t.meta.FPS))
	skipped := 0
	for i := 0; i < n && t.state == StateOpen; i++ {
		if t.advance() {
			skipped++
		}
	}
	return skipped
}

// Close stops the decoder and marks the track exhausted.
func (t *Track) Close() error {
	var err error
	if t.reader != nil {
		err = t.reader.Close()
		t.reader = nil
	}
	if t.state == StateOpen {
		t.exhaust(ErrEndOfStream)
	}
	return err
}

func (t *Track) advance() bool {
	f, err := t.reader.ReadFrame()
	switch {
	case errors.Is(err, io.EOF):
		t.exhaust(ErrEndOfStream)
		return false
	case err != nil:
		t.exhaust(fmt.Errorf("%w: %w", ErrDecode, err))
		return false
	case f.Empty():
		t.exhaust(ErrEndOfStream)
		return false
	}
	t.counter++
	t.current = f
	return true
}

func (t *Track) exhaust(cause error) {
	t.state = StateExhausted
	t.current = nil
	t.err = cause
	if t.reader != nil {
		_ = t.reader.Close()
		t.reader = nil
	}
	if errors.Is(cause, ErrDecode) {
		t.logger.Debug("track exhausted by decode failure", logging.Int("frame", t.counter), logging.Error(cause))
	}
}
