package compositor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"choirgrid/internal/frame"
	"choirgrid/internal/grid"
	"choirgrid/internal/logging"
	"choirgrid/internal/timeline"
)

// Source yields the frame for a track-local time, or nil when it has none.
// *track.Track satisfies it.
type Source interface {
	FrameAt(seconds float64) *frame.Frame
}

// Sink receives composed frames in strictly increasing time order.
type Sink interface {
	WriteFrame(*frame.Frame) error
}

// ProgressFunc is called after each tick is written.
type ProgressFunc func(done, total int)

// Input is one active track placed in the grid. Inputs are assigned cells in
// order, so the k-th input always occupies slot k.
type Input struct {
	Name     string
	Source   Source
	Offset   float64
	Rotation frame.Rotation
}

// Options configure the canvas and the per-tick behaviour.
type Options struct {
	FPS           float64
	FadeDecay     float64
	Crossfade     Crossfade
	ParallelFetch bool
	Logger        *slog.Logger
}

type slot struct {
	last   *frame.Frame
	absent int
}

// Compositor renders one canvas per tick from its inputs.
type Compositor struct {
	opts     Options
	layout   grid.Layout
	inputs   []Input
	slots    []slot
	duration float64
	title    *frame.Frame
	credits  *frame.Frame
	logger   *slog.Logger
}

// New validates the inputs against the layout. title may be nil (no title
// crossfade); a nil credits page fades the end of the composite to black.
func New(opts Options, layout grid.Layout, inputs []Input, duration float64, title, credits *frame.Frame) (*Compositor, error) {
	if len(inputs) == 0 {
		return nil, timeline.ErrNoActiveTracks
	}
	if len(inputs) > layout.Capacity() {
		return nil, fmt.Errorf("compositor: %d inputs exceed %s grid", len(inputs), layout)
	}
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("compositor: invalid fps %v", opts.FPS)
	}
	for name, page := range map[string]*frame.Frame{"title": title, "credits": credits} {
		if page != nil && (page.Width != layout.CanvasW || page.Height != layout.CanvasH) {
			return nil, fmt.Errorf("compositor: %s page is %dx%d, canvas is %dx%d", name, page.Width, page.Height, layout.CanvasW, layout.CanvasH)
		}
	}
	if credits == nil {
		credits = frame.New(layout.CanvasW, layout.CanvasH)
	}

	logger := logging.NewComponentLogger(opts.Logger, "compositor")
	for _, in := range inputs {
		if !in.Rotation.Valid() {
			logging.WarnWithContext(logger, "unsupported rotation hint ignored", "rotation_unsupported",
				logging.String(logging.FieldTrack, in.Name),
				logging.Int("rotation", int(in.Rotation)),
				logging.String(logging.FieldImpact, "track is composited unrotated"),
				logging.String(logging.FieldErrorHint, "use 0, 90, 180, or 270 in project.toml"),
			)
		}
	}

	return &Compositor{
		opts:     opts,
		layout:   layout,
		inputs:   inputs,
		slots:    make([]slot, len(inputs)),
		duration: duration,
		title:    title,
		credits:  credits,
		logger:   logger,
	}, nil
}

// Ticks returns how many frames Run will emit.
func (c *Compositor) Ticks() int {
	return timeline.TickCount(c.duration, c.opts.FPS)
}

// Run composes every tick from 0 through the duration and writes each canvas
// to sink. It returns the number of frames written.
func (c *Compositor) Run(ctx context.Context, sink Sink, progress ProgressFunc) (int, error) {
	if sink == nil {
		return 0, errors.New("compositor: nil sink")
	}
	total := c.Ticks()
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		out := c.Compose(timeline.TickTime(i, c.opts.FPS))
		if err := sink.WriteFrame(out); err != nil {
			return i, fmt.Errorf("write tick %d: %w", i, err)
		}
		if progress != nil {
			progress(i+1, total)
		}
	}
	return total, nil
}

// Compose renders the canvas for global time t. Calls must use
// non-decreasing t because sources only read forward.
func (c *Compositor) Compose(t float64) *frame.Frame {
	fetched := c.fetch(t)
	canvas := frame.New(c.layout.CanvasW, c.layout.CanvasH)

	for i, raw := range fetched {
		cell := c.cellFrame(i, raw)
		if cell == nil {
			continue
		}
		x, y := c.layout.Placement(i, cell.Width, cell.Height)
		canvas.Paste(cell, x, y)
	}

	xf := c.opts.Crossfade
	switch {
	case c.title != nil && xf.inTitle(t):
		return frame.Blend(c.title, canvas, xf.TitleAlpha(t))
	case xf.inCredits(t, c.duration):
		return frame.Blend(c.credits, canvas, xf.CreditsAlpha(t, c.duration))
	default:
		return canvas
	}
}

func (c *Compositor) fetch(t float64) []*frame.Frame {
	fetched := make([]*frame.Frame, len(c.inputs))
	if !c.opts.ParallelFetch || len(c.inputs) == 1 {
		for i, in := range c.inputs {
			fetched[i] = in.Source.FrameAt(timeline.LocalTime(in.Offset, t))
		}
		return fetched
	}
	var wg sync.WaitGroup
	for i, in := range c.inputs {
		wg.Go(func() {
			fetched[i] = in.Source.FrameAt(timeline.LocalTime(in.Offset, t))
		})
	}
	wg.Wait()
	return fetched
}

// cellFrame turns a fetched frame into the pixels for slot i. A missing frame
// replays the slot's last good cell darkened by decay^k after k misses; a slot
// that never had a frame stays empty.
func (c *Compositor) cellFrame(i int, raw *frame.Frame) *frame.Frame {
	s := &c.slots[i]
	if raw == nil {
		if s.last == nil {
			return nil
		}
		s.absent++
		return s.last.Decay(c.opts.FadeDecay, s.absent)
	}
	if rot := c.inputs[i].Rotation; rot != frame.Rotate0 {
		raw, _ = raw.Rotate(rot)
	}
	cell := ZoomCrop(raw, c.layout.CellW, c.layout.CellH, c.layout.Landscape)
	s.last = cell
	s.absent = 0
	return cell
}
