package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"choirgrid/internal/config"
	"choirgrid/internal/frame"
	"choirgrid/internal/grid"
	"choirgrid/internal/logging"
	"choirgrid/internal/project"
	"choirgrid/internal/timeline"
	"choirgrid/internal/track"
)

// Slot is one manifest entry after opening. Track is nil when the source
// failed to open; the slot still occupies its manifest position.
type Slot struct {
	Spec    project.Track
	Track   *track.Track
	OpenErr error
}

// Active reports whether the slot contributes to the timeline and the grid.
func (s Slot) Active() bool {
	return s.Track != nil
}

// Session is the setup phase of a render: every track opened in manifest
// order, the composite duration, and the grid layout.
type Session struct {
	Slots     []Slot
	Duration  float64
	Layout    grid.Layout
	Landscape bool
}

// Prepare opens the project's tracks, computes the timeline duration, and
// plans the grid. Tracks that fail to open are logged and kept as inactive
// placeholders. With no active track it returns timeline.ErrNoActiveTracks and
// closes whatever it opened.
func Prepare(ctx context.Context, cfg *config.Config, proj *project.Project, deps track.Deps) (*Session, error) {
	logger := logging.NewComponentLogger(deps.Logger, "render")
	session := &Session{Slots: make([]Slot, 0, len(proj.Tracks()))}

	for i, spec := range proj.Tracks() {
		if err := ctx.Err(); err != nil {
			session.Close()
			return nil, err
		}
		t := track.New(proj.TrackPath(i), deps)
		if err := t.Open(ctx); err != nil {
			_ = t.Close()
			logOpenFailure(logger, spec, err)
			session.Slots = append(session.Slots, Slot{Spec: spec, OpenErr: err})
			continue
		}
		session.Slots = append(session.Slots, Slot{Spec: spec, Track: t})
	}

	entries := make([]timeline.Entry, len(session.Slots))
	var firstFrames []*frame.Frame
	for i, slot := range session.Slots {
		entries[i] = timeline.Entry{Offset: slot.Spec.Offset(), Active: slot.Active()}
		if slot.Active() {
			entries[i].Duration = slot.Track.Metadata().Duration
			firstFrames = append(firstFrames, slot.Track.Current())
		}
	}

	duration, err := timeline.Duration(entries, cfg.Render.TailSeconds)
	if err != nil {
		session.Close()
		return nil, err
	}
	session.Duration = duration
	session.Landscape = grid.Vote(firstFrames)

	layout, err := grid.Plan(len(firstFrames), session.Landscape, cfg.Render.Width, cfg.Render.Height, cfg.Render.Border)
	if err != nil {
		session.Close()
		return nil, err
	}
	session.Layout = layout

	logger.Info("render plan ready",
		logging.Int("tracks", len(session.Slots)),
		logging.Int("active", len(firstFrames)),
		logging.String("grid", layout.String()),
		logging.Bool("landscape", session.Landscape),
		logging.Float64("duration_seconds", duration),
		logging.String(logging.FieldEventType, "render_plan"),
	)
	return session, nil
}

// ActiveCount returns how many slots opened.
func (s *Session) ActiveCount() int {
	n := 0
	for _, slot := range s.Slots {
		if slot.Active() {
			n++
		}
	}
	return n
}

// Close stops every open decoder.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	for _, slot := range s.Slots {
		if slot.Track != nil {
			if err := slot.Track.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", slot.Spec.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

func logOpenFailure(logger *slog.Logger, spec project.Track, err error) {
	hint := "check the file exists and ffprobe can read it"
	if errors.Is(err, track.ErrNoVideoStream) {
		hint = "the file has no video stream; remove it from project.toml or re-export it"
	}
	logging.WarnWithContext(logger, "track failed to open", "track_open_failed",
		logging.String(logging.FieldTrack, spec.Name()),
		logging.Error(err),
		logging.String(logging.FieldImpact, "track is left out of the grid and the duration"),
		logging.String(logging.FieldErrorHint, hint),
	)
}
