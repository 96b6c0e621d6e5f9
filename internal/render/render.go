package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"choirgrid/internal/compositor"
	"choirgrid/internal/config"
	"choirgrid/internal/frame"
	"choirgrid/internal/grid"
	"choirgrid/internal/logging"
	"choirgrid/internal/media/ffmpeg"
	"choirgrid/internal/overlay"
	"choirgrid/internal/project"
	"choirgrid/internal/runlog"
	"choirgrid/internal/services"
	"choirgrid/internal/track"
	"choirgrid/internal/workspace"
)

// Deps are the collaborators a render uses. Runs may be nil to skip history.
type Deps struct {
	Probe   track.Prober
	Readers ffmpeg.ReaderFactory
	Writers ffmpeg.WriterFactory
	Runs    *runlog.Store
	Logger  *slog.Logger
}

// Result summarizes a finished render.
type Result struct {
	RunID    string
	Output   string
	Layout   grid.Layout
	Duration float64
	Ticks    int
	Active   int
	Skipped  []string
}

// Run renders the project's composite into results/silent_video.mp4.
//
// Overlay pages load before any track is opened; a missing or unreadable page
// is fatal. Tracks that fail to open are skipped. No output file is created
// when no track opens.
func Run(ctx context.Context, cfg *config.Config, proj *project.Project, deps Deps, progress compositor.ProgressFunc) (*Result, error) {
	ctx = services.WithStage(ctx, "render")
	logger := logging.NewComponentLogger(deps.Logger, "render")

	ws, err := workspace.Acquire(proj.ResultsDir())
	if err != nil {
		return nil, err
	}
	defer func() { _ = ws.Release() }()

	result := &Result{Output: proj.SilentVideoPath()}
	runID, err := startRun(ctx, deps.Runs, runlog.KindRender, proj.Dir)
	if err != nil {
		return nil, err
	}
	result.RunID = runID
	ctx = services.WithRunID(ctx, runID)
	logger = logging.WithContext(ctx, logger)

	runErr := render(ctx, cfg, proj, deps, logger, progress, result)
	finishRun(ctx, deps.Runs, logger, runID, result.Output, result.Ticks, runErr)
	if runErr != nil {
		return result, runErr
	}
	return result, nil
}

func render(ctx context.Context, cfg *config.Config, proj *project.Project, deps Deps, logger *slog.Logger, progress compositor.ProgressFunc, result *Result) error {
	title, credits, err := loadPages(proj, cfg.Render.Width, cfg.Render.Height)
	if err != nil {
		return err
	}

	session, err := Prepare(ctx, cfg, proj, track.Deps{Probe: deps.Probe, Readers: deps.Readers, Logger: deps.Logger})
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	result.Layout = session.Layout
	result.Duration = session.Duration
	result.Active = session.ActiveCount()

	inputs := make([]compositor.Input, 0, result.Active)
	for _, slot := range session.Slots {
		if !slot.Active() {
			result.Skipped = append(result.Skipped, slot.Spec.Name())
			continue
		}
		inputs = append(inputs, compositor.Input{
			Name:     slot.Spec.Name(),
			Source:   slot.Track,
			Offset:   slot.Spec.Offset(),
			Rotation: frame.Rotation(slot.Spec.Rotation),
		})
	}

	comp, err := compositor.New(compositor.Options{
		FPS:       float64(cfg.Render.FPS),
		FadeDecay: cfg.Render.FadeDecay,
		Crossfade: compositor.Crossfade{
			TitleHold:   cfg.Render.TitleHold,
			TitleFade:   cfg.Render.TitleFade,
			CreditsHold: cfg.Render.CreditsHold,
			CreditsFade: cfg.Render.CreditsFade,
		},
		ParallelFetch: cfg.Render.ParallelFetch,
		Logger:        deps.Logger,
	}, session.Layout, inputs, session.Duration, title, credits)
	if err != nil {
		return err
	}

	writer, err := deps.Writers(ctx, result.Output, cfg.Render.Width, cfg.Render.Height)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "render", "open encoder", result.Output, err)
	}

	logger.Info("render started",
		logging.String("output", result.Output),
		logging.Int("ticks", comp.Ticks()),
		logging.String(logging.FieldEventType, "render_started"),
	)
	written, runErr := comp.Run(ctx, writer, progress)
	closeErr := writer.Close()
	result.Ticks = written
	if runErr == nil && closeErr != nil {
		runErr = services.Wrap(services.ErrExternalTool, "render", "finish encoder", result.Output, closeErr)
	}
	if runErr != nil {
		if rmErr := os.Remove(result.Output); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logger.Debug("partial output not removed", logging.String("path", result.Output), logging.Error(rmErr))
		}
		return fmt.Errorf("render %s: %w", result.Output, runErr)
	}

	logger.Info("render completed",
		logging.String("output", result.Output),
		logging.Int("ticks", written),
		logging.Int("skipped_tracks", len(result.Skipped)),
		logging.String(logging.FieldEventType, "render_completed"),
	)
	return nil
}

// loadPages loads the optional title and credits pages fitted to the canvas.
func loadPages(proj *project.Project, width, height int) (*frame.Frame, *frame.Frame, error) {
	var title, credits *frame.Frame
	var err error
	if path := proj.TitlePath(); path != "" {
		if title, err = overlay.Load(path, width, height); err != nil {
			return nil, nil, err
		}
	}
	if path := proj.CreditsPath(); path != "" {
		if credits, err = overlay.Load(path, width, height); err != nil {
			return nil, nil, err
		}
	}
	return title, credits, nil
}
