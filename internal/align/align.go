package align

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"choirgrid/internal/config"
	"choirgrid/internal/frame"
	"choirgrid/internal/logging"
	"choirgrid/internal/media/ffmpeg"
	"choirgrid/internal/project"
	"choirgrid/internal/runlog"
	"choirgrid/internal/services"
	"choirgrid/internal/track"
	"choirgrid/internal/workspace"
)

// ErrNoFrames marks a track whose decoder produced nothing to export.
var ErrNoFrames = errors.New("no frames decoded")

// WritersFor returns an encoder factory running at the given frame rate.
// Aligned exports keep each track's own rate.
type WritersFor func(fps float64) ffmpeg.WriterFactory

// Deps are the collaborators an export uses. Runs may be nil.
type Deps struct {
	Probe   track.Prober
	Readers ffmpeg.ReaderFactory
	Writers WritersFor
	Run     ffmpeg.CommandRunner
	Runs    *runlog.Store
	Logger  *slog.Logger
}

// Export is the outcome for one manifest track.
type Export struct {
	Source     string
	Output     string
	Frames     int
	PadFrames  int
	TrimFrames int
	Width      int
	Height     int
	Audio      bool
	// Skipped marks a source with no video stream. Err carries the reason
	// but the run does not fail because of it.
	Skipped bool
	Err     error
}

// Result summarizes an align run.
type Result struct {
	RunID   string
	Exports []Export
}

// Completed counts successful exports.
func (r *Result) Completed() int {
	n := 0
	for _, e := range r.Exports {
		if e.Err == nil && !e.Skipped {
			n++
		}
	}
	return n
}

// Skipped counts sources left out for lack of a video stream.
func (r *Result) Skipped() int {
	n := 0
	for _, e := range r.Exports {
		if e.Skipped {
			n++
		}
	}
	return n
}

// Run writes aligned_video_<name>.mp4 for every manifest track: the video
// trimmed or padded so all tracks share a start, audio shifted to match, and
// frames downscaled above the configured pixel budget. Previous aligned
// exports are removed first. A failing track does not stop the others; every
// failure is joined into the returned error.
func Run(ctx context.Context, cfg *config.Config, proj *project.Project, deps Deps) (*Result, error) {
	ctx = services.WithStage(ctx, "align")
	logger := logging.NewComponentLogger(deps.Logger, "align")

	ws, err := workspace.Acquire(proj.ResultsDir())
	if err != nil {
		return nil, err
	}
	defer func() { _ = ws.Release() }()

	result := &Result{}
	if deps.Runs != nil {
		if result.RunID, err = deps.Runs.Start(ctx, runlog.KindAlign, proj.Dir, ""); err != nil {
			return nil, err
		}
	}
	ctx = services.WithRunID(ctx, result.RunID)
	logger = logging.WithContext(ctx, logger)

	cleaned := workspace.CleanAligned(ctx, ws.Dir(), logger)
	if err := cleaned.Err(); err != nil {
		runErr := services.Wrap(services.ErrConfiguration, "align", "clean", ws.Dir(), err)
		finish(ctx, deps.Runs, logger, result.RunID, 0, runErr)
		return result, runErr
	}
	if len(cleaned.Removed) > 0 {
		logger.Info("removed previous aligned exports",
			logging.Int("count", len(cleaned.Removed)),
			logging.String(logging.FieldEventType, "aligned_cleanup"),
		)
	}

	exporter := &exporter{cfg: cfg, deps: deps, ws: ws, logger: logger}
	var errs []error
	for i, spec := range proj.Tracks() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		export := exporter.export(services.WithTrack(ctx, spec.Name()), proj.TrackPath(i), spec)
		result.Exports = append(result.Exports, export)
		record(ctx, deps.Runs, logger, result.RunID, export)
		if export.Err != nil && !export.Skipped {
			errs = append(errs, fmt.Errorf("%s: %w", spec.Name(), export.Err))
		}
	}

	runErr := errors.Join(errs...)
	finish(ctx, deps.Runs, logger, result.RunID, result.Completed(), runErr)
	logger.Info("align finished",
		logging.Int("tracks", len(proj.Tracks())),
		logging.Int("exported", result.Completed()),
		logging.Int("skipped", result.Skipped()),
		logging.String(logging.FieldEventType, "align_completed"),
	)
	return result, runErr
}

type exporter struct {
	cfg    *config.Config
	deps   Deps
	ws     *workspace.Workspace
	logger *slog.Logger
}

func (e *exporter) export(ctx context.Context, source string, spec project.Track) (out Export) {
	out = Export{Source: source, Output: e.ws.Path(project.AlignedName(source))}
	logger := logging.WithContext(ctx, e.logger)
	defer func() {
		// Intermediates go regardless of outcome.
		workspace.RemoveTemp(ctx, e.ws.Dir(), logger)
		switch {
		case out.Skipped:
			logging.WarnWithContext(logger, "source skipped", "aligned_export_skipped",
				logging.Error(out.Err),
				logging.String(logging.FieldImpact, "no aligned export for this track"),
				logging.String(logging.FieldErrorHint, "the file has no video stream; remove it from project.toml if it is audio only"),
			)
		case out.Err != nil:
			logger.Error("aligned export failed",
				logging.Error(out.Err),
				logging.String(logging.FieldEventType, "aligned_export_failed"),
				logging.String(logging.FieldErrorHint, "check the source file and ffmpeg output above"),
			)
		}
	}()

	t := track.New(source, track.Deps{Probe: e.deps.Probe, Readers: e.deps.Readers, Logger: e.deps.Logger})
	if err := t.Open(ctx); err != nil {
		out.Err = err
		out.Skipped = errors.Is(err, track.ErrNoVideoStream)
		return out
	}
	defer func() { _ = t.Close() }()
	meta := t.Metadata()

	syncMS := spec.SyncMS()
	if syncMS >= 0 {
		out.TrimFrames = t.Skip(float64(syncMS) / 1000)
	} else {
		out.PadFrames = int(math.Round(meta.FPS * float64(-syncMS) / 1000))
	}

	first := t.Current()
	if first == nil {
		out.Err = ErrNoFrames
		return out
	}
	out.Width, out.Height = Downscale(first.Width, first.Height, e.cfg.Align.MaxPixels)

	tmpVideo := e.ws.Path(workspace.TempVideoName)
	frames, err := e.writeVideo(ctx, t, tmpVideo, out.Width, out.Height, out.PadFrames, meta.FPS)
	out.Frames = frames
	if err != nil {
		out.Err = err
		return out
	}
	if errors.Is(t.Err(), track.ErrDecode) {
		logging.WarnWithContext(logger, "decode stopped early", "aligned_export_truncated",
			logging.Error(t.Err()),
			logging.Int("frames", frames),
			logging.String(logging.FieldImpact, "aligned export ends where decoding failed"),
		)
	}

	if !meta.HasAudio {
		logging.WarnWithContext(logger, "track has no audio stream", "aligned_export_video_only",
			logging.String(logging.FieldImpact, "aligned export is video only"),
			logging.String(logging.FieldErrorHint, "re-export the source with its audio track"),
		)
		if err := os.Rename(tmpVideo, out.Output); err != nil {
			out.Err = fmt.Errorf("move video-only export: %w", err)
		}
		return out
	}
	out.Audio = true

	tmpAudio := e.ws.Path(workspace.TempAudioName)
	var audioArgs []string
	if syncMS >= 0 {
		audioArgs = ffmpeg.TrimAudioArgs(source, float64(syncMS)/1000, tmpAudio)
	} else {
		audioArgs = ffmpeg.PadAudioArgs(source, -syncMS, tmpAudio)
	}
	if err := e.deps.Run(ctx, e.cfg.FFmpegBinary(), audioArgs...); err != nil {
		out.Err = services.Wrap(services.ErrExternalTool, "align", "shift audio", source, err)
		return out
	}
	if err := e.deps.Run(ctx, e.cfg.FFmpegBinary(), ffmpeg.MuxArgs(tmpVideo, tmpAudio, out.Output)...); err != nil {
		out.Err = services.Wrap(services.ErrExternalTool, "align", "mux", out.Output, err)
		return out
	}

	logger.Info("aligned export written",
		logging.String("output", out.Output),
		logging.Int("frames", out.Frames),
		logging.Int("pad_frames", out.PadFrames),
		logging.Int("trim_frames", out.TrimFrames),
		logging.String(logging.FieldEventType, "aligned_export"),
	)
	return out
}

// writeVideo streams pad black frames then every remaining decoded frame,
// scaled to width x height, into the encoder.
func (e *exporter) writeVideo(ctx context.Context, t *track.Track, output string, width, height, pad int, fps float64) (int, error) {
	writer, err := e.deps.Writers(fps)(ctx, output, width, height)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "align", "open encoder", output, err)
	}
	written := 0
	writeErr := func() error {
		if pad > 0 {
			black := frame.New(width, height)
			for range pad {
				if err := writer.WriteFrame(black); err != nil {
					return err
				}
				written++
			}
		}
		for f := t.Current(); f != nil; f = t.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if f.Width != width || f.Height != height {
				f = f.Scale(width, height)
			}
			if err := writer.WriteFrame(f); err != nil {
				return err
			}
			written++
		}
		return nil
	}()
	closeErr := writer.Close()
	if writeErr != nil {
		return written, services.Wrap(services.ErrExternalTool, "align", "encode", output, writeErr)
	}
	if closeErr != nil {
		return written, services.Wrap(services.ErrExternalTool, "align", "finish encoder", output, closeErr)
	}
	return written, nil
}

// Downscale returns the export size for a width x height source: unchanged
// within maxPixels, otherwise scaled by sqrt(maxPixels/area) with both
// dimensions rounded down to even numbers.
func Downscale(width, height, maxPixels int) (int, int) {
	area := width * height
	if maxPixels <= 0 || area <= maxPixels {
		return width, height
	}
	factor := math.Sqrt(float64(maxPixels) / float64(area))
	// 1920*sqrt(4/9) lands a hair under 1280 in floating point.
	const epsilon = 1e-9
	w := int(float64(width)*factor+epsilon) &^ 1
	h := int(float64(height)*factor+epsilon) &^ 1
	return max(w, 2), max(h, 2)
}

func record(ctx context.Context, runs *runlog.Store, logger *slog.Logger, runID string, export Export) {
	if runs == nil || runID == "" {
		return
	}
	artifact := runlog.Artifact{RunID: runID, Path: export.Output, SourcePath: export.Source, Frames: export.Frames}
	switch {
	case export.Skipped:
		artifact.Status = runlog.ArtifactSkipped
		artifact.Error = export.Err.Error()
	case export.Err != nil:
		artifact.Status = runlog.ArtifactFailed
		artifact.Error = export.Err.Error()
	}
	if err := runs.RecordArtifact(context.WithoutCancel(ctx), artifact); err != nil {
		logger.Warn("aligned artifact not recorded", logging.Error(err))
	}
}

func finish(ctx context.Context, runs *runlog.Store, logger *slog.Logger, runID string, exported int, runErr error) {
	if runs == nil || runID == "" {
		return
	}
	if err := runs.Finish(context.WithoutCancel(ctx), runID, "", exported, runErr); err != nil {
		logger.Warn("run history not updated", logging.Error(err))
	}
}
