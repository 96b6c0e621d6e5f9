package merge

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"choirgrid/internal/config"
	"choirgrid/internal/logging"
	"choirgrid/internal/media/ffmpeg"
	"choirgrid/internal/project"
	"choirgrid/internal/runlog"
	"choirgrid/internal/services"
	"choirgrid/internal/workspace"
)

// Deps are the collaborators a merge uses. Runs may be nil.
type Deps struct {
	Run    ffmpeg.CommandRunner
	Runs   *runlog.Store
	Logger *slog.Logger
}

// Result reports where the merged composite went.
type Result struct {
	RunID  string
	Video  string
	Audio  string
	Output string
}

// Run muxes results/silent_video.mp4 with the mixed audio into
// results/gridded_video.mp4. Missing inputs are configuration errors; an
// ffmpeg failure is returned as an external tool error and the run is
// recorded as failed.
func Run(ctx context.Context, cfg *config.Config, proj *project.Project, deps Deps) (*Result, error) {
	ctx = services.WithStage(ctx, "merge")
	logger := logging.NewComponentLogger(deps.Logger, "merge")

	result := &Result{
		Video:  proj.SilentVideoPath(),
		Audio:  proj.MixedAudioPath(),
		Output: proj.GriddedVideoPath(),
	}

	ws, err := workspace.Acquire(proj.ResultsDir())
	if err != nil {
		return nil, err
	}
	defer func() { _ = ws.Release() }()

	if deps.Runs != nil {
		if result.RunID, err = deps.Runs.Start(ctx, runlog.KindMerge, proj.Dir, ""); err != nil {
			return nil, err
		}
	}
	ctx = services.WithRunID(ctx, result.RunID)
	logger = logging.WithContext(ctx, logger)

	runErr := merge(ctx, cfg, deps, result)
	if deps.Runs != nil && result.RunID != "" {
		rctx := context.WithoutCancel(ctx)
		if runErr == nil {
			if err := deps.Runs.RecordArtifact(rctx, runlog.Artifact{RunID: result.RunID, Path: result.Output, SourcePath: result.Video}); err != nil {
				logger.Warn("merge artifact not recorded", logging.Error(err))
			}
		}
		if err := deps.Runs.Finish(rctx, result.RunID, result.Output, 0, runErr); err != nil {
			logger.Warn("run history not updated", logging.Error(err))
		}
	}
	if runErr != nil {
		logger.Error("merge failed",
			logging.Error(runErr),
			logging.String(logging.FieldEventType, "merge_failed"),
			logging.String(logging.FieldErrorHint, hint(runErr)),
			logging.String(logging.FieldImpact, "gridded_video.mp4 was not produced; silent_video.mp4 is unchanged"),
		)
		return result, runErr
	}
	logger.Info("merge completed",
		logging.String("output", result.Output),
		logging.String(logging.FieldEventType, "merge_completed"),
	)
	return result, nil
}

func merge(ctx context.Context, cfg *config.Config, deps Deps, result *Result) error {
	for _, input := range []struct{ name, path string }{
		{"composite video", result.Video},
		{"mixed audio", result.Audio},
	} {
		if _, err := os.Stat(input.path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return services.Wrap(services.ErrConfiguration, "merge", "inputs", input.name+" not found at "+input.path, nil)
			}
			return services.Wrap(services.ErrConfiguration, "merge", "inputs", input.path, err)
		}
	}
	if err := deps.Run(ctx, cfg.FFmpegBinary(), ffmpeg.MuxArgs(result.Video, result.Audio, result.Output)...); err != nil {
		_ = os.Remove(result.Output)
		return services.Wrap(services.ErrExternalTool, "merge", "mux", result.Output, err)
	}
	return nil
}

func hint(err error) string {
	if errors.Is(err, services.ErrConfiguration) {
		return "run `choirgrid render` first and place the mix at the mixed_audio path"
	}
	return "inspect the ffmpeg output in the error; the mixed audio may be unreadable"
}
