package render

import (
	"context"
	"log/slog"

	"choirgrid/internal/logging"
	"choirgrid/internal/runlog"
)

func startRun(ctx context.Context, runs *runlog.Store, kind runlog.Kind, projectDir string) (string, error) {
	if runs == nil {
		return "", nil
	}
	return runs.Start(ctx, kind, projectDir, "")
}

func finishRun(ctx context.Context, runs *runlog.Store, logger *slog.Logger, id, artifact string, ticks int, runErr error) {
	if runs == nil || id == "" {
		return
	}
	// A canceled run still gets its history row closed.
	ctx = context.WithoutCancel(ctx)
	if runErr == nil {
		if err := runs.RecordArtifact(ctx, runlog.Artifact{RunID: id, Path: artifact, Frames: ticks}); err != nil {
			logger.Warn("run artifact not recorded", logging.Error(err))
		}
	}
	if err := runs.Finish(ctx, id, artifact, ticks, runErr); err != nil {
		logger.Warn("run history not updated", logging.String(logging.FieldRunID, id), logging.Error(err))
	}
}
