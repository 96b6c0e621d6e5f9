package preflight

import (
	"context"

	"choirgrid/internal/config"
	"choirgrid/internal/deps"
	"choirgrid/internal/project"
)

// Result reports the outcome of a single preflight check. Advisory results
// never fail a run.
type Result struct {
	Name     string
	Passed   bool
	Advisory bool
	Detail   string
}

// Options tweaks what RunAll inspects.
type Options struct {
	// SkipEncoders avoids spawning ffmpeg to list encoders.
	SkipEncoders bool
	// Output replaces os/exec for the encoder listing.
	Output deps.OutputFunc
}

// RunAll executes every check for the config and, when non-nil, the project.
func RunAll(ctx context.Context, cfg *config.Config, proj *project.Project, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckWritableDir("Log directory", cfg.Paths.LogDir))
	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, fromStatus(status))
	}
	if !opts.SkipEncoders {
		results = append(results, fromStatus(deps.CheckFFmpegEncoders(ctx, cfg.FFmpegBinary(), opts.Output)))
	}
	if proj != nil {
		results = append(results, CheckProject(proj)...)
	}
	return results
}

// Failed returns the non-advisory results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Advisory {
			out = append(out, r)
		}
	}
	return out
}

func fromStatus(status deps.Status) Result {
	detail := status.Detail
	if status.Available {
		detail = status.Command
	}
	return Result{Name: status.Name, Passed: status.Available, Advisory: status.Optional, Detail: detail}
}
