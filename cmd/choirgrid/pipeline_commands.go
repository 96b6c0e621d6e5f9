package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"choirgrid/internal/align"
	"choirgrid/internal/logging"
	"choirgrid/internal/media/ffmpeg"
	"choirgrid/internal/merge"
	"choirgrid/internal/render"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var withMerge bool

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the grid composite to results/silent_video.mp4",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig(ctx)
			if err != nil {
				return err
			}
			proj, err := ctx.loadProject()
			if err != nil {
				return err
			}
			runs, err := ctx.runStore()
			if err != nil {
				return err
			}
			logger := ctx.loggerValue()
			out := cmd.OutOrStdout()

			runCtx := ctx.runContext(cmd.Context())
			progress, finish := newProgress(cmd.ErrOrStderr(), logger, "Rendering")
			result, err := render.Run(runCtx, cfg, proj, render.Deps{
				Probe:   ctx.prober(),
				Readers: ctx.readers(),
				Writers: ffmpeg.NewWriterFactory(cfg.FFmpegBinary(), float64(cfg.Render.FPS), cfg.Render.Quality),
				Runs:    runs,
				Logger:  logger,
			}, progress)
			finish()
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Rendered %s: %s grid, %d tracks, %d frames (%.2fs)\n",
				filepath.Base(result.Output), result.Layout, result.Active, result.Ticks, result.Duration)
			for _, name := range result.Skipped {
				fmt.Fprintf(out, "  skipped %s (failed to open; see log)\n", name)
			}
			if !withMerge {
				return nil
			}

			merged, err := merge.Run(ctx.runContext(cmd.Context()), cfg, proj, merge.Deps{Run: ffmpeg.DefaultRunner, Runs: runs, Logger: logger})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Merged %s\n", merged.Output)
			return nil
		},
	}

	cmd.Flags().BoolVar(&withMerge, "merge", false, "Merge the mixed audio into results/gridded_video.mp4 afterwards")
	return cmd
}

func newMergeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Mux the rendered composite with the mixed audio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig(ctx)
			if err != nil {
				return err
			}
			proj, err := ctx.loadProject()
			if err != nil {
				return err
			}
			runs, err := ctx.runStore()
			if err != nil {
				return err
			}
			result, err := merge.Run(ctx.runContext(cmd.Context()), cfg, proj, merge.Deps{
				Run:    ffmpeg.DefaultRunner,
				Runs:   runs,
				Logger: ctx.loggerValue(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Merged %s\n", result.Output)
			return nil
		},
	}
}

func newAlignCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "align",
		Short: "Export every track trimmed or padded to the shared start",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig(ctx)
			if err != nil {
				return err
			}
			proj, err := ctx.loadProject()
			if err != nil {
				return err
			}
			runs, err := ctx.runStore()
			if err != nil {
				return err
			}
			logger := ctx.loggerValue()
			binary := cfg.FFmpegBinary()

			result, runErr := align.Run(ctx.runContext(cmd.Context()), cfg, proj, align.Deps{
				Probe:   ctx.prober(),
				Readers: ctx.readers(),
				Writers: func(fps float64) ffmpeg.WriterFactory {
					return ffmpeg.NewWriterFactory(binary, fps, cfg.Align.Quality)
				},
				Run:    ffmpeg.DefaultRunner,
				Runs:   runs,
				Logger: logger,
			})
			if result != nil {
				fmt.Fprintln(cmd.OutOrStdout(), renderExports(result))
			}
			if runErr != nil {
				logger.Error("align finished with failures", logging.Error(runErr))
			}
			return runErr
		},
	}
}

func renderExports(result *align.Result) string {
	rows := make([][]string, 0, len(result.Exports))
	for _, e := range result.Exports {
		status := "ok"
		switch {
		case e.Skipped:
			status = "skipped: no video"
		case e.Err != nil:
			status = "failed"
		case !e.Audio:
			status = "video only"
		}
		shift := "-"
		switch {
		case e.PadFrames > 0:
			shift = fmt.Sprintf("+%d pad", e.PadFrames)
		case e.TrimFrames > 0:
			shift = fmt.Sprintf("-%d trim", e.TrimFrames)
		}
		size := "-"
		if e.Width > 0 {
			size = fmt.Sprintf("%dx%d", e.Width, e.Height)
		}
		rows = append(rows, []string{filepath.Base(e.Source), filepath.Base(e.Output), shift, size, fmt.Sprintf("%d", e.Frames), status})
	}
	return renderTable(
		[]string{"Source", "Export", "Shift", "Size", "Frames", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}
