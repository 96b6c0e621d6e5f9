package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"choirgrid/internal/render"
	"choirgrid/internal/textutil"
	"choirgrid/internal/timeline"
	"choirgrid/internal/track"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Probe the project's tracks and show the grid and timeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig(ctx)
			if err != nil {
				return err
			}
			proj, err := ctx.loadProject()
			if err != nil {
				return err
			}
			session, err := render.Prepare(cmd.Context(), cfg, proj, track.Deps{
				Probe:   ctx.prober(),
				Readers: ctx.readers(),
				Logger:  ctx.loggerValue(),
			})
			if err != nil {
				return err
			}
			defer session.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderPlan(session))
			fmt.Fprintf(out, "Grid: %s (%s cells of %dx%d)\n", session.Layout, orientation(session.Landscape), roundInt(session.Layout.CellW), roundInt(session.Layout.CellH))
			fmt.Fprintf(out, "Duration: %.2fs, %d frames at %d fps\n",
				session.Duration, timeline.TickCount(session.Duration, float64(cfg.Render.FPS)), cfg.Render.FPS)
			return nil
		},
	}
}

func renderPlan(session *render.Session) string {
	rows := make([][]string, 0, len(session.Slots))
	for i, slot := range session.Slots {
		row := []string{fmt.Sprintf("%d", i+1), textutil.DisplayName(slot.Spec.Path), filepath.Base(slot.Spec.Path), fmt.Sprintf("%+.3f", slot.Spec.Offset()), fmt.Sprintf("%d", slot.Spec.Rotation)}
		if !slot.Active() {
			row = append(row, "-", "-", "-", "-", "failed: "+slot.OpenErr.Error())
			rows = append(rows, row)
			continue
		}
		meta := slot.Track.Metadata()
		row = append(row,
			fmt.Sprintf("%dx%d", meta.Width, meta.Height),
			fmt.Sprintf("%.3f", meta.FPS),
			fmt.Sprintf("%.2f", meta.Duration),
			yesNo(meta.HasAudio),
			"ok",
		)
		rows = append(rows, row)
	}
	return renderTable(
		[]string{"#", "Singer", "File", "Offset (s)", "Rotation", "Size", "FPS", "Duration (s)", "Audio", "Status"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft},
	)
}

func orientation(landscape bool) string {
	if landscape {
		return "landscape"
	}
	return "portrait"
}

func roundInt(v float64) int {
	return int(v + 0.5)
}
