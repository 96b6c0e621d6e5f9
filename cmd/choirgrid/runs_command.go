package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"choirgrid/internal/config"
	"choirgrid/internal/runlog"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var allProjects bool

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show render, align, and merge history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := ctx.runStore()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				return showRun(cmd, runs, args[0])
			}

			projectDir := ""
			if !allProjects {
				if projectDir, err = config.ExpandPath(ctx.projectDir()); err != nil {
					return err
				}
			}
			list, err := runs.List(cmd.Context(), projectDir, limit)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderRuns(list))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	cmd.Flags().BoolVarP(&allProjects, "all", "a", false, "Show runs for every project")
	return cmd
}

func showRun(cmd *cobra.Command, runs *runlog.Store, id string) error {
	run, err := runs.Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", id)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderRuns([]runlog.Run{*run}))
	if run.ErrorMessage != "" {
		fmt.Fprintf(out, "Error (%s): %s\n", run.ErrorKind, run.ErrorMessage)
	}
	artifacts, err := runs.Artifacts(cmd.Context(), id)
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(artifacts))
	for _, a := range artifacts {
		rows = append(rows, []string{baseOrDash(a.Path), baseOrDash(a.SourcePath), string(a.Status), fmt.Sprintf("%d", a.Frames), a.Error})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Artifact", "Source", "Status", "Frames", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	return nil
}

func renderRuns(runs []runlog.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		duration := "-"
		if r.FinishedAt != nil {
			duration = r.Duration().Round(time.Second).String()
		}
		rows = append(rows, []string{
			r.ID,
			string(r.Kind),
			string(r.Status),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			duration,
			fmt.Sprintf("%d", r.Ticks),
			baseOrDash(r.Artifact),
		})
	}
	return renderTable(
		[]string{"Run", "Kind", "Status", "Started", "Took", "Frames", "Output"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}

func baseOrDash(path string) string {
	if path == "" {
		return "-"
	}
	return filepath.Base(path)
}
