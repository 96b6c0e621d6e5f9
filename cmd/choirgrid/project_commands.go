package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"choirgrid/internal/config"
	"choirgrid/internal/project"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Project manifest utilities",
	}
	projectCmd.AddCommand(&cobra.Command{
		Use:         "init",
		Short:       "Write project.toml listing the video files in the project directory",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ExpandPath(ctx.projectDir())
			if err != nil {
				return err
			}
			path, count, err := project.Scaffold(dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s with %d track(s)\n", path, count)
			if count == 0 {
				fmt.Fprintln(out, "No video files found; add [[tracks]] entries before rendering.")
			} else {
				fmt.Fprintln(out, "Set each track's offset_ms (and rotation if needed) before rendering.")
			}
			return nil
		},
	})
	return projectCmd
}
