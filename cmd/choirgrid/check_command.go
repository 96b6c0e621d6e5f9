package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"choirgrid/internal/preflight"
	"choirgrid/internal/services"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var skipEncoders bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify tools, directories, and the project's files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			// Without a manifest only the environment is checked.
			proj, projErr := ctx.loadProject()
			if projErr != nil {
				fmt.Fprintf(out, "Project: %v\n", projErr)
			}

			results := preflight.RunAll(cmd.Context(), cfg, proj, preflight.Options{SkipEncoders: skipEncoders})
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "ok"
				switch {
				case !r.Passed && r.Advisory:
					status = "warn"
				case !r.Passed:
					status = "FAIL"
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))

			if failed := preflight.Failed(results); len(failed) > 0 {
				return services.Wrap(services.ErrValidation, "check", "", fmt.Sprintf("%d check(s) failed", len(failed)), nil)
			}
			if projErr != nil && !errors.Is(projErr, services.ErrNotFound) {
				return projErr
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipEncoders, "skip-encoders", false, "Do not run ffmpeg to list its encoders")
	return cmd
}
