package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"curator/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, server reachability and credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.backendClient()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, client)

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "ok"
				switch {
				case r.Skipped:
					status = "skipped"
				case !r.Passed:
					status = "failed"
				}
				label := status
				if colorize {
					switch status {
					case "ok":
						label = ansiGreen + status + ansiReset
					case "failed":
						label = ansiRed + status + ansiReset
					}
				}
				rows = append(rows, []string{r.Name, label, r.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft}))
			if preflight.Failed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}
