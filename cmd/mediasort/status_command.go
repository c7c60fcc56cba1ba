package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mediasort/internal/logging"
	"mediasort/internal/preflight"
	"mediasort/internal/sortrun"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pending downloads and readiness checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			filter := sortrun.Filter(cfg)
			backlogs := []preflight.Backlog{
				preflight.CountBacklog("Movies", cfg.Paths.MovieDownloadDir, filter),
				preflight.CountBacklog("TV", cfg.Paths.TVDownloadDir, filter),
			}
			rows := make([][]string, 0, len(backlogs))
			for _, b := range backlogs {
				files := strconv.Itoa(b.Files)
				if b.Err != nil {
					files = "error: " + b.Err.Error()
				}
				rows = append(rows, []string{b.Name, b.Dir, files, logging.FormatBytes(b.Bytes)})
			}
			fmt.Fprintln(out, "Pending downloads")
			fmt.Fprintln(out, renderTable(
				[]string{"Kind", "Directory", "Files", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
			))

			results := preflight.RunAll(cmd.Context(), cfg, preflight.Scope{Movies: true, TV: true})
			checkRows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "ok"
				if !r.Passed {
					status = "FAIL"
				}
				checkRows = append(checkRows, []string{r.Name, status, r.Detail})
			}
			fmt.Fprintln(out, "\nReadiness")
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, checkRows, nil))
			return nil
		},
	}
}
