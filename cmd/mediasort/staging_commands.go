package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mediasort/internal/logging"
	"mediasort/internal/reconcile"
	"mediasort/internal/sortrun"
	"mediasort/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Inspect the staging directory",
	}

	stagingCmd.AddCommand(newStagingListCommand(ctx))

	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List files waiting in staging",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			var rows [][]string
			var totalSize int64
			for _, kind := range []reconcile.Kind{reconcile.KindMovie, reconcile.KindEpisode} {
				entries, err := staging.ListEntries(sortrun.StagingDir(cfg, kind))
				if err != nil {
					return fmt.Errorf("list staging: %w", err)
				}
				for _, entry := range entries {
					age := time.Since(entry.ModTime).Truncate(time.Minute)
					totalSize += entry.Size
					rows = append(rows, []string{string(kind), entry.Name, formatDuration(age), logging.FormatBytes(entry.Size)})
				}
			}

			if len(rows) == 0 {
				fmt.Fprintln(out, "Staging is empty")
				return nil
			}

			fmt.Fprintf(out, "Staging directory: %s\n\n", cfg.Paths.StagingDir)
			fmt.Fprint(out, renderTable(
				[]string{"Kind", "Name", "Age", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
			))
			fmt.Fprintf(out, "\nTotal: %d entries, %s\n", len(rows), logging.FormatBytes(totalSize))
			return nil
		},
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	days := int(d.Hours() / 24)
	return fmt.Sprintf("%dd", days)
}
