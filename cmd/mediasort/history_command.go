package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mediasort/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently archived files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			var entries []history.Entry
			if runID != "" {
				entries, err = store.ForRun(cmd.Context(), runID)
			} else {
				entries, err = store.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				if runID != "" {
					fmt.Fprintf(out, "No files archived by run %s\n", runID)
					return nil
				}
				fmt.Fprintln(out, "No files archived yet")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.ArchivedAt.Local().Format(time.DateTime),
					entry.Kind,
					entry.OriginalName,
					entry.ArchivedName,
					yesNo(entry.Overwrote),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Archived", "Kind", "From", "To", "Overwrote"},
				rows,
				nil,
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().StringVar(&runID, "run", "", "Show every file archived by one run id")
	return cmd
}
