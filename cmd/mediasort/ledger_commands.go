package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mediasort/internal/ledger"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect files that failed identification",
	}

	ledgerCmd.AddCommand(newLedgerListCommand(ctx))
	ledgerCmd.AddCommand(newLedgerForgetCommand(ctx))

	return ledgerCmd
}

func openLedger(ctx *commandContext) (*ledger.Ledger, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return ledger.Open(cfg.Paths.LedgerFile)
}

func newLedgerListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List ledgered filenames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			failures, err := openLedger(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			entries := failures.Entries()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Ledger is empty")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				recorded := ""
				if !entry.RecordedAt.IsZero() {
					recorded = entry.RecordedAt.Local().Format(time.DateTime)
				}
				rows = append(rows, []string{entry.Filename, entry.Reason, recorded})
			}
			fmt.Fprintf(out, "Ledger: %s\n\n", failures.Path())
			fmt.Fprintln(out, renderTable([]string{"File", "Reason", "Recorded"}, rows, nil))
			return nil
		},
	}
}

func newLedgerForgetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <filename>",
		Short: "Remove a filename so the next run retries it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failures, err := openLedger(ctx)
			if err != nil {
				return err
			}
			name := strings.TrimSpace(args[0])
			removed, err := failures.Forget(name)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("%s is not in the ledger", name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from the ledger\n", name)
			return nil
		},
	}
}
