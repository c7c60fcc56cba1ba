package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mediasort/internal/preflight"
	"mediasort/internal/reconcile"
	"mediasort/internal/services"
	"mediasort/internal/sortrun"
)

func newSortCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newSortCommand(ctx, "movies", "Stage, identify, and archive downloaded movies", reconcile.KindMovie),
		newSortCommand(ctx, "tv", "Stage, identify, and archive downloaded TV episodes", reconcile.KindEpisode),
		newSortCommand(ctx, "all", "Sort movies, then TV episodes", reconcile.KindMovie, reconcile.KindEpisode),
	}
}

func newSortCommand(ctx *commandContext, use, short string, kinds ...reconcile.Kind) *cobra.Command {
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			if !skipPreflight {
				scope := preflight.Scope{}
				for _, kind := range kinds {
					switch kind {
					case reconcile.KindMovie:
						scope.Movies = true
					case reconcile.KindEpisode:
						scope.TV = true
					}
				}
				if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg, scope)); len(failed) > 0 {
					return preflightError(failed)
				}
			}

			runner, err := sortrun.New(cfg, ctx.newOperator(cmd), logger)
			if err != nil {
				return err
			}
			summary, err := runner.Run(cmd.Context(), kinds...)
			printSummary(cmd.OutOrStdout(), summary)
			return err
		},
	}

	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Do not check directories and services before staging")
	return cmd
}

func preflightError(failed []preflight.Result) error {
	parts := make([]string, 0, len(failed))
	for _, result := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", result.Name, result.Detail))
	}
	return services.Wrap(services.ErrConfiguration, "cli", "preflight", strings.Join(parts, "; "), nil)
}

func printSummary(out io.Writer, summary sortrun.Summary) {
	for _, kind := range summary.Kinds {
		label := "Movies"
		if kind.Kind == reconcile.KindEpisode {
			label = "TV"
		}
		fmt.Fprintf(out, "\n%s: %d staged, %d identified, %d archived\n",
			label, kind.Staged, kind.Identified(), len(kind.Report.Archived))
		for _, failure := range kind.StageFailures {
			fmt.Fprintf(out, "  not staged: %s: %v\n", failure.Filename, failure.Err)
		}
		if len(kind.Outcomes) == 0 {
			continue
		}

		rows := make([][]string, 0, len(kind.Outcomes))
		for _, outcome := range kind.Outcomes {
			rows = append(rows, []string{outcome.Filename, string(outcome.State), outcomeDetail(outcome)})
		}
		fmt.Fprintln(out, renderTable([]string{"File", "State", "Result"}, rows, nil))

		for _, skipped := range kind.Report.Skipped {
			fmt.Fprintf(out, "  not archived: %s (%s)\n", skipped.Move.Record.CanonicalName, skipped.Reason)
		}
		for _, failure := range kind.RenameFailures {
			fmt.Fprintf(out, "  rename failed: %s: %v\n", failure.Filename, failure.Err)
		}
		switch {
		case kind.Report.Declined:
			fmt.Fprintf(out, "  archive declined; %d file(s) moved back to downloads\n", len(kind.Cleanup.Restored))
		case len(kind.Cleanup.Restored) > 0:
			fmt.Fprintf(out, "  %d file(s) moved back to downloads\n", len(kind.Cleanup.Restored))
		case len(kind.Report.Archived) > 0 && !kind.Cleanup.StagingPurged:
			fmt.Fprintln(out, "  unarchived files remain in staging for the next run")
		}
	}
	if summary.Cache.Hits+summary.Cache.Misses > 0 {
		fmt.Fprintf(out, "\nShow lookups: %d searched, %d reused\n", summary.Cache.Misses, summary.Cache.Hits)
	}
	if summary.Duration > 0 {
		fmt.Fprintf(out, "Run %s finished in %s\n", summary.RunID, summary.Duration.Round(time.Millisecond))
	}
}

func outcomeDetail(outcome reconcile.Outcome) string {
	if outcome.Identified() {
		return outcome.Record.CanonicalName
	}
	if outcome.Err == nil {
		return ""
	}
	switch {
	case errors.Is(outcome.Err, reconcile.ErrKnownFailure):
		return "known failure (see ledger)"
	case errors.Is(outcome.Err, services.ErrAborted):
		return "skipped"
	case errors.Is(outcome.Err, services.ErrParse):
		return "unrecognized filename"
	case services.FailureDisposition(outcome.Err) == services.DispositionLedger:
		return "no match (recorded in ledger)"
	}
	return outcome.Err.Error()
}
