package operator

import (
	"context"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"mediasort/internal/archive"
	"mediasort/internal/disambiguate"
	"mediasort/internal/reconcile"
)

// AskYear asks for a four digit release year.
func (t *Terminal) AskYear(ctx context.Context, filename string) (int, error) {
	if !t.interactive {
		return 0, abort("year", "no terminal for "+filename, nil)
	}
	t.printf("\nno unambiguous year in %s\n", filename)
	for {
		answer, err := t.prompt(ctx, "whats the year? ")
		if err != nil {
			return 0, inputAbort("year", err)
		}
		if isQuit(answer) {
			return 0, abort("year", "no year for "+filename, nil)
		}
		if year, ok := parseYear(answer); ok {
			return year, nil
		}
		t.printf("%s\n", t.paint("enter a four digit year or q to skip", text.FgYellow))
	}
}

// AskMovieTitle asks for a replacement title and optional year after every
// search came back empty.
func (t *Terminal) AskMovieTitle(ctx context.Context, filename string) (string, int, error) {
	if !t.interactive {
		return "", 0, abort("title", "no terminal for "+filename, nil)
	}
	t.printf("\nno matches for %s; enter the title to search instead\n", filename)
	title, err := t.prompt(ctx, "movie name: ")
	if err != nil {
		return "", 0, inputAbort("title", err)
	}
	if isQuit(title) {
		return "", 0, abort("title", "no title for "+filename, nil)
	}
	for {
		answer, err := t.prompt(ctx, "year: ")
		if err != nil {
			return "", 0, inputAbort("title", err)
		}
		if answer == "" {
			return title, 0, nil
		}
		if year, ok := parseYear(answer); ok {
			return title, year, nil
		}
		t.printf("%s\n", t.paint("enter a four digit year or leave empty", text.FgYellow))
	}
}

// ResolveCollision asks whether to overwrite an occupied destination. Any
// answer other than "o" skips.
func (t *Terminal) ResolveCollision(ctx context.Context, collision archive.Collision) (archive.CollisionAction, error) {
	if !t.interactive {
		return archive.CollisionSkip, nil
	}
	what := "file"
	if collision.IsDir {
		what = "folder"
	}
	t.printf("\n%s %s already exists: %s\n", t.paint("collision:", text.FgYellow), what, collision.Existing)
	t.printf("[o]: overwrite, [s]: skip and ignore\n")
	answer, err := t.prompt(ctx, "choice: ")
	if err != nil {
		return archive.CollisionSkip, inputAbort("collision", err)
	}
	if strings.EqualFold(answer, "o") {
		return archive.CollisionOverwrite, nil
	}
	return archive.CollisionSkip, nil
}

// ConfirmArchive prints the move plan and asks for approval. AssumeYes
// approves without asking; a non-interactive terminal declines otherwise.
func (t *Terminal) ConfirmArchive(ctx context.Context, plan []archive.Move) (bool, error) {
	t.printf("\n%s\n", RenderPlan(plan))
	if t.assumeYes {
		t.printf("archiving %d file(s) (--yes)\n", len(plan))
		return true, nil
	}
	if !t.interactive {
		return false, abort("confirm", "archive needs confirmation; pass --yes to run unattended", nil)
	}
	answer, err := t.prompt(ctx, "archive "+strconv.Itoa(len(plan))+" file(s)? [y/N]: ")
	if err != nil {
		return false, inputAbort("confirm", err)
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// RenderPlan renders the move plan as a table of original and new names.
func RenderPlan(plan []archive.Move) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "From", "To"})
	for i, move := range plan {
		tw.AppendRow(table.Row{i + 1, move.Record.OriginalFilename, move.Destination})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func parseYear(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if len(value) != 4 {
		return 0, false
	}
	year, err := strconv.Atoi(value)
	if err != nil || year < 1800 {
		return 0, false
	}
	return year, true
}

var (
	_ disambiguate.Chooser      = (*Terminal)(nil)
	_ reconcile.ManualInput     = (*Terminal)(nil)
	_ archive.Confirmer         = (*Terminal)(nil)
	_ archive.CollisionResolver = (*Terminal)(nil)
)
