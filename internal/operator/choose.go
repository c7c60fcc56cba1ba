package operator

import (
	"context"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mediasort/internal/disambiguate"
	"mediasort/internal/metadata"
	"mediasort/internal/textutil"
)

const descriptionLimit = 240

var kindTitle = cases.Title(language.English)

// PresentChoices lists candidates and reads an index. "?" shows the long
// list with descriptions; "q", an empty line, or end of input aborts. Without
// a terminal it declines the way disambiguate.Decline does.
func (t *Terminal) PresentChoices(ctx context.Context, subject disambiguate.Subject, candidates []metadata.Candidate) (int, error) {
	if !t.interactive {
		return disambiguate.Decline{}.PresentChoices(ctx, subject, candidates)
	}

	kind := strings.TrimSpace(subject.Kind)
	if kind == "" {
		kind = "title"
	}
	t.printf("\n%s %s\n", t.paint(kindTitle.String(kind)+" matches for", text.FgHiCyan), subject.String())
	if subject.Query != "" && subject.Query != subject.String() {
		t.printf("searched for %q\n", subject.Query)
	}
	t.printShortList(candidates)

	for {
		answer, err := t.prompt(ctx, "choice: ")
		if err != nil {
			return 0, inputAbort("choose", err)
		}
		if isQuit(answer) {
			return 0, abort("choose", "skipped "+subject.String(), nil)
		}
		if answer == "?" {
			t.printLongList(candidates)
			continue
		}
		index, convErr := strconv.Atoi(answer)
		if convErr != nil || index < 0 || index >= len(candidates) {
			t.printf("%s\n", t.paint("enter a number from the list, ? for more, or q to skip", text.FgYellow))
			continue
		}
		return index, nil
	}
}

func (t *Terminal) printShortList(candidates []metadata.Candidate) {
	for i, candidate := range candidates {
		t.printf("[%d] %s\n", i, candidate.Label())
	}
	t.printf("[?] show more\n[q] skip this file\n")
}

func (t *Terminal) printLongList(candidates []metadata.Candidate) {
	limit := min(t.showMore, len(candidates))
	for i := 0; i < limit; i++ {
		candidate := candidates[i]
		line := candidate.Title
		switch {
		case candidate.Status != "":
			line += ", status: " + candidate.Status
		case candidate.Year != "":
			line += ", year: " + candidate.Year
		}
		t.printf("[%d] %s\n", i, t.paint(line, text.Bold))
		if desc := strings.TrimSpace(candidate.Description); desc != "" {
			t.printf("    %s\n", textutil.Truncate(desc, descriptionLimit))
		}
	}
	if len(candidates) > limit {
		t.printf("(%d more not shown)\n", len(candidates)-limit)
	}
}
