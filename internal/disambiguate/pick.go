package disambiguate

import (
	"context"
	"errors"
	"fmt"

	"mediasort/internal/metadata"
	"mediasort/internal/services"
)

// ErrNoMatch reports an empty candidate list. It is a resolution error.
var ErrNoMatch = fmt.Errorf("%w: no matching candidates", services.ErrResolution)

// ErrAborted is returned when the chooser cancels the decision.
var ErrAborted = services.ErrAborted

// Subject describes what the candidates are for.
type Subject struct {
	Filename string
	Query    string
	Kind     string
}

func (s Subject) String() string {
	if s.Filename != "" {
		return s.Filename
	}
	return s.Query
}

// Chooser resolves a multi-candidate decision. Implementations return the
// selected index or an error wrapping ErrAborted.
type Chooser interface {
	PresentChoices(ctx context.Context, subject Subject, candidates []metadata.Candidate) (int, error)
}

// ChooserFunc adapts a function to Chooser.
type ChooserFunc func(ctx context.Context, subject Subject, candidates []metadata.Candidate) (int, error)

// PresentChoices calls f.
func (f ChooserFunc) PresentChoices(ctx context.Context, subject Subject, candidates []metadata.Candidate) (int, error) {
	return f(ctx, subject, candidates)
}

// Pick selects one candidate. The chooser is consulted only when there are
// two or more candidates, and its answer is range checked.
func Pick(ctx context.Context, chooser Chooser, subject Subject, candidates []metadata.Candidate) (metadata.Candidate, error) {
	switch len(candidates) {
	case 0:
		return metadata.Candidate{}, ErrNoMatch
	case 1:
		return candidates[0], nil
	}

	if chooser == nil {
		return metadata.Candidate{}, services.Wrap(ErrAborted, "disambiguate", "pick",
			fmt.Sprintf("%d candidates for %s and no chooser", len(candidates), subject), nil)
	}
	if err := ctx.Err(); err != nil {
		return metadata.Candidate{}, err
	}

	index, err := chooser.PresentChoices(ctx, subject, candidates)
	if err != nil {
		if errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return metadata.Candidate{}, err
		}
		return metadata.Candidate{}, services.Wrap(ErrAborted, "disambiguate", "pick", "chooser failed", err)
	}
	if index < 0 || index >= len(candidates) {
		return metadata.Candidate{}, services.Wrap(services.ErrValidation, "disambiguate", "pick",
			fmt.Sprintf("chooser returned index %d for %d candidates", index, len(candidates)), nil)
	}
	return candidates[index], nil
}
