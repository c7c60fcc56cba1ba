package disambiguate

import (
	"context"
	"fmt"

	"mediasort/internal/metadata"
	"mediasort/internal/services"
)

// Abort is the scripted answer that cancels a decision.
const Abort = -1

// Scripted answers decisions from a fixed list, in order. Running out of
// answers aborts.
type Scripted struct {
	answers []int
	asked   []Subject
}

// NewScripted returns a chooser that replays answers. Use Abort to cancel.
func NewScripted(answers ...int) *Scripted {
	return &Scripted{answers: append([]int(nil), answers...)}
}

// PresentChoices returns the next scripted answer.
func (s *Scripted) PresentChoices(_ context.Context, subject Subject, candidates []metadata.Candidate) (int, error) {
	s.asked = append(s.asked, subject)
	if len(s.answers) == 0 {
		return 0, services.Wrap(ErrAborted, "disambiguate", "scripted", "no answers left", nil)
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	if answer == Abort {
		return 0, services.Wrap(ErrAborted, "disambiguate", "scripted", "scripted abort", nil)
	}
	return answer, nil
}

// Calls reports how many decisions were asked.
func (s *Scripted) Calls() int {
	return len(s.asked)
}

// Asked returns the subjects presented so far.
func (s *Scripted) Asked() []Subject {
	return append([]Subject(nil), s.asked...)
}

// Decline refuses every multi-candidate decision. It backs non-interactive
// runs, where the only safe answer to an ambiguous match is to skip the file.
type Decline struct{}

// PresentChoices always aborts.
func (Decline) PresentChoices(_ context.Context, subject Subject, candidates []metadata.Candidate) (int, error) {
	return 0, services.Wrap(ErrAborted, "disambiguate", "non-interactive",
		fmt.Sprintf("%d candidates for %s need an operator", len(candidates), subject), nil)
}
