package sortrun

import (
	"time"

	"mediasort/internal/archive"
	"mediasort/internal/identitycache"
	"mediasort/internal/reconcile"
)

// Summary reports what one run did.
type Summary struct {
	RunID    string
	Kinds    []KindSummary
	Cache    identitycache.Stats
	Duration time.Duration
}

// KindSummary reports one media kind of a run.
type KindSummary struct {
	Kind           reconcile.Kind
	Staged         int
	StageFailures  []archive.Failure
	Outcomes       []reconcile.Outcome
	RenameFailures []archive.Failure
	Report         archive.Report
	Cleanup        archive.CleanupResult
}

// Identified counts the files that reached StateIdentified.
func (k KindSummary) Identified() int {
	count := 0
	for _, outcome := range k.Outcomes {
		if outcome.Identified() {
			count++
		}
	}
	return count
}

// Failures returns the outcomes that ended with an error.
func (k KindSummary) Failures() []reconcile.Outcome {
	var failed []reconcile.Outcome
	for _, outcome := range k.Outcomes {
		if outcome.Err != nil {
			failed = append(failed, outcome)
		}
	}
	return failed
}

// Archived counts files moved into the library across kinds.
func (s Summary) Archived() int {
	total := 0
	for _, kind := range s.Kinds {
		total += len(kind.Report.Archived)
	}
	return total
}

// Failed counts files that were not identified across kinds.
func (s Summary) Failed() int {
	total := 0
	for _, kind := range s.Kinds {
		total += len(kind.Failures())
	}
	return total
}
