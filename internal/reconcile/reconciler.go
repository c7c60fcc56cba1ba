package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mediasort/internal/disambiguate"
	"mediasort/internal/identitycache"
	"mediasort/internal/ledger"
	"mediasort/internal/logging"
	"mediasort/internal/metadata"
	"mediasort/internal/metadata/tvmaze"
	"mediasort/internal/services"
)

// MovieSearcher is the subset of the TMDB client used for movies.
type MovieSearcher interface {
	SearchCandidates(ctx context.Context, query string, year int) ([]metadata.Candidate, error)
}

// ShowCatalog is the subset of the TVmaze client used for episodes.
type ShowCatalog interface {
	SearchCandidates(ctx context.Context, query string) ([]metadata.Candidate, error)
	EpisodeByNumber(ctx context.Context, showID int64, season, number int) (*tvmaze.Episode, error)
	EpisodesByDate(ctx context.Context, showID int64, date string) ([]tvmaze.Episode, error)
}

// ManualInput supplies values the filename could not. Implementations return
// an error wrapping services.ErrAborted when the operator declines.
type ManualInput interface {
	AskYear(ctx context.Context, filename string) (int, error)
	AskMovieTitle(ctx context.Context, filename string) (string, int, error)
}

// FailureLedger records files whose resolution failed permanently.
type FailureLedger interface {
	Contains(filename string) (ledger.Entry, bool)
	Append(filename, reason string) error
}

// Options wires a Reconciler. Movies or Shows may be nil when only the other
// kind is reconciled.
type Options struct {
	Movies  MovieSearcher
	Shows   ShowCatalog
	Chooser disambiguate.Chooser
	Input   ManualInput
	Ledger  FailureLedger
	Cache   *identitycache.Cache

	YearWindow metadata.YearWindow
	ShowPolicy metadata.DropLastToken
	Logger     *slog.Logger
}

// Reconciler identifies files one at a time.
type Reconciler struct {
	movies     MovieSearcher
	shows      ShowCatalog
	chooser    disambiguate.Chooser
	input      ManualInput
	ledger     FailureLedger
	cache      *identitycache.Cache
	yearWindow metadata.YearWindow
	showPolicy metadata.DropLastToken
	logger     *slog.Logger
}

// New builds a Reconciler. A nil cache gets a fresh run-scoped one.
func New(opts Options) *Reconciler {
	cache := opts.Cache
	if cache == nil {
		cache = identitycache.New()
	}
	return &Reconciler{
		movies:     opts.Movies,
		shows:      opts.Shows,
		chooser:    opts.Chooser,
		input:      opts.Input,
		ledger:     opts.Ledger,
		cache:      cache,
		yearWindow: opts.YearWindow,
		showPolicy: opts.ShowPolicy,
		logger:     logging.NewComponentLogger(opts.Logger, "reconcile"),
	}
}

// CacheStats exposes the identity cache counters of the run.
func (r *Reconciler) CacheStats() identitycache.Stats {
	return r.cache.Stats()
}

// Run identifies filenames in order. It returns the outcomes of the files it
// reached; on cancellation the error is the context error and the remaining
// files are left untouched.
func (r *Reconciler) Run(ctx context.Context, kind Kind, filenames []string) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(filenames))
	for _, name := range filenames {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		var outcome Outcome
		switch kind {
		case KindEpisode:
			outcome = r.IdentifyEpisode(ctx, name)
		default:
			outcome = r.IdentifyMovie(ctx, name)
		}
		outcomes = append(outcomes, outcome)
		if outcome.Err != nil && services.FailureDisposition(outcome.Err) == services.DispositionStop {
			return outcomes, outcome.Err
		}
	}
	return outcomes, nil
}

func (r *Reconciler) begin(ctx context.Context, kind Kind, filename string) (context.Context, *slog.Logger, Outcome) {
	ctx = services.WithFile(ctx, filename)
	return ctx, logging.WithContext(ctx, r.logger), Outcome{Filename: filename, Kind: kind}
}

func (r *Reconciler) transition(logger *slog.Logger, out *Outcome, state State) {
	out.State = state
	out.Path = append(out.Path, state)
	logger.Debug("identification state", logging.String("state", string(state)))
}

// skipKnown reports whether the ledger already lists the file.
func (r *Reconciler) skipKnown(logger *slog.Logger, out *Outcome) bool {
	if r.ledger == nil {
		return false
	}
	entry, ok := r.ledger.Contains(out.Filename)
	if !ok {
		return false
	}
	detail := entry.Reason
	if !entry.RecordedAt.IsZero() {
		detail = fmt.Sprintf("%s (recorded %s)", entry.Reason, entry.RecordedAt.Format(time.RFC3339))
	}
	out.Err = fmt.Errorf("%w: %s", ErrKnownFailure, detail)
	r.transition(logger, out, StateFailed)
	logger.Info("skipping file listed in failure ledger",
		logging.String("reason", entry.Reason),
		logging.String(logging.FieldEventType, "ledger_skip"),
	)
	return true
}

// fail ends the state machine for a file and applies the failure disposition.
func (r *Reconciler) fail(logger *slog.Logger, out *Outcome, err error) Outcome {
	out.Err = err
	out.Record = nil
	r.transition(logger, out, StateFailed)

	switch services.FailureDisposition(err) {
	case services.DispositionStop:
		logger.Info("identification interrupted", logging.Error(err))
	case services.DispositionLedger:
		logging.WarnWithContext(logger, "identification failed permanently", "identification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "rename the file by hand or remove it from the ledger to retry"),
			logging.String(logging.FieldImpact, "file left in staging and recorded in failure ledger"),
		)
		if r.ledger != nil {
			if appendErr := r.ledger.Append(out.Filename, err.Error()); appendErr != nil {
				logging.WarnWithContext(logger, "failure ledger append failed", "ledger_append_failed",
					logging.Error(appendErr),
					logging.String(logging.FieldErrorHint, "check ledger_file permissions"),
				)
			}
		}
	default:
		hint := "rerun to retry this file"
		if errors.Is(err, services.ErrAborted) {
			hint = "rerun interactively to choose a match"
		} else if errors.Is(err, services.ErrParse) {
			hint = "rename the file so it carries a season/episode marker or a year"
		}
		logging.WarnWithContext(logger, "identification skipped", "identification_skipped",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "file left in staging"),
		)
	}
	return *out
}

// pick runs the disambiguator and records whether it needed the operator.
func (r *Reconciler) pick(ctx context.Context, logger *slog.Logger, out *Outcome, subject disambiguate.Subject, candidates []metadata.Candidate) (metadata.Candidate, error) {
	switch {
	case len(candidates) == 1:
		r.transition(logger, out, StateAutoResolved)
	case len(candidates) > 1:
		r.transition(logger, out, StateAwaitingDisambiguation)
	}
	choice, err := disambiguate.Pick(ctx, r.chooser, subject, candidates)
	if err != nil {
		return metadata.Candidate{}, err
	}
	logger.Info("candidate selected", logging.Args(append(
		logging.DecisionAttrs("candidate_pick", choice.Label(), pickReason(len(candidates))),
		logging.Int64("external_id", choice.ExternalID),
	)...)...)
	return choice, nil
}

func pickReason(count int) string {
	if count == 1 {
		return "unique result"
	}
	return fmt.Sprintf("operator choice among %d", count)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
