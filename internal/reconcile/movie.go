package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"mediasort/internal/disambiguate"
	"mediasort/internal/logging"
	"mediasort/internal/mediaparse"
	"mediasort/internal/metadata"
	"mediasort/internal/services"
	"mediasort/internal/textutil"
)

// IdentifyMovie runs the movie state machine for one staged filename.
func (r *Reconciler) IdentifyMovie(ctx context.Context, filename string) Outcome {
	ctx, logger, out := r.begin(ctx, KindMovie, filename)
	if r.skipKnown(logger, &out) {
		return out
	}
	if r.movies == nil {
		return r.fail(logger, &out, services.Wrap(services.ErrConfiguration, "reconcile", "movie", "movie search is not configured", nil))
	}

	id, err := r.parseMovie(ctx, logger, filename)
	if err != nil {
		return r.fail(logger, &out, err)
	}
	r.transition(logger, &out, StateParsed)

	r.transition(logger, &out, StateSearching)
	candidates, err := r.searchMovie(ctx, logger, id.TitleEncoded, id.Year)
	if err != nil {
		return r.fail(logger, &out, err)
	}
	if len(candidates) == 0 {
		candidates, err = r.manualMovieSearch(ctx, logger, filename)
		if err != nil {
			return r.fail(logger, &out, err)
		}
	}

	subject := disambiguate.Subject{Filename: filename, Query: id.TitleRaw, Kind: string(KindMovie)}
	choice, err := r.pick(ctx, logger, &out, subject, candidates)
	if err != nil {
		return r.fail(logger, &out, err)
	}

	year, ok := candidateYear(choice)
	if !ok {
		year = id.Year
	}
	if year <= 0 {
		return r.fail(logger, &out, services.Wrap(services.ErrValidation, "reconcile", "movie",
			fmt.Sprintf("no release year for %q", choice.Title), nil))
	}
	title := textutil.SanitizePathSegment(choice.Title)
	if title == "" {
		return r.fail(logger, &out, services.Wrap(services.ErrValidation, "reconcile", "movie",
			fmt.Sprintf("candidate %d has no usable title", choice.ExternalID), nil))
	}

	out.Record = &Record{
		Kind:             KindMovie,
		OriginalFilename: filename,
		CanonicalName:    fmt.Sprintf("%s (%d)%s", title, year, id.Extension),
		Title:            title,
		ExternalID:       choice.ExternalID,
		TargetYear:       year,
		Extension:        id.Extension,
	}
	r.transition(logger, &out, StateIdentified)
	logger.Info("movie identified",
		logging.String("canonical_name", out.Record.CanonicalName),
		logging.Int("year", year),
	)
	return out
}

// parseMovie parses filename and asks the operator for a year when the name
// carries none or several.
func (r *Reconciler) parseMovie(ctx context.Context, logger *slog.Logger, filename string) (mediaparse.Identifier, error) {
	id, err := mediaparse.ParseMovie(filename)
	if err == nil {
		return id, nil
	}
	var parseErr *mediaparse.ParseError
	if !errors.As(err, &parseErr) || !parseErr.NeedsYear || r.input == nil {
		return mediaparse.Identifier{}, err
	}

	logger.Info("movie year needs operator input", logging.String("reason", parseErr.Reason))
	year, askErr := r.input.AskYear(ctx, filename)
	if askErr != nil {
		if isContextErr(askErr) {
			return mediaparse.Identifier{}, askErr
		}
		return mediaparse.Identifier{}, fmt.Errorf("%w: %w", err, askErr)
	}
	return mediaparse.ParseMovieWithYear(filename, year)
}

func (r *Reconciler) searchMovie(ctx context.Context, logger *slog.Logger, encoded string, year int) ([]metadata.Candidate, error) {
	candidates, attempts, err := r.yearWindow.Search(ctx, encoded, year, r.movies.SearchCandidates)
	for _, attempt := range attempts {
		logger.Debug("movie search attempt",
			logging.String("query", attempt.Query),
			logging.Int("year", attempt.Year),
			logging.Int("results", attempt.Results),
		)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("movie search finished",
		logging.Int("attempts", len(attempts)),
		logging.Int("candidates", len(candidates)),
	)
	return candidates, nil
}

// manualMovieSearch asks the operator once for a replacement title and year.
// Declining leaves the empty result, which Pick reports as no match.
func (r *Reconciler) manualMovieSearch(ctx context.Context, logger *slog.Logger, filename string) ([]metadata.Candidate, error) {
	if r.input == nil {
		return nil, nil
	}
	title, year, err := r.input.AskMovieTitle(ctx, filename)
	if err != nil {
		if isContextErr(err) {
			return nil, err
		}
		logger.Debug("manual movie title declined", logging.Error(err))
		return nil, nil
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}
	logger.Info("retrying movie search with operator title",
		logging.String("title", title),
		logging.Int("year", year),
	)
	return r.searchMovie(ctx, logger, mediaparse.EncodeMovieQuery(title), year)
}

func candidateYear(c metadata.Candidate) (int, bool) {
	raw := strings.TrimSpace(c.Year)
	if len(raw) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(raw[:4])
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}
