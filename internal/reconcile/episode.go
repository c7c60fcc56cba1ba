package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"mediasort/internal/disambiguate"
	"mediasort/internal/identitycache"
	"mediasort/internal/logging"
	"mediasort/internal/mediaparse"
	"mediasort/internal/services"
	"mediasort/internal/textutil"
)

// IdentifyEpisode runs the episode state machine for one staged filename.
func (r *Reconciler) IdentifyEpisode(ctx context.Context, filename string) Outcome {
	ctx, logger, out := r.begin(ctx, KindEpisode, filename)
	if r.skipKnown(logger, &out) {
		return out
	}
	if r.shows == nil {
		return r.fail(logger, &out, services.Wrap(services.ErrConfiguration, "reconcile", "episode", "show search is not configured", nil))
	}

	id, err := mediaparse.ParseEpisode(filename)
	if err != nil {
		return r.fail(logger, &out, err)
	}
	r.transition(logger, &out, StateParsed)
	logger.Debug("episode parsed",
		logging.String("style", string(id.Style)),
		logging.String("show_query", id.TitleEncoded),
		logging.String("season", id.Season),
		logging.String("episodes", id.EpisodeField()),
	)

	r.transition(logger, &out, StateSearching)
	show, hit, err := r.cache.Resolve(ctx, id.TitleEncoded, func(ctx context.Context) (identitycache.ShowIdentity, error) {
		return r.resolveShow(ctx, logger, &out, filename, id)
	})
	if err != nil {
		return r.fail(logger, &out, err)
	}
	if hit {
		out.CacheHit = true
		r.transition(logger, &out, StateAutoResolved)
		logger.Debug("show identity reused", logging.Int64("show_id", show.ExternalID))
	}

	season, numbers, names, err := r.fetchEpisodes(ctx, show, id)
	if err != nil {
		return r.fail(logger, &out, err)
	}

	showTitle := textutil.SanitizePathSegment(show.Title)
	if showTitle == "" {
		return r.fail(logger, &out, services.Wrap(services.ErrValidation, "reconcile", "episode",
			fmt.Sprintf("show %d has no usable title", show.ExternalID), nil))
	}
	out.Record = &Record{
		Kind:             KindEpisode,
		OriginalFilename: filename,
		CanonicalName:    EpisodeFilename(showTitle, season, numbers, names, id.Extension),
		Title:            showTitle,
		ExternalID:       show.ExternalID,
		TargetSeason:     season,
		Extension:        id.Extension,
	}
	r.transition(logger, &out, StateIdentified)
	logger.Info("episode identified",
		logging.String("canonical_name", out.Record.CanonicalName),
		logging.Bool("cache_hit", hit),
	)
	return out
}

func (r *Reconciler) resolveShow(ctx context.Context, logger *slog.Logger, out *Outcome, filename string, id mediaparse.Identifier) (identitycache.ShowIdentity, error) {
	candidates, attempts, err := r.showPolicy.Search(ctx, id.TitleEncoded, r.shows.SearchCandidates)
	for _, attempt := range attempts {
		logger.Debug("show search attempt",
			logging.String("query", attempt.Query),
			logging.Int("results", attempt.Results),
		)
	}
	if err != nil {
		return identitycache.ShowIdentity{}, err
	}
	subject := disambiguate.Subject{Filename: filename, Query: mediaparse.DecodeQuery(id.TitleEncoded), Kind: "show"}
	choice, err := r.pick(ctx, logger, out, subject, candidates)
	if err != nil {
		return identitycache.ShowIdentity{}, err
	}
	return identitycache.ShowIdentity{ExternalID: choice.ExternalID, Title: choice.Title}, nil
}

// fetchEpisodes looks up every episode the identifier names and returns the
// season, the episode numbers and their names as the catalog spells them.
func (r *Reconciler) fetchEpisodes(ctx context.Context, show identitycache.ShowIdentity, id mediaparse.Identifier) (int, []int, []string, error) {
	if id.Style == mediaparse.StyleDate {
		episodes, err := r.shows.EpisodesByDate(ctx, show.ExternalID, id.DateKey)
		if err != nil {
			return 0, nil, nil, episodeLookupError(err)
		}
		if len(episodes) == 0 {
			return 0, nil, nil, services.Wrap(services.ErrResolution, "reconcile", "episode",
				fmt.Sprintf("no episode of %q aired on %s", show.Title, id.DateKey), nil)
		}
		first := episodes[0]
		return first.Season, []int{first.Number}, []string{first.Name}, nil
	}

	season, ok := id.SeasonNumber()
	if !ok {
		return 0, nil, nil, services.Wrap(services.ErrParse, "reconcile", "episode",
			fmt.Sprintf("season %q is not numeric", id.Season), nil)
	}
	numbers := id.EpisodeNumbers()
	if len(numbers) == 0 {
		return 0, nil, nil, services.Wrap(services.ErrParse, "reconcile", "episode", "no episode numbers", nil)
	}

	names := make([]string, 0, len(numbers))
	resolved := make([]int, 0, len(numbers))
	for _, number := range numbers {
		if err := ctx.Err(); err != nil {
			return 0, nil, nil, err
		}
		episode, err := r.shows.EpisodeByNumber(ctx, show.ExternalID, season, number)
		if err != nil {
			return 0, nil, nil, episodeLookupError(err)
		}
		if episode.Season > 0 {
			season = episode.Season
		}
		if episode.Number > 0 {
			number = episode.Number
		}
		resolved = append(resolved, number)
		names = append(names, episode.Name)
	}
	return season, resolved, names, nil
}

// episodeLookupError marks an unknown episode as a permanent resolution
// failure. Other errors already carry their classification.
func episodeLookupError(err error) error {
	if errors.Is(err, services.ErrNotFound) && !errors.Is(err, services.ErrResolution) {
		return services.Wrap(services.ErrResolution, "reconcile", "episode", "episode not in catalog", err)
	}
	return err
}

// EpisodeFilename formats "<Show> - S<ss>E<ee>[-E<ee>] - <Name>[, <Name>]<ext>".
// Episode names are sanitized; an episode without names drops the trailing
// segment.
func EpisodeFilename(show string, season int, episodes []int, names []string, ext string) string {
	var marker strings.Builder
	fmt.Fprintf(&marker, "S%02d", season)
	for i, number := range episodes {
		if i > 0 {
			marker.WriteByte('-')
		}
		fmt.Fprintf(&marker, "E%02d", number)
	}

	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		if name = textutil.SanitizePathSegment(name); name != "" {
			cleaned = append(cleaned, name)
		}
	}
	if len(cleaned) == 0 {
		return fmt.Sprintf("%s - %s%s", show, marker.String(), ext)
	}
	return fmt.Sprintf("%s - %s - %s%s", show, marker.String(), strings.Join(cleaned, ", "), ext)
}
