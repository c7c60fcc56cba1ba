package metadata

import (
	"context"

	"mediasort/internal/mediaparse"
)

// MovieSearchFunc runs one movie search. query is plain text; year 0 means
// no year filter.
type MovieSearchFunc func(ctx context.Context, query string, year int) ([]Candidate, error)

// ShowSearchFunc runs one show search with a plain text query.
type ShowSearchFunc func(ctx context.Context, query string) ([]Candidate, error)

// Attempt records one query a policy issued.
type Attempt struct {
	Query   string
	Year    int
	Results int
}

// YearWindow walks a movie search through a sequence of year filters until
// one returns results: the reported year, the year after, the year before,
// then no filter. With Window disabled only the reported year and the
// unfiltered search are tried. DropLastToken re-issues each empty year-scoped
// search once with the final title token removed.
type YearWindow struct {
	Window        bool
	DropLastToken bool
}

// DefaultYearWindow enables both heuristics.
func DefaultYearWindow() YearWindow {
	return YearWindow{Window: true, DropLastToken: true}
}

// Years returns the ordered year filters for year. The final 0 is the
// unfiltered search.
func (w YearWindow) Years(year int) []int {
	if year <= 0 {
		return []int{0}
	}
	if !w.Window {
		return []int{year, 0}
	}
	return []int{year, year + 1, year - 1, 0}
}

// Search runs the window for an encoded query and returns the first non-empty
// result set together with every attempt made. An empty result after the
// whole window is not an error.
func (w YearWindow) Search(ctx context.Context, encodedQuery string, year int, search MovieSearchFunc) ([]Candidate, []Attempt, error) {
	var attempts []Attempt
	run := func(query string, y int) ([]Candidate, error) {
		results, err := search(ctx, mediaparse.DecodeQuery(query), y)
		attempts = append(attempts, Attempt{Query: query, Year: y, Results: len(results)})
		return results, err
	}

	for _, y := range w.Years(year) {
		if err := ctx.Err(); err != nil {
			return nil, attempts, err
		}
		results, err := run(encodedQuery, y)
		if err != nil {
			return nil, attempts, err
		}
		if len(results) > 0 {
			return results, attempts, nil
		}
		if !w.DropLastToken || y == 0 {
			continue
		}
		reduced, ok := mediaparse.DropLastToken(encodedQuery)
		if !ok {
			continue
		}
		results, err = run(reduced, y)
		if err != nil {
			return nil, attempts, err
		}
		if len(results) > 0 {
			return results, attempts, nil
		}
	}
	return nil, attempts, nil
}

// DropLastToken re-issues an empty show search exactly once with the final
// title token removed. Show search takes no year, so this is the only TV
// heuristic.
type DropLastToken struct {
	Enabled bool
}

// Search runs the show search for an encoded query.
func (d DropLastToken) Search(ctx context.Context, encodedQuery string, search ShowSearchFunc) ([]Candidate, []Attempt, error) {
	var attempts []Attempt
	results, err := search(ctx, mediaparse.DecodeQuery(encodedQuery))
	attempts = append(attempts, Attempt{Query: encodedQuery, Results: len(results)})
	if err != nil || len(results) > 0 || !d.Enabled {
		return results, attempts, err
	}
	reduced, ok := mediaparse.DropLastToken(encodedQuery)
	if !ok {
		return nil, attempts, nil
	}
	results, err = search(ctx, mediaparse.DecodeQuery(reduced))
	attempts = append(attempts, Attempt{Query: reduced, Results: len(results)})
	return results, attempts, err
}
