package mediaparse

import (
	"fmt"
	"strconv"
	"strings"

	"mediasort/internal/services"
)

// Style names the filename grammar that produced an Identifier.
type Style string

const (
	StyleMultiEpisode  Style = "multi-episode"
	StyleSeasonEpisode Style = "season-episode"
	StyleDate          Style = "date-based"
	StyleXStyle        Style = "x-style"
	StyleMovie         Style = "movie"
)

// SeasonUnknown marks the season and episode of date-based episodes.
const SeasonUnknown = "NA"

// Identifier is the structured form of a parsed filename.
type Identifier struct {
	Filename     string
	TitleRaw     string
	TitleEncoded string
	Style        Style

	// Season and Episodes keep the digits as written in the filename.
	Season   string
	Episodes []string
	DateKey  string
	Year     int

	// Extension includes the leading dot and is lower-cased.
	Extension string
}

// SeasonNumber returns the numeric season. Date-based identifiers have none.
func (id Identifier) SeasonNumber() (int, bool) {
	if id.Season == "" || id.Season == SeasonUnknown {
		return 0, false
	}
	n, err := strconv.Atoi(id.Season)
	if err != nil {
		return 0, false
	}
	return n, true
}

// EpisodeNumbers returns the numeric episodes in filename order.
func (id Identifier) EpisodeNumbers() []int {
	numbers := make([]int, 0, len(id.Episodes))
	for _, raw := range id.Episodes {
		n, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		numbers = append(numbers, n)
	}
	return numbers
}

// EpisodeField joins the episode digits the way multi-episode files spell
// them, e.g. "05-06".
func (id Identifier) EpisodeField() string {
	if len(id.Episodes) == 0 {
		return SeasonUnknown
	}
	return strings.Join(id.Episodes, "-")
}

// ParseError reports a filename that matches no recognised grammar.
type ParseError struct {
	Filename string
	Reason   string

	// NeedsYear is set for movie names whose release year is missing or
	// ambiguous; the caller may supply one and retry with ParseMovieWithYear.
	NeedsYear bool
}

func (e *ParseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("unrecognised filename %q", e.Filename)
	}
	return fmt.Sprintf("unrecognised filename %q: %s", e.Filename, e.Reason)
}

// Unwrap lets errors.Is match services.ErrParse.
func (e *ParseError) Unwrap() error {
	return services.ErrParse
}
