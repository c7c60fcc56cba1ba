package mediaparse

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

type episodeGrammar struct {
	style Style
	re    *regexp.Regexp
	build func(filename string, loc []int) (Identifier, bool)

	// bounded grammars consume a separator before the marker, so the marker
	// starts at the first capture group rather than the match.
	bounded bool
}

var (
	multiEpisodePattern  = regexp.MustCompile(`(?i)s([0-9]{1,3})e([0-9]{1,3})((?:-?e[0-9]{1,3})+)`)
	seasonEpisodePattern = regexp.MustCompile(`(?i)s([0-9]{1,3}) ?e([0-9]{1,3})`)
	datePattern          = regexp.MustCompile(`([0-9]{4}).([0-9]{2}).([0-9]{2})`)

	// The boundaries keep resolutions such as 1920x1080 from reading as 0x10.
	xStylePattern = regexp.MustCompile(`(?i)(?:^|[^0-9a-z])(0?[0-9])x([0-9]{1,2})(?:[^0-9]|$)`)

	looseEpisodePattern = regexp.MustCompile(`(?i)s([0-9]{1,3}).?e([0-9]{1,3})`)

	episodeNumberPattern = regexp.MustCompile(`[0-9]{1,3}`)
	trailingYearPattern  = regexp.MustCompile(`(?:^|[ .])\(?((?:19|20)[0-9]{2})\)?$`)
)

var episodeGrammars = []episodeGrammar{
	{style: StyleMultiEpisode, re: multiEpisodePattern, build: buildMultiEpisode},
	{style: StyleSeasonEpisode, re: seasonEpisodePattern, build: buildSeasonEpisode(StyleSeasonEpisode)},
	{style: StyleDate, re: datePattern, build: buildDate},
	{style: StyleXStyle, re: xStylePattern, build: buildSeasonEpisode(StyleXStyle), bounded: true},
	{style: StyleSeasonEpisode, re: looseEpisodePattern, build: buildSeasonEpisode(StyleSeasonEpisode)},
}

// ParseEpisode matches filename against the episode grammars in priority
// order. The first grammar that matches decides the style; a filename that
// matches none, or that leaves no title in front of its marker, fails.
func ParseEpisode(filename string) (Identifier, error) {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "" || base == "." {
		return Identifier{}, &ParseError{Filename: filename, Reason: "empty filename"}
	}

	for _, grammar := range episodeGrammars {
		loc := grammar.re.FindStringSubmatchIndex(base)
		if loc == nil {
			continue
		}
		id, ok := grammar.build(base, loc)
		if !ok {
			continue
		}
		markerStart := loc[0]
		if grammar.bounded {
			markerStart = loc[2]
		}
		title := trimTitle(base[:markerStart])
		if title == "" {
			return Identifier{}, &ParseError{Filename: base, Reason: "no title before episode marker"}
		}
		id.Filename = base
		id.TitleRaw = title
		id.TitleEncoded = encodeShowTitle(title)
		id.Extension = strings.ToLower(filepath.Ext(base))
		if id.TitleEncoded == "" {
			return Identifier{}, &ParseError{Filename: base, Reason: "title is only a year"}
		}
		return id, nil
	}

	return Identifier{}, &ParseError{Filename: base, Reason: "no episode marker"}
}

func buildMultiEpisode(filename string, loc []int) (Identifier, bool) {
	episodes := []string{filename[loc[4]:loc[5]]}
	episodes = append(episodes, episodeNumberPattern.FindAllString(filename[loc[6]:loc[7]], -1)...)
	return Identifier{
		Style:    StyleMultiEpisode,
		Season:   filename[loc[2]:loc[3]],
		Episodes: episodes,
	}, true
}

func buildSeasonEpisode(style Style) func(string, []int) (Identifier, bool) {
	return func(filename string, loc []int) (Identifier, bool) {
		return Identifier{
			Style:    style,
			Season:   filename[loc[2]:loc[3]],
			Episodes: []string{filename[loc[4]:loc[5]]},
		}, true
	}
}

func buildDate(filename string, loc []int) (Identifier, bool) {
	key := filename[loc[2]:loc[3]] + "-" + filename[loc[4]:loc[5]] + "-" + filename[loc[6]:loc[7]]
	if _, err := time.Parse("2006-01-02", key); err != nil {
		return Identifier{}, false
	}
	return Identifier{
		Style:   StyleDate,
		Season:  SeasonUnknown,
		DateKey: key,
	}, true
}

// encodeShowTitle prepares a show title for the TV search query. A year is
// dropped because show search takes no year qualifier.
func encodeShowTitle(title string) string {
	cleaned := strings.TrimRight(strings.TrimSpace(title), ".")
	if loc := trailingYearPattern.FindStringIndex(cleaned); loc != nil && loc[0] > 0 {
		cleaned = strings.TrimRight(strings.TrimSpace(cleaned[:loc[0]]), ".")
	}
	return encodePlaceholders(cleaned)
}
