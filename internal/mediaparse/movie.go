package mediaparse

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var digitRunPattern = regexp.MustCompile(`[0-9]+`)

// resolution tokens that look like years
var notYears = map[string]struct{}{
	"1080": {},
	"2160": {},
}

// ParseMovie extracts the title and release year from a movie filename.
// Exactly one plausible four digit year must remain after dropping
// resolution tokens and tokens that start the filename; otherwise the
// returned ParseError has NeedsYear set.
func ParseMovie(filename string) (Identifier, error) {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "" || base == "." {
		return Identifier{}, &ParseError{Filename: filename, Reason: "empty filename"}
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var years []string
	var offsets []int
	for _, loc := range digitRunPattern.FindAllStringIndex(stem, -1) {
		token := stem[loc[0]:loc[1]]
		if len(token) != 4 || loc[0] == 0 {
			continue
		}
		if _, skip := notYears[token]; skip {
			continue
		}
		years = append(years, token)
		offsets = append(offsets, loc[0])
	}

	switch len(years) {
	case 0:
		return Identifier{}, &ParseError{Filename: base, Reason: "no release year", NeedsYear: true}
	case 1:
	default:
		return Identifier{}, &ParseError{
			Filename:  base,
			Reason:    "ambiguous release year (" + strings.Join(years, ", ") + ")",
			NeedsYear: true,
		}
	}

	year, _ := strconv.Atoi(years[0])
	return movieIdentifier(base, stem[:offsets[0]], year)
}

// ParseMovieWithYear derives a movie identifier using a caller supplied
// release year. The title is the text in front of the year when the year
// appears in the name, otherwise the whole stem.
func ParseMovieWithYear(filename string, year int) (Identifier, error) {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "" || base == "." {
		return Identifier{}, &ParseError{Filename: filename, Reason: "empty filename"}
	}
	if year < 1000 || year > 9999 {
		return Identifier{}, &ParseError{Filename: base, Reason: "year must have four digits", NeedsYear: true}
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	title := stem
	if idx := strings.Index(stem, strconv.Itoa(year)); idx > 0 {
		title = stem[:idx]
	}
	return movieIdentifier(base, title, year)
}

func movieIdentifier(base, rawTitle string, year int) (Identifier, error) {
	title := trimTitle(rawTitle)
	if title == "" {
		return Identifier{}, &ParseError{Filename: base, Reason: "no title before year"}
	}
	return Identifier{
		Filename:     base,
		TitleRaw:     title,
		TitleEncoded: EncodeMovieQuery(title),
		Style:        StyleMovie,
		Year:         year,
		Extension:    strings.ToLower(filepath.Ext(base)),
	}, nil
}

// EncodeMovieQuery lower-cases a title and swaps separators for the query
// placeholder. Manual title entry goes through the same encoding.
func EncodeMovieQuery(title string) string {
	return encodePlaceholders(strings.ToLower(strings.TrimSpace(title)))
}
