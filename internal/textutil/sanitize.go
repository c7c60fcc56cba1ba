package textutil

import (
	"html"
	"regexp"
	"strings"
)

// separatorReplacer turns path separators into dashes and drops NUL bytes.
var separatorReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	"\x00", "",
)

// SanitizePathSegment makes a catalog title safe to use as a single path
// segment. Path separators become dashes; other punctuation is preserved so
// archive names keep the catalog's spelling. Leading dots are trimmed so a
// title can never resolve to "." or "..".
func SanitizePathSegment(name string) string {
	name = separatorReplacer.Replace(strings.TrimSpace(name))
	name = strings.TrimLeft(name, ".")
	return strings.TrimSpace(name)
}

var (
	tagPattern   = regexp.MustCompile(`<[^<]+?>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// StripTags removes basic HTML markup and entities from catalog summaries.
func StripTags(value string) string {
	value = tagPattern.ReplaceAllString(value, "")
	value = html.UnescapeString(value)
	return strings.TrimSpace(spacePattern.ReplaceAllString(value, " "))
}

// Truncate shortens value to at most limit runes, appending an ellipsis when cut.
func Truncate(value string, limit int) string {
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
