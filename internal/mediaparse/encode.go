package mediaparse

import "strings"

// Placeholder replaces separators in encoded titles.
const Placeholder = "%20"

var placeholderReplacer = strings.NewReplacer(" ", Placeholder, ".", Placeholder, "'", Placeholder)

func encodePlaceholders(title string) string {
	encoded := placeholderReplacer.Replace(title)
	for strings.Contains(encoded, Placeholder+Placeholder) {
		encoded = strings.ReplaceAll(encoded, Placeholder+Placeholder, Placeholder)
	}
	encoded = strings.TrimPrefix(encoded, Placeholder)
	encoded = strings.TrimSuffix(encoded, Placeholder)
	return encoded
}

// DecodeQuery turns an encoded title back into space separated words.
func DecodeQuery(encoded string) string {
	return strings.Join(QueryTokens(encoded), " ")
}

// QueryTokens splits an encoded title on the placeholder.
func QueryTokens(encoded string) []string {
	var tokens []string
	for _, token := range strings.Split(encoded, Placeholder) {
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// DropLastToken removes the final placeholder separated token. It reports
// false when fewer than two tokens exist, since dropping would leave nothing
// to search for.
func DropLastToken(encoded string) (string, bool) {
	tokens := QueryTokens(encoded)
	if len(tokens) < 2 {
		return encoded, false
	}
	return strings.Join(tokens[:len(tokens)-1], Placeholder), true
}

func trimTitle(value string) string {
	return strings.TrimSpace(strings.TrimRight(value, " .-_([{"))
}
