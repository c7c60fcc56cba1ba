package metadata

import (
	"fmt"
	"strings"
)

// Candidate is one remote search result. Slices of candidates are treated as
// read-only once fetched.
type Candidate struct {
	ExternalID  int64
	Title       string
	Year        string
	Status      string
	Description string
}

// Qualifier returns the year for movies and the airing status for shows.
func (c Candidate) Qualifier() string {
	if year := strings.TrimSpace(c.Year); year != "" {
		return year
	}
	return strings.TrimSpace(c.Status)
}

// Label renders the short list line for a candidate, e.g. "Heat - 1995".
func (c Candidate) Label() string {
	if q := c.Qualifier(); q != "" {
		return fmt.Sprintf("%s - %s", c.Title, q)
	}
	return c.Title
}
