package reconcile

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Kind distinguishes movie and episode records.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindEpisode Kind = "episode"
)

// State is a step of the per-file identification state machine.
type State string

const (
	StateParsed                 State = "parsed"
	StateSearching              State = "searching"
	StateAutoResolved           State = "auto_resolved"
	StateAwaitingDisambiguation State = "awaiting_disambiguation"
	StateIdentified             State = "identified"
	StateFailed                 State = "failed"
)

// ErrKnownFailure reports a file skipped because the failure ledger lists it.
var ErrKnownFailure = errors.New("listed in failure ledger")

// Record is the identification result for one file.
type Record struct {
	Kind             Kind
	OriginalFilename string
	CanonicalName    string

	// Title is the sanitized movie title or show name used in archive paths.
	Title        string
	ExternalID   int64
	TargetYear   int
	TargetSeason int
	Extension    string
}

// RelativeDir returns the archive directory of the record below its library
// root: "<year>/<Title (Year)>" for movies, "<Show>/Season <n>" for episodes.
func (r Record) RelativeDir() string {
	switch r.Kind {
	case KindEpisode:
		return filepath.Join(r.Title, fmt.Sprintf("Season %d", r.TargetSeason))
	default:
		folder := strings.TrimSuffix(r.CanonicalName, r.Extension)
		return filepath.Join(strconv.Itoa(r.TargetYear), folder)
	}
}

// Outcome reports how one file left the state machine.
type Outcome struct {
	Filename string
	Kind     Kind
	State    State

	// Path lists every state the file passed through, in order.
	Path   []State
	Record *Record
	Err    error

	// CacheHit is set when the show identity came from the identity cache.
	CacheHit bool
}

// Identified reports whether the file produced a record.
func (o Outcome) Identified() bool {
	return o.State == StateIdentified && o.Record != nil
}
