package archive

import (
	"context"
	"path/filepath"
	"strings"

	"mediasort/internal/history"
	"mediasort/internal/reconcile"
)

// RawFile is a media file as discovered in the download directory.
type RawFile struct {
	// Filename is the name the file carries in staging. It differs from
	// OriginalName only when staging already held a file of that name.
	Filename     string
	OriginalName string

	// Origin is the full download path; empty for files found in staging
	// from an earlier run.
	Origin    string
	SizeBytes int64
	Extension string
}

// Filter decides which download files are staged.
type Filter struct {
	// Extensions are lower-case without the leading dot.
	Extensions   []string
	MinSizeBytes int64
}

// Accept reports whether a file at relPath with size bytes should be staged,
// and the reason when it should not.
func (f Filter) Accept(relPath string, size int64) (bool, string) {
	name := filepath.Base(relPath)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" || !f.allows(ext) {
		return false, "extension not allowed"
	}
	if strings.Contains(strings.ToLower(name), "sample") {
		return false, "sample file"
	}
	if size < f.MinSizeBytes {
		return false, "below minimum size"
	}
	return true, ""
}

func (f Filter) allows(ext string) bool {
	for _, allowed := range f.Extensions {
		if strings.EqualFold(strings.TrimPrefix(allowed, "."), ext) {
			return true
		}
	}
	return false
}

// Renamed is a staged file after it took its canonical name.
type Renamed struct {
	Record reconcile.Record
	Path   string
}

// Move is one planned library move.
type Move struct {
	Record      reconcile.Record
	Source      string
	Destination string
}

// CollisionAction is the operator's answer to an occupied destination.
type CollisionAction string

const (
	CollisionSkip      CollisionAction = "skip"
	CollisionOverwrite CollisionAction = "overwrite"
)

// Collision describes an occupied destination. For movies Existing is the
// movie folder; for episodes it is the episode file.
type Collision struct {
	Move     Move
	Existing string
	IsDir    bool
}

// CollisionResolver chooses between overwriting and skipping.
type CollisionResolver interface {
	ResolveCollision(ctx context.Context, collision Collision) (CollisionAction, error)
}

// Confirmer approves the full move plan before anything enters the library.
type Confirmer interface {
	ConfirmArchive(ctx context.Context, plan []Move) (bool, error)
}

// Recorder stores archived files in the history database.
type Recorder interface {
	Add(ctx context.Context, entry history.Entry) (int64, error)
}

// Failure is a file that dropped out of a phase.
type Failure struct {
	Filename string
	Err      error
}

// Archived is a file that reached the library.
type Archived struct {
	Move      Move
	Overwrote bool
}

// Skipped is a planned move that did not happen.
type Skipped struct {
	Move   Move
	Reason string
	Err    error
}

// Report summarizes the Archive phase.
type Report struct {
	Planned  int
	Declined bool
	Archived []Archived
	Skipped  []Skipped
}

// CleanupResult summarizes the Cleanup phase.
type CleanupResult struct {
	Restored      []string
	Trashed       []string
	StagingPurged bool
	Failures      map[string]error
}
