package archive

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"mediasort/internal/fileutil"
	"mediasort/internal/logging"
)

// Options wires an Executor for one kind of media.
type Options struct {
	DownloadDir string
	StagingDir  string
	LibraryRoot string
	Filter      Filter
	Trash       *fileutil.Trash

	Confirmer Confirmer
	Resolver  CollisionResolver
	History   Recorder
	Logger    *slog.Logger
}

// Executor carries the staged files of one run through the archive phases.
// It is not safe for concurrent use.
type Executor struct {
	downloadDir string
	stagingDir  string
	libraryRoot string
	filter      Filter
	trash       *fileutil.Trash
	confirmer   Confirmer
	resolver    CollisionResolver
	history     Recorder
	logger      *slog.Logger

	staged        []*stagedFile
	byName        map[string]*stagedFile
	stageFailures []Failure

	// claimed holds the collision paths filled by the current Archive call.
	claimed map[string]struct{}
}

type stagedFile struct {
	raw      RawFile
	current  string
	archived bool
}

// New validates options and returns an Executor.
func New(opts Options) (*Executor, error) {
	downloadDir := strings.TrimSpace(opts.DownloadDir)
	stagingDir := strings.TrimSpace(opts.StagingDir)
	libraryRoot := strings.TrimSpace(opts.LibraryRoot)
	switch {
	case downloadDir == "":
		return nil, errors.New("archive: download directory not configured")
	case stagingDir == "":
		return nil, errors.New("archive: staging directory not configured")
	case libraryRoot == "":
		return nil, errors.New("archive: library root not configured")
	case opts.Trash == nil:
		return nil, errors.New("archive: trash not configured")
	}
	return &Executor{
		downloadDir: filepath.Clean(downloadDir),
		stagingDir:  filepath.Clean(stagingDir),
		libraryRoot: filepath.Clean(libraryRoot),
		filter:      opts.Filter,
		trash:       opts.Trash,
		confirmer:   opts.Confirmer,
		resolver:    opts.Resolver,
		history:     opts.History,
		logger:      logging.NewComponentLogger(opts.Logger, "archive"),
		byName:      make(map[string]*stagedFile),
	}, nil
}

// Staged returns the files staged so far, in staging order.
func (e *Executor) Staged() []RawFile {
	out := make([]RawFile, 0, len(e.staged))
	for _, file := range e.staged {
		out = append(out, file.raw)
	}
	return out
}

func (e *Executor) track(raw RawFile, path string) {
	file := &stagedFile{raw: raw, current: path}
	e.staged = append(e.staged, file)
	e.byName[raw.Filename] = file
}

// within reports whether path is dir or below it.
func within(path, dir string) bool {
	if dir == "" {
		return false
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
