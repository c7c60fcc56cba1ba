package archive

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mediasort/internal/fileutil"
	"mediasort/internal/logging"
	"mediasort/internal/services"
	"mediasort/internal/staging"
)

// Stage adopts files left in staging by an earlier run, then moves every
// accepted file below the download directory into staging. The tree is
// flattened; a name already taken in staging gets a numbered suffix.
// Rejected files stay where they are.
func (e *Executor) Stage(ctx context.Context) ([]RawFile, error) {
	ctx = services.WithPhase(ctx, "stage")
	logger := logging.WithContext(ctx, e.logger)

	if err := os.MkdirAll(e.stagingDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "archive", "stage", "create staging directory", err)
	}
	if err := e.adoptLeftovers(logger); err != nil {
		return nil, err
	}

	var skipped int
	e.stageFailures = nil
	walkErr := filepath.WalkDir(e.downloadDir, func(path string, entry fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == e.downloadDir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return e.notStaged(logger, path, entry, err)
		}
		if entry.IsDir() {
			if path != e.downloadDir && (within(path, e.stagingDir) || within(path, e.trash.Root())) {
				return fs.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return e.notStaged(logger, path, entry, err)
		}
		rel, err := filepath.Rel(e.downloadDir, path)
		if err != nil {
			return e.notStaged(logger, path, entry, err)
		}
		if ok, reason := e.filter.Accept(rel, info.Size()); !ok {
			skipped++
			logger.Debug("download file not staged",
				logging.Args(append(logging.DecisionAttrs("stage_filter", "skip", reason),
					logging.String("path", rel),
					logging.Int64("size_bytes", info.Size()),
				)...)...)
			return nil
		}

		target, err := fileutil.UniquePath(e.stagingDir, entry.Name())
		if err == nil {
			err = fileutil.MovePath(path, target)
		}
		if err != nil {
			return e.notStaged(logger, path, entry, err)
		}
		raw := RawFile{
			Filename:     filepath.Base(target),
			OriginalName: entry.Name(),
			Origin:       path,
			SizeBytes:    info.Size(),
			Extension:    strings.ToLower(filepath.Ext(entry.Name())),
		}
		e.track(raw, target)
		logger.Debug("file staged",
			logging.String("source", rel),
			logging.String("staged_name", raw.Filename),
			logging.String("size", logging.FormatBytes(raw.SizeBytes)),
		)
		return nil
	})
	if walkErr != nil {
		return e.Staged(), walkErr
	}

	logger.Info("staging complete",
		logging.Int("staged", len(e.staged)),
		logging.Int("not_staged", skipped),
		logging.Int("failed", len(e.stageFailures)),
		logging.String("download_dir", e.downloadDir),
	)
	return e.Staged(), nil
}

// StageFailures returns the download entries the last Stage could not move.
func (e *Executor) StageFailures() []Failure {
	return append([]Failure(nil), e.stageFailures...)
}

// notStaged records an entry that could not be staged and tells WalkDir to
// carry on past it.
func (e *Executor) notStaged(logger *slog.Logger, path string, entry fs.DirEntry, err error) error {
	rel, relErr := filepath.Rel(e.downloadDir, path)
	if relErr != nil {
		rel = path
	}
	e.stageFailures = append(e.stageFailures, Failure{
		Filename: rel,
		Err:      services.Wrap(services.ErrTransient, "archive", "stage", rel, err),
	})
	logging.WarnWithContext(logger, "download entry not staged", "stage_failed",
		logging.String("path", rel),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check download directory permissions"),
		logging.String(logging.FieldImpact, "entry left in the download directory"),
	)
	if entry != nil && entry.IsDir() {
		return fs.SkipDir
	}
	return nil
}

func (e *Executor) adoptLeftovers(logger *slog.Logger) error {
	entries, err := staging.ListEntries(e.stagingDir)
	if err != nil {
		return services.Wrap(services.ErrTransient, "archive", "stage", "list staging directory", err)
	}
	for _, entry := range entries {
		if entry.IsDir {
			continue
		}
		e.track(RawFile{
			Filename:     entry.Name,
			OriginalName: entry.Name,
			SizeBytes:    entry.Size,
			Extension:    strings.ToLower(filepath.Ext(entry.Name)),
		}, entry.Path)
	}
	if len(e.staged) > 0 {
		logger.Info("resuming files left in staging", logging.Int("count", len(e.staged)))
	}
	return nil
}
