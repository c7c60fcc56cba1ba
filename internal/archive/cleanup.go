package archive

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"mediasort/internal/fileutil"
	"mediasort/internal/logging"
	"mediasort/internal/services"
	"mediasort/internal/staging"
)

// Cleanup settles the download and staging directories after Archive.
//
// When nothing was archived every staged file goes back to the download
// directory, so staging is left empty. Otherwise the download directory's remaining contents are trashed, and
// staging is trashed too when every staged file reached the library. Files
// that were not archived stay in staging.
func (e *Executor) Cleanup(ctx context.Context, report Report) CleanupResult {
	ctx = services.WithPhase(ctx, "cleanup")
	logger := logging.WithContext(ctx, e.logger)

	if len(report.Archived) == 0 {
		result := e.restore()
		logger.Info("nothing archived; staged files restored",
			logging.Int("restored", len(result.Restored)),
			logging.Int("failures", len(result.Failures)),
			logging.Bool("declined", report.Declined),
		)
		e.warnFailures(logger, result.Failures, "file left in staging")
		return result
	}

	var result CleanupResult
	trashed, failures := e.trash.DiscardContents(e.downloadDir, func(name string) bool {
		path := filepath.Join(e.downloadDir, name)
		return within(e.stagingDir, path) || within(e.trash.Root(), path)
	})
	result.Trashed = append(result.Trashed, trashed...)
	result.Failures = mergeFailures(result.Failures, failures)

	if e.allArchived() {
		trashed, failures = e.trash.DiscardContents(e.stagingDir, staging.IsLockFile)
		result.Trashed = append(result.Trashed, trashed...)
		result.Failures = mergeFailures(result.Failures, failures)
		result.StagingPurged = len(failures) == 0
	}

	logger.Info("cleanup complete",
		logging.Int("trashed", len(result.Trashed)),
		logging.Bool("staging_purged", result.StagingPurged),
		logging.Int("left_in_staging", e.remaining()),
		logging.String("trash_dir", e.trash.Root()),
	)
	e.warnFailures(logger, result.Failures, "leftover not moved to trash")
	return result
}

// restore moves every unarchived staged file back to its origin under its
// original name. Files adopted from an earlier run go to the top of the
// download directory.
func (e *Executor) restore() CleanupResult {
	var result CleanupResult
	for _, file := range e.staged {
		if file.archived {
			continue
		}
		dir, name := e.downloadDir, file.raw.OriginalName
		if file.raw.Origin != "" {
			dir, name = filepath.Dir(file.raw.Origin), filepath.Base(file.raw.Origin)
		}
		target, err := restoreTarget(dir, name)
		if err == nil {
			err = fileutil.MovePath(file.current, target)
		}
		if err != nil {
			result.Failures = mergeFailures(result.Failures, map[string]error{file.current: err})
			continue
		}
		file.current = target
		result.Restored = append(result.Restored, target)
	}
	return result
}

func restoreTarget(dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return fileutil.UniquePath(dir, name)
}

func (e *Executor) allArchived() bool {
	for _, file := range e.staged {
		if !file.archived {
			return false
		}
	}
	return true
}

func (e *Executor) remaining() int {
	count := 0
	for _, file := range e.staged {
		if file.archived {
			continue
		}
		if _, err := os.Lstat(file.current); err == nil && within(file.current, e.stagingDir) {
			count++
		}
	}
	return count
}

func (e *Executor) warnFailures(logger *slog.Logger, failures map[string]error, impact string) {
	for path, err := range failures {
		logging.WarnWithContext(logger, "cleanup step failed", "cleanup_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "move the path by hand"),
			logging.String(logging.FieldImpact, impact),
		)
	}
}

func mergeFailures(dst, src map[string]error) map[string]error {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]error, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
