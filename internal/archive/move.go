package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mediasort/internal/fileutil"
	"mediasort/internal/history"
	"mediasort/internal/logging"
	"mediasort/internal/reconcile"
	"mediasort/internal/services"
)

// ErrDuplicateInRun marks a move whose destination an earlier move of the
// same run already filled.
var ErrDuplicateInRun = errors.New("destination filled earlier in this run")

// Rename gives every identified staged file its canonical name inside
// staging. A name already taken gets a numbered suffix. A failure drops only
// that file, which keeps its staged name.
func (e *Executor) Rename(ctx context.Context, records []reconcile.Record) ([]Renamed, []Failure) {
	ctx = services.WithPhase(ctx, "rename")
	logger := logging.WithContext(ctx, e.logger)

	renamed := make([]Renamed, 0, len(records))
	var failures []Failure
	for _, record := range records {
		file, ok := e.byName[record.OriginalFilename]
		if !ok {
			failures = append(failures, Failure{
				Filename: record.OriginalFilename,
				Err:      services.Wrap(services.ErrValidation, "archive", "rename", "file is not staged", nil),
			})
			continue
		}
		if filepath.Base(file.current) == record.CanonicalName {
			renamed = append(renamed, Renamed{Record: record, Path: file.current})
			continue
		}
		target, err := fileutil.UniquePath(e.stagingDir, record.CanonicalName)
		if err == nil {
			err = os.Rename(file.current, target)
		}
		if err != nil {
			logging.WarnWithContext(logger, "staged rename failed", "rename_failed",
				logging.String(logging.FieldFile, record.OriginalFilename),
				logging.String("canonical_name", record.CanonicalName),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check staging directory permissions"),
				logging.String(logging.FieldImpact, "file left in staging under its original name"),
			)
			failures = append(failures, Failure{Filename: record.OriginalFilename, Err: err})
			continue
		}
		file.current = target
		logger.Debug("staged file renamed",
			logging.String(logging.FieldFile, record.OriginalFilename),
			logging.String("staged_name", filepath.Base(target)),
		)
		renamed = append(renamed, Renamed{Record: record, Path: target})
	}
	return renamed, failures
}

// Plan builds the library moves for renamed files.
func (e *Executor) Plan(renamed []Renamed) []Move {
	plan := make([]Move, 0, len(renamed))
	for _, item := range renamed {
		plan = append(plan, Move{
			Record:      item.Record,
			Source:      item.Path,
			Destination: filepath.Join(e.libraryRoot, item.Record.RelativeDir(), filepath.Base(item.Path)),
		})
	}
	return plan
}

// Archive asks for confirmation of the whole plan and then moves each file
// into the library. A declined or failed confirmation moves nothing. The
// returned error is non-nil only when the context ends; files not yet moved
// stay in staging.
func (e *Executor) Archive(ctx context.Context, renamed []Renamed) (Report, error) {
	ctx = services.WithPhase(ctx, "archive")
	logger := logging.WithContext(ctx, e.logger)

	plan := e.Plan(renamed)
	report := Report{Planned: len(plan)}
	if len(plan) == 0 {
		return report, nil
	}

	approved, err := e.confirm(ctx, plan)
	if err != nil {
		if isContextErr(err) {
			return report, err
		}
		logging.WarnWithContext(logger, "archive confirmation failed", "archive_confirm_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "rerun interactively or pass --yes"),
			logging.String(logging.FieldImpact, "nothing archived"),
		)
		approved = false
	}
	if !approved {
		report.Declined = true
		logger.Info("archive declined", logging.Int("planned", len(plan)))
		return report, nil
	}

	e.claimed = make(map[string]struct{}, len(plan))
	for _, move := range plan {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		archived, skipped, err := e.apply(ctx, logger, move)
		if err != nil {
			return report, err
		}
		if skipped != nil {
			report.Skipped = append(report.Skipped, *skipped)
			continue
		}
		report.Archived = append(report.Archived, *archived)
	}

	logger.Info("archive complete",
		logging.Int("planned", report.Planned),
		logging.Int("archived", len(report.Archived)),
		logging.Int("skipped", len(report.Skipped)),
	)
	return report, nil
}

func (e *Executor) confirm(ctx context.Context, plan []Move) (bool, error) {
	if e.confirmer == nil {
		return false, services.Wrap(services.ErrAborted, "archive", "confirm", "no confirmer configured", nil)
	}
	return e.confirmer.ConfirmArchive(ctx, plan)
}

// apply performs one move. It returns exactly one of archived or skipped
// unless the context ended.
func (e *Executor) apply(ctx context.Context, logger *slog.Logger, move Move) (*Archived, *Skipped, error) {
	logger = logger.With(logging.String(logging.FieldFile, move.Record.OriginalFilename))

	existing := move.Destination
	isDir := false
	if move.Record.Kind == reconcile.KindMovie {
		existing = filepath.Dir(move.Destination)
		isDir = true
	}

	if _, ok := e.claimed[existing]; ok {
		conflict := services.Wrap(services.ErrConflict, "archive", "collision", existing, ErrDuplicateInRun)
		logger.Info("destination already filled by this run; skipping",
			logging.Args(append(logging.DecisionAttrs("archive_collision", string(CollisionSkip), "duplicate in run"),
				logging.String("existing", existing),
			)...)...)
		return nil, &Skipped{Move: move, Reason: "duplicate of a file archived in this run", Err: conflict}, nil
	}

	present, err := fileutil.Exists(existing)
	if err != nil {
		return nil, e.skip(logger, move, "destination check failed", err), nil
	}

	overwrote := false
	if present {
		action, err := e.resolve(ctx, Collision{Move: move, Existing: existing, IsDir: isDir})
		if err != nil && isContextErr(err) {
			return nil, nil, err
		}
		if action != CollisionOverwrite {
			conflict := services.Wrap(services.ErrConflict, "archive", "collision", existing, err)
			logger.Info("destination exists; skipping",
				logging.Args(append(logging.DecisionAttrs("archive_collision", string(CollisionSkip), "destination exists"),
					logging.String("existing", existing),
				)...)...)
			return nil, &Skipped{Move: move, Reason: "destination exists", Err: conflict}, nil
		}
		trashed, err := e.trash.Discard(existing)
		if err != nil {
			return nil, e.skip(logger, move, "could not trash existing destination", err), nil
		}
		overwrote = true
		logger.Info("existing destination moved to trash",
			logging.Args(append(logging.DecisionAttrs("archive_collision", string(CollisionOverwrite), "operator chose overwrite"),
				logging.String("existing", existing),
				logging.String("trash_path", trashed),
			)...)...)
	}

	if err := fileutil.MovePath(move.Source, move.Destination); err != nil {
		return nil, e.skip(logger, move, "move failed", err), nil
	}
	if file, ok := e.byName[move.Record.OriginalFilename]; ok {
		file.archived = true
	}
	e.claimed[existing] = struct{}{}
	logger.Info("file archived",
		logging.String("destination", move.Destination),
		logging.Bool("overwrote", overwrote),
	)
	e.record(ctx, logger, move, overwrote)
	return &Archived{Move: move, Overwrote: overwrote}, nil, nil
}

func (e *Executor) resolve(ctx context.Context, collision Collision) (CollisionAction, error) {
	if e.resolver == nil {
		return CollisionSkip, nil
	}
	action, err := e.resolver.ResolveCollision(ctx, collision)
	if err != nil {
		return CollisionSkip, err
	}
	return action, nil
}

func (e *Executor) skip(logger *slog.Logger, move Move, reason string, err error) *Skipped {
	logging.WarnWithContext(logger, "archive move skipped", "archive_skipped",
		logging.String("reason", reason),
		logging.String("destination", move.Destination),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check library permissions and free space"),
		logging.String(logging.FieldImpact, "file left in staging"),
	)
	return &Skipped{Move: move, Reason: reason, Err: err}
}

func (e *Executor) record(ctx context.Context, logger *slog.Logger, move Move, overwrote bool) {
	if e.history == nil {
		return
	}
	runID, _ := services.RunIDFromContext(ctx)
	_, err := e.history.Add(ctx, history.Entry{
		RunID:        runID,
		Kind:         string(move.Record.Kind),
		OriginalName: move.Record.OriginalFilename,
		ArchivedName: filepath.Base(move.Destination),
		Destination:  move.Destination,
		ExternalID:   move.Record.ExternalID,
		Overwrote:    overwrote,
		ArchivedAt:   time.Now(),
	})
	if err != nil {
		logging.WarnWithContext(logger, "archive history write failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, fmt.Sprintf("check state_dir; the file is archived at %s", move.Destination)),
			logging.String(logging.FieldImpact, "history incomplete"),
		)
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
