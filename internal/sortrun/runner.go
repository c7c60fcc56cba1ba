package sortrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"mediasort/internal/archive"
	"mediasort/internal/config"
	"mediasort/internal/disambiguate"
	"mediasort/internal/fileutil"
	"mediasort/internal/history"
	"mediasort/internal/identitycache"
	"mediasort/internal/ledger"
	"mediasort/internal/logging"
	"mediasort/internal/metadata"
	"mediasort/internal/metadata/tmdb"
	"mediasort/internal/metadata/tvmaze"
	"mediasort/internal/reconcile"
	"mediasort/internal/services"
	"mediasort/internal/staging"
)

// Operator answers every question a run may ask.
type Operator interface {
	disambiguate.Chooser
	reconcile.ManualInput
	archive.CollisionResolver
	archive.Confirmer
}

// Runner coordinates sort runs for one configuration.
type Runner struct {
	cfg        *config.Config
	operator   Operator
	logger     *slog.Logger
	httpClient *http.Client
}

// Option configures optional Runner behavior.
type Option func(*Runner)

// WithHTTPClient routes metadata requests through client.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Runner) {
		if client != nil {
			r.httpClient = client
		}
	}
}

// New constructs a Runner.
func New(cfg *config.Config, operator Operator, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("sortrun: config required")
	}
	if operator == nil {
		return nil, errors.New("sortrun: operator required")
	}
	r := &Runner{
		cfg:      cfg,
		operator: operator,
		logger:   logging.NewComponentLogger(logger, "sortrun"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Filter returns the staging filter described by cfg.
func Filter(cfg *config.Config) archive.Filter {
	return archive.Filter{
		Extensions:   append([]string(nil), cfg.Media.Extensions...),
		MinSizeBytes: cfg.MinFileSizeBytes(),
	}
}

// StagingDir returns the per-kind staging directory below the staging root.
func StagingDir(cfg *config.Config, kind reconcile.Kind) string {
	if kind == reconcile.KindEpisode {
		return filepath.Join(cfg.Paths.StagingDir, "tv")
	}
	return filepath.Join(cfg.Paths.StagingDir, "movies")
}

// Run performs one sort run over kinds in order. Per-file failures are
// reported in the Summary; the error is non-nil only when the run could not
// start or the context ended.
func (r *Runner) Run(ctx context.Context, kinds ...reconcile.Kind) (Summary, error) {
	started := time.Now()
	summary := Summary{RunID: services.NewRunID()}
	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, r.logger)

	if len(kinds) == 0 {
		return summary, services.Wrap(services.ErrValidation, "sortrun", "run", "no media kind selected", nil)
	}
	if err := r.cfg.EnsureDirectories(); err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "sortrun", "run", "prepare directories", err)
	}

	lock, err := staging.Acquire(r.cfg.Paths.StagingDir)
	if err != nil {
		return summary, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logging.WarnWithContext(logger, "staging lock release failed", "lock_release_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove "+lock.Path()+" if no run is active"),
				logging.String(logging.FieldImpact, "next run may report the staging directory as locked"),
			)
		}
	}()

	env, err := r.open(kinds)
	if err != nil {
		return summary, err
	}
	defer env.close(logger)

	logger.Info("sort run started",
		logging.Int("kinds", len(kinds)),
		logging.String("ledger", env.ledger.Path()),
		logging.Int("ledger_entries", env.ledger.Len()),
	)

	for _, kind := range kinds {
		result, err := r.runKind(ctx, env, kind)
		summary.Kinds = append(summary.Kinds, result)
		if err != nil {
			summary.Duration = time.Since(started)
			return summary, err
		}
	}

	summary.Cache = env.reconciler.CacheStats()
	summary.Duration = time.Since(started)
	logger.Info("sort run finished",
		logging.Int("archived", summary.Archived()),
		logging.Int("failed", summary.Failed()),
		logging.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// runEnv holds the resources shared by the kinds of one run.
type runEnv struct {
	ledger     *ledger.Ledger
	history    *history.Store
	trash      *fileutil.Trash
	reconciler *reconcile.Reconciler
}

func (e *runEnv) close(logger *slog.Logger) {
	if err := e.history.Close(); err != nil {
		logger.Warn("history close failed", logging.Error(err))
	}
}

func (r *Runner) open(kinds []reconcile.Kind) (*runEnv, error) {
	failures, err := ledger.Open(r.cfg.Paths.LedgerFile)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "sortrun", "open ledger", r.cfg.Paths.LedgerFile, err)
	}
	trash, err := fileutil.NewTrash(r.cfg.Paths.TrashDir)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "sortrun", "open trash", r.cfg.Paths.TrashDir, err)
	}

	opts := reconcile.Options{
		Chooser: r.operator,
		Input:   r.operator,
		Ledger:  failures,
		Cache:   identitycache.New(),
		YearWindow: metadata.YearWindow{
			Window:        r.cfg.Policies.MovieYearWindow,
			DropLastToken: r.cfg.Policies.MovieDropLastToken,
		},
		ShowPolicy: metadata.DropLastToken{Enabled: r.cfg.Policies.TVDropLastToken},
		Logger:     r.logger,
	}
	retry := metadata.RetryPolicy{Attempts: r.cfg.Retry.Attempts, BackoffUnit: r.cfg.BackoffUnit()}
	for _, kind := range kinds {
		switch kind {
		case reconcile.KindMovie:
			if opts.Movies != nil {
				continue
			}
			if err := r.cfg.RequireTMDB(); err != nil {
				return nil, services.Wrap(services.ErrConfiguration, "sortrun", "tmdb", "api key missing", err)
			}
			client, err := tmdb.New(r.cfg.TMDB.APIKey, r.cfg.TMDB.BaseURL, r.cfg.TMDB.Language,
				tmdb.WithHTTPClient(r.httpClient),
				tmdb.WithRetryPolicy(retry),
				tmdb.WithRateLimit(r.cfg.TMDB.RequestsPerSecond),
				tmdb.WithLogger(r.logger),
			)
			if err != nil {
				return nil, services.Wrap(services.ErrConfiguration, "sortrun", "tmdb", "build client", err)
			}
			opts.Movies = client
		case reconcile.KindEpisode:
			if opts.Shows != nil {
				continue
			}
			client, err := tvmaze.New(r.cfg.TVMaze.BaseURL, r.cfg.TVMaze.UserAgent,
				tvmaze.WithHTTPClient(r.httpClient),
				tvmaze.WithRetryPolicy(retry),
				tvmaze.WithRateLimit(r.cfg.TVMaze.RequestsPerSecond),
				tvmaze.WithLogger(r.logger),
			)
			if err != nil {
				return nil, services.Wrap(services.ErrConfiguration, "sortrun", "tvmaze", "build client", err)
			}
			opts.Shows = client
		default:
			return nil, services.Wrap(services.ErrValidation, "sortrun", "run", fmt.Sprintf("unknown media kind %q", kind), nil)
		}
	}

	store, err := history.Open(r.cfg.HistoryPath())
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "sortrun", "open history", r.cfg.HistoryPath(), err)
	}

	return &runEnv{
		ledger:     failures,
		history:    store,
		trash:      trash,
		reconciler: reconcile.New(opts),
	}, nil
}

func (r *Runner) runKind(ctx context.Context, env *runEnv, kind reconcile.Kind) (KindSummary, error) {
	result := KindSummary{Kind: kind}
	downloadDir, libraryRoot := r.cfg.Paths.MovieDownloadDir, r.cfg.MoviesRoot()
	if kind == reconcile.KindEpisode {
		downloadDir, libraryRoot = r.cfg.Paths.TVDownloadDir, r.cfg.TVRoot()
	}

	executor, err := archive.New(archive.Options{
		DownloadDir: downloadDir,
		StagingDir:  StagingDir(r.cfg, kind),
		LibraryRoot: libraryRoot,
		Filter:      Filter(r.cfg),
		Trash:       env.trash,
		Confirmer:   r.operator,
		Resolver:    r.operator,
		History:     env.history,
		Logger:      r.logger,
	})
	if err != nil {
		return result, services.Wrap(services.ErrConfiguration, "sortrun", string(kind), "build executor", err)
	}

	staged, err := executor.Stage(ctx)
	result.Staged = len(staged)
	result.StageFailures = executor.StageFailures()
	if err != nil {
		return result, err
	}
	if len(staged) == 0 {
		r.logger.Info("nothing to sort", logging.String("kind", string(kind)), logging.String("download_dir", downloadDir))
		return result, nil
	}

	names := make([]string, 0, len(staged))
	for _, raw := range staged {
		names = append(names, raw.Filename)
	}
	outcomes, err := env.reconciler.Run(ctx, kind, names)
	result.Outcomes = outcomes
	if err != nil {
		return result, err
	}

	var records []reconcile.Record
	for _, outcome := range outcomes {
		if outcome.Identified() {
			records = append(records, *outcome.Record)
		}
	}
	renamed, failures := executor.Rename(ctx, records)
	result.RenameFailures = failures

	report, err := executor.Archive(ctx, renamed)
	result.Report = report
	if err != nil {
		return result, err
	}
	result.Cleanup = executor.Cleanup(ctx, report)
	return result, nil
}
