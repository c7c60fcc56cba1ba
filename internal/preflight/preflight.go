package preflight

import (
	"context"

	"mediasort/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Scope selects which media kinds a run touches.
type Scope struct {
	Movies bool
	TV     bool
}

// RunAll executes the checks needed by a run over scope.
func RunAll(ctx context.Context, cfg *config.Config, scope Scope) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Staging, trash, and the library are always written to. Download
	// directories may be absent; staging treats that as nothing to do.
	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	results = append(results, CheckDirectoryAccess("Trash directory", cfg.Paths.TrashDir))
	results = append(results, CheckDirectoryAccess("Library directory", cfg.Paths.LibraryDir))

	if scope.Movies {
		results = append(results, CheckTMDB(ctx, cfg.TMDB.BaseURL, cfg.TMDB.APIKey))
	}
	if scope.TV {
		results = append(results, CheckTVMaze(ctx, cfg.TVMaze.BaseURL, cfg.TVMaze.UserAgent))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
