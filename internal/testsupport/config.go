package testsupport

import (
	"path/filepath"
	"testing"

	"mediasort/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Retries back off by a millisecond and the size threshold is zero so small
// fixture files are staged.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.MovieDownloadDir = filepath.Join(base, "downloads", "movies")
	cfgVal.Paths.TVDownloadDir = filepath.Join(base, "downloads", "tv")
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.LibraryDir = filepath.Join(base, "library")
	cfgVal.Paths.TrashDir = filepath.Join(base, "trash")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LedgerFile = filepath.Join(base, "state", "failed.txt")
	cfgVal.Media.MinFileSizeMB = 0
	cfgVal.TMDB.APIKey = "test"
	cfgVal.TMDB.RequestsPerSecond = 0
	cfgVal.TVMaze.RequestsPerSecond = 0
	cfgVal.Retry.BackoffUnitMS = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTMDBKey sets the TMDB API key on the test config.
func WithTMDBKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.APIKey = key
	}
}

// WithServiceURLs points both metadata clients at test servers.
func WithServiceURLs(tmdbURL, tvmazeURL string) ConfigOption {
	return func(b *configBuilder) {
		if tmdbURL != "" {
			b.cfg.TMDB.BaseURL = tmdbURL
		}
		if tvmazeURL != "" {
			b.cfg.TVMaze.BaseURL = tvmazeURL
		}
	}
}

// WithMinFileSizeMB sets the staging size threshold.
func WithMinFileSizeMB(mb int64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Media.MinFileSizeMB = mb
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
