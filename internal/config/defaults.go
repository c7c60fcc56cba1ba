package config

const (
	defaultConfigPath       = "~/.config/mediasort/config.toml"
	defaultMovieDownloadDir = "~/Downloads/movies"
	defaultTVDownloadDir    = "~/Downloads/tv"
	defaultStagingDir       = "~/.local/share/mediasort/staging"
	defaultLibraryDir       = "~/media"
	defaultTrashDir         = "~/.local/share/mediasort/trash"
	defaultLogDir           = "~/.local/share/mediasort/logs"
	defaultStateDir         = "~/.local/share/mediasort"
	defaultLedgerFile       = "~/.local/share/mediasort/failed.txt"
	defaultMoviesDir        = "movies"
	defaultTVDir            = "tv"
	defaultMinFileSizeMB    = 50
	defaultTMDBBaseURL      = "https://api.themoviedb.org/3"
	defaultTMDBLanguage     = "en-US"
	defaultTMDBRate         = 4
	defaultTVMazeBaseURL    = "https://api.tvmaze.com"
	defaultTVMazeUserAgent  = "mediasort/1.0 (+https://github.com/mediasort/mediasort)"
	defaultTVMazeRate       = 2
	defaultRetryAttempts    = 5
	defaultBackoffUnitMS    = 1000
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogMaxSizeMB     = 10
	defaultLogMaxBackups    = 5
	defaultLogMaxAgeDays    = 60
)

var defaultExtensions = []string{"mkv", "mp4", "avi", "m4v", "mov", "wmv", "ts"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			MovieDownloadDir: defaultMovieDownloadDir,
			TVDownloadDir:    defaultTVDownloadDir,
			StagingDir:       defaultStagingDir,
			LibraryDir:       defaultLibraryDir,
			TrashDir:         defaultTrashDir,
			LogDir:           defaultLogDir,
			StateDir:         defaultStateDir,
			LedgerFile:       defaultLedgerFile,
		},
		Library: Library{
			MoviesDir: defaultMoviesDir,
			TVDir:     defaultTVDir,
		},
		Media: Media{
			Extensions:    append([]string(nil), defaultExtensions...),
			MinFileSizeMB: defaultMinFileSizeMB,
		},
		TMDB: TMDB{
			BaseURL:           defaultTMDBBaseURL,
			Language:          defaultTMDBLanguage,
			RequestsPerSecond: defaultTMDBRate,
		},
		TVMaze: TVMaze{
			BaseURL:           defaultTVMazeBaseURL,
			UserAgent:         defaultTVMazeUserAgent,
			RequestsPerSecond: defaultTVMazeRate,
		},
		Retry: Retry{
			Attempts:      defaultRetryAttempts,
			BackoffUnitMS: defaultBackoffUnitMS,
		},
		Policies: Policies{
			MovieYearWindow:    true,
			MovieDropLastToken: true,
			TVDropLastToken:    true,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
