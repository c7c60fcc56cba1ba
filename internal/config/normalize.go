package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMedia()
	c.normalizeTMDB()
	c.normalizeTVMaze()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name     string
		value    *string
		fallback string
	}{
		{"paths.movie_download_dir", &c.Paths.MovieDownloadDir, defaultMovieDownloadDir},
		{"paths.tv_download_dir", &c.Paths.TVDownloadDir, defaultTVDownloadDir},
		{"paths.staging_dir", &c.Paths.StagingDir, defaultStagingDir},
		{"paths.library_dir", &c.Paths.LibraryDir, defaultLibraryDir},
		{"paths.trash_dir", &c.Paths.TrashDir, defaultTrashDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.state_dir", &c.Paths.StateDir, defaultStateDir},
		{"paths.ledger_file", &c.Paths.LedgerFile, defaultLedgerFile},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	c.Library.MoviesDir = strings.TrimSpace(c.Library.MoviesDir)
	c.Library.TVDir = strings.TrimSpace(c.Library.TVDir)
	return nil
}

func (c *Config) normalizeMedia() {
	seen := make(map[string]struct{}, len(c.Media.Extensions))
	exts := make([]string, 0, len(c.Media.Extensions))
	for _, ext := range c.Media.Extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext == "" {
			continue
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	c.Media.Extensions = exts
}

func (c *Config) normalizeTMDB() {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = value
		}
	}
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimSpace(c.TMDB.BaseURL)
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
}

func (c *Config) normalizeTVMaze() {
	if value, ok := os.LookupEnv("MEDIASORT_TVMAZE_USER_AGENT"); ok && strings.TrimSpace(value) != "" {
		c.TVMaze.UserAgent = value
	}
	c.TVMaze.UserAgent = strings.TrimSpace(c.TVMaze.UserAgent)
	c.TVMaze.BaseURL = strings.TrimSpace(c.TVMaze.BaseURL)
	if c.TVMaze.BaseURL == "" {
		c.TVMaze.BaseURL = defaultTVMazeBaseURL
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
