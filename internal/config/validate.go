package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. The TMDB key is checked
// separately by RequireTMDB so TV-only runs work without it.
func (c *Config) Validate() error {
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateServices(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// RequireTMDB reports a helpful error when movie sorting is requested without an API key.
func (c *Config) RequireTMDB() error {
	if c.TMDB.APIKey != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'mediasort config init')", defaultPath)
}

func (c *Config) validateLibrary() error {
	if c.Library.MoviesDir == "" {
		return errors.New("library.movies_dir must be set")
	}
	if c.Library.TVDir == "" {
		return errors.New("library.tv_dir must be set")
	}
	if c.Paths.StagingDir == c.Paths.MovieDownloadDir || c.Paths.StagingDir == c.Paths.TVDownloadDir {
		return errors.New("paths.staging_dir must differ from the download directories")
	}
	if c.Paths.StagingDir == c.MoviesRoot() || c.Paths.StagingDir == c.TVRoot() {
		return errors.New("paths.staging_dir must differ from the archive directories")
	}
	return nil
}

func (c *Config) validateMedia() error {
	if len(c.Media.Extensions) == 0 {
		return errors.New("media.extensions must list at least one extension")
	}
	if c.Media.MinFileSizeMB < 0 {
		return errors.New("media.min_file_size_mb must be zero or positive")
	}
	return nil
}

func (c *Config) validateServices() error {
	if c.TVMaze.UserAgent == "" {
		return errors.New("tvmaze.user_agent must be set; TVmaze rejects anonymous clients")
	}
	if c.TMDB.RequestsPerSecond < 0 || c.TVMaze.RequestsPerSecond < 0 {
		return errors.New("requests_per_second must be zero (unlimited) or positive")
	}
	if c.Retry.Attempts < 1 {
		return errors.New("retry.attempts must be at least 1")
	}
	if c.Retry.BackoffUnitMS < 0 {
		return errors.New("retry.backoff_unit_ms must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
