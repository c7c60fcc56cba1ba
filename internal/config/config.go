package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations.
type Paths struct {
	MovieDownloadDir string `toml:"movie_download_dir"`
	TVDownloadDir    string `toml:"tv_download_dir"`
	StagingDir       string `toml:"staging_dir"`
	LibraryDir       string `toml:"library_dir"`
	TrashDir         string `toml:"trash_dir"`
	LogDir           string `toml:"log_dir"`
	StateDir         string `toml:"state_dir"`
	LedgerFile       string `toml:"ledger_file"`
}

// Library contains the archive tree layout below library_dir.
type Library struct {
	MoviesDir string `toml:"movies_dir"`
	TVDir     string `toml:"tv_dir"`
}

// Media contains the staging filter applied to download directories.
type Media struct {
	Extensions    []string `toml:"extensions"`
	MinFileSizeMB int64    `toml:"min_file_size_mb"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	Language          string  `toml:"language"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// TVMaze contains configuration for the TVmaze API.
type TVMaze struct {
	BaseURL           string  `toml:"base_url"`
	UserAgent         string  `toml:"user_agent"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Retry contains the transport retry budget shared by both metadata services.
type Retry struct {
	Attempts      int `toml:"attempts"`
	BackoffUnitMS int `toml:"backoff_unit_ms"`
}

// Policies toggles the named lookup retry heuristics.
type Policies struct {
	MovieYearWindow    bool `toml:"movie_year_window"`
	MovieDropLastToken bool `toml:"movie_drop_last_token"`
	TVDropLastToken    bool `toml:"tv_drop_last_token"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Config encapsulates all configuration values for mediasort.
//
// Configuration sections by subsystem:
//   - Paths: download, staging, archive, trash, and state locations
//   - Library: movie and TV sub-trees of the archive
//   - Media: extension allow-list and minimum size for staging
//   - TMDB / TVMaze: metadata service credentials and rate limits
//   - Retry / Policies: transport retries and named lookup heuristics
//   - Logging: log format, level, and rotation
type Config struct {
	Paths    Paths    `toml:"paths"`
	Library  Library  `toml:"library"`
	Media    Media    `toml:"media"`
	TMDB     TMDB     `toml:"tmdb"`
	TVMaze   TVMaze   `toml:"tvmaze"`
	Retry    Retry    `toml:"retry"`
	Policies Policies `toml:"policies"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mediasort.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the working directories a sort run writes to.
// The library directory is created on a best-effort basis so read-only
// commands still work while external storage is offline.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.TrashDir, c.Paths.LogDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.LibraryDir) != "" {
		_ = os.MkdirAll(c.Paths.LibraryDir, 0o755)
	}
	return nil
}

// MoviesRoot returns the absolute archive root for movies.
func (c *Config) MoviesRoot() string {
	return libraryPath(c.Paths.LibraryDir, c.Library.MoviesDir)
}

// TVRoot returns the absolute archive root for TV shows.
func (c *Config) TVRoot() string {
	return libraryPath(c.Paths.LibraryDir, c.Library.TVDir)
}

// MinFileSizeBytes returns the staging size threshold in bytes.
func (c *Config) MinFileSizeBytes() int64 {
	return c.Media.MinFileSizeMB * 1024 * 1024
}

// BackoffUnit returns the retry back-off base duration.
func (c *Config) BackoffUnit() time.Duration {
	return time.Duration(c.Retry.BackoffUnitMS) * time.Millisecond
}

// HistoryPath returns the archive history database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

func libraryPath(base, sub string) string {
	if filepath.IsAbs(sub) {
		return sub
	}
	return filepath.Join(base, sub)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
