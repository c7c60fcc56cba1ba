package staging

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Entry describes one item currently sitting in staging.
type Entry struct {
	Name    string
	Path    string
	IsDir   bool
	ModTime time.Time
	Size    int64
}

// ListEntries returns everything in the staging directory except the lock
// file, oldest first. A missing directory yields no entries.
func ListEntries(stagingDir string) ([]Entry, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil, nil
	}

	dirEntries, err := os.ReadDir(stagingDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	for _, entry := range dirEntries {
		if IsLockFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(stagingDir, entry.Name())
		size := info.Size()
		if entry.IsDir() {
			size, _ = dirSize(path)
		}
		entries = append(entries, Entry{
			Name:    entry.Name(),
			Path:    path,
			IsDir:   entry.IsDir(),
			ModTime: info.ModTime(),
			Size:    size,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].ModTime.Equal(entries[j].ModTime) {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].ModTime.Before(entries[j].ModTime)
	})
	return entries, nil
}

// IsEmpty reports whether staging holds nothing but the lock file.
func IsEmpty(stagingDir string) (bool, error) {
	entries, err := ListEntries(stagingDir)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

// dirSize calculates the total size of a directory recursively.
func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // best effort
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
