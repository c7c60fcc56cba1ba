package preflight

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"mediasort/internal/archive"
)

// Backlog counts the files in a download directory that a run would stage.
type Backlog struct {
	Name  string
	Dir   string
	Files int
	Bytes int64
	Err   error
}

// CountBacklog walks dir and applies filter to every regular file. A missing
// directory counts as empty.
func CountBacklog(name, dir string, filter archive.Filter) Backlog {
	backlog := Backlog{Name: name, Dir: dir}
	if dir == "" {
		return backlog
	}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = d.Name()
		}
		if ok, _ := filter.Accept(rel, info.Size()); ok {
			backlog.Files++
			backlog.Bytes += info.Size()
		}
		return nil
	})
	if err != nil {
		backlog.Err = err
	}
	return backlog
}
