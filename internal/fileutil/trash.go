package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Trash moves paths into a dated holding directory instead of deleting them.
type Trash struct {
	root string
	now  func() time.Time
}

// NewTrash returns a Trash rooted at root.
func NewTrash(root string) (*Trash, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("trash directory not configured")
	}
	return &Trash{root: root, now: time.Now}, nil
}

// Root returns the trash root directory.
func (t *Trash) Root() string {
	return t.root
}

// Discard moves path into <root>/<timestamp>/ and returns its new location.
func (t *Trash) Discard(path string) (string, error) {
	bucket := filepath.Join(t.root, t.now().UTC().Format("20060102T150405Z"))
	if err := os.MkdirAll(bucket, 0o755); err != nil {
		return "", fmt.Errorf("create trash bucket: %w", err)
	}
	target, err := UniquePath(bucket, filepath.Base(path))
	if err != nil {
		return "", err
	}
	if err := MovePath(path, target); err != nil {
		return "", fmt.Errorf("move %s to trash: %w", path, err)
	}
	return target, nil
}

// DiscardContents trashes every entry inside dir, leaving dir itself in place.
// It keeps going after individual failures and returns the trashed paths and
// the entries it could not move.
func (t *Trash) DiscardContents(dir string, keep func(name string) bool) ([]string, map[string]error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, map[string]error{dir: err}
	}
	var moved []string
	failed := map[string]error{}
	for _, entry := range entries {
		if keep != nil && keep(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		target, err := t.Discard(path)
		if err != nil {
			failed[path] = err
			continue
		}
		moved = append(moved, target)
	}
	if len(failed) == 0 {
		failed = nil
	}
	return moved, failed
}
