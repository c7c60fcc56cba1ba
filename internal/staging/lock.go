package staging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// LockFileName is the advisory lock file created inside the staging directory.
const LockFileName = ".mediasort.lock"

// ErrLocked reports that another run already holds the staging lock.
var ErrLocked = errors.New("staging directory is in use by another mediasort run")

// Lock is a held staging lock.
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire takes the staging lock without blocking.
func Acquire(stagingDir string) (*Lock, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil, errors.New("staging directory not configured")
	}
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}

	path := filepath.Join(stagingDir, LockFileName)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire staging lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrLocked, path)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release drops the lock. Safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release staging lock: %w", err)
	}
	return nil
}

// IsLockFile reports whether name is the staging lock file.
func IsLockFile(name string) bool {
	return name == LockFileName
}
