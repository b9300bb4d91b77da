package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

const (
	lockFileSuffix = ".lock"
)

// RunLock manages a file-based lock guarding a teams output directory.
type RunLock struct {
	lock *flock.Flock
	path string
}

// NewRunLock creates a new lock for the given teams directory. The lock file
// lives next to the directory, not inside it.
func NewRunLock(teamsDir string) (*RunLock, error) {
	absPath, err := filepath.Abs(teamsDir)
	if err != nil {
		return nil, fmt.Errorf("could not get absolute teams path: %w", err)
	}
	lockPath := strings.TrimRight(absPath, string(filepath.Separator)) + lockFileSuffix
	return &RunLock{
		lock: flock.New(lockPath),
		path: lockPath,
	}, nil
}

// Lock acquires the lock, waiting if necessary.
// It will print a message if it has to wait.
func (l *RunLock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory for %s: %w", l.path, err)
	}
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}

	if !locked {
		fmt.Fprintf(os.Stderr, "Another entregas run is writing to the teams directory, waiting for it to finish...\n")
		if err := l.lock.Lock(); err != nil {
			return fmt.Errorf("failed to acquire lock on %s after waiting: %w", l.path, err)
		}
	}
	return nil
}

// Unlock releases the lock.
func (l *RunLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		// Suppress error if the lock file doesn't exist, as it means we don't hold the lock.
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// Path returns the lock file path.
func (l *RunLock) Path() string {
	return l.path
}
