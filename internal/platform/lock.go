package platform

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the run lock for a target
var ErrLocked = errors.New("another synchronization is already writing to this target")

// RunLock is an advisory, per-target file lock that keeps two processes from
// writing the same target tree at once
type RunLock struct {
	lock *flock.Flock
}

// lockFile returns the lock path for target relative to the runtime directory.
// target should already be resolved with ResolveRoot.
func lockFile(target string) string {
	sum := sha256.Sum256([]byte(target))
	return filepath.Join("drivebridge", "locks", hex.EncodeToString(sum[:8])+".lock")
}

// LockPath returns the lock file used for target under the user runtime directory
func LockPath(target string) string {
	return filepath.Join(xdg.RuntimeDir, lockFile(target))
}

// AcquireRunLock takes the lock for target without blocking
func AcquireRunLock(target string) (*RunLock, error) {
	path, err := xdg.RuntimeFile(lockFile(target))
	if err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock file %s)", ErrLocked, path)
	}

	return &RunLock{lock: lock}, nil
}

// Path returns the lock file path
func (l *RunLock) Path() string {
	return l.lock.Path()
}

// Release unlocks. It is safe to call more than once.
func (l *RunLock) Release() error {
	return l.lock.Unlock()
}
