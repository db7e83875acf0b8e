// Package lock guarantees a single flatdir run per root directory.
package lock

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process is flattening the same root.
var ErrLocked = errors.New("another flatten of this directory is in progress")

// RootLock is an exclusive advisory lock tied to one root directory.
// The lock file lives outside the root so it never becomes part of the
// flattened tree.
type RootLock struct {
	flock *flock.Flock
	root  string
}

// PathFor returns the lock file location used for root.
func PathFor(dir, root string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(root)))
	return filepath.Join(dir, fmt.Sprintf("flatdir-%x.lock", sum[:8]))
}

// Acquire takes the lock for root without blocking, placing the lock file
// in the OS temp directory.
func Acquire(root string) (*RootLock, error) {
	return AcquireIn(os.TempDir(), root)
}

// AcquireIn is Acquire with an explicit lock directory.
func AcquireIn(dir, root string) (*RootLock, error) {
	fl := flock.New(PathFor(dir, root))
	acquired, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to try lock for %s: %w", root, err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: %s", ErrLocked, root)
	}
	return &RootLock{flock: fl, root: root}, nil
}

// Release unlocks. The lock file is left behind: removing it would let a
// waiter lock an unlinked inode while a newcomer locks a fresh file.
func (l *RootLock) Release() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.root, err)
	}
	return nil
}
