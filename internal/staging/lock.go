package staging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"footage/internal/services"
)

// LockName is the lock file created at the staging root.
const LockName = ".footage.lock"

// ErrLocked is returned when another footage process holds the staging lock.
var ErrLocked = fmt.Errorf("staging root is locked by another footage process: %w", services.ErrValidation)

// Lock is an exclusive advisory lock on a staging tree. Plan and transfer
// hold it for the whole run so two invocations never write the same tree.
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire takes the staging lock without waiting.
func Acquire(root string) (*Lock, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create staging root: %w", err)
	}
	path := filepath.Join(root, LockName)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{path: path, lock: lock}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks the staging tree. The lock file itself is left in place.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
