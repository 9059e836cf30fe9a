package ledger

import (
	"fmt"

	"github.com/gofrs/flock"
)

// Lock is an exclusive advisory lock held beside the ledger file for the
// duration of a run.
type Lock struct {
	path string
	lock *flock.Flock
}

// LockPath returns the lock file location for a ledger path.
func LockPath(ledgerPath string) string {
	return ledgerPath + ".lock"
}

// AcquireLock takes the run lock for ledgerPath without blocking. A lock held
// by another process returns ErrLocked.
func AcquireLock(ledgerPath string) (*Lock, error) {
	path := LockPath(ledgerPath)
	l := &Lock{path: path, lock: flock.New(path)}
	ok, err := l.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
	}
	return l, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
