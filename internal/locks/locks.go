// Package locks provides inter-process mutual exclusion on output directories.
package locks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/speakeasy-api/scaffold/internal/singleton"
)

// LockFileName is created inside every directory a sink writes to.
const LockFileName = ".scaffold.lock"

// DirMutex provides file-based mutual exclusion between processes writing the same directory.
// The lock is automatically released if the holding process dies.
//
// See:
//   - Linux: https://linux.die.net/man/2/flock
//   - Windows: https://docs.microsoft.com/en-us/windows/win32/api/fileapi/nf-fileapi-lockfileex
type DirMutex struct {
	Dir string
	mu  *flock.Flock
}

func newDirMutex(dir string) *DirMutex {
	return &DirMutex{Dir: dir, mu: flock.New(filepath.Join(dir, LockFileName))}
}

var dirMutexes = singleton.NewKeyed(newDirMutex)

// ForDir returns the mutex for dir. Callers in the same process share one instance per
// directory.
func ForDir(dir string) *DirMutex {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return dirMutexes(dir)
}

func (m *DirMutex) Path() string {
	return m.mu.Path()
}

type TryLockResult struct {
	Attempt int
	Error   error
	Success bool
}

// TryLock keeps trying to take the lock every retryDelay, reporting each attempt, until it
// succeeds, fails or ctx is done.
func (m *DirMutex) TryLock(ctx context.Context, retryDelay time.Duration) <-chan TryLockResult {
	ch := make(chan TryLockResult)
	go func() {
		for attempt := 0; ; attempt++ {
			ok, err := m.mu.TryLock()
			if err != nil {
				ch <- TryLockResult{Attempt: attempt, Error: fmt.Errorf("failed to acquire lock on %s (pid %d): %w", m.Dir, os.Getpid(), err)}
				return
			}
			if ok {
				ch <- TryLockResult{Attempt: attempt, Success: true}
				return
			}

			select {
			case <-ctx.Done():
				ch <- TryLockResult{Attempt: attempt, Error: ctx.Err()}
				return
			case <-time.After(retryDelay):
				ch <- TryLockResult{Attempt: attempt, Success: false}
			}
		}
	}()
	return ch
}

// Lock blocks until the lock is held, the timeout elapses or ctx is done.
func (m *DirMutex) Lock(ctx context.Context, retryDelay, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for result := range m.TryLock(ctx, retryDelay) {
		if result.Error != nil {
			return result.Error
		}
		if result.Success {
			return nil
		}
	}
	return nil
}

func (m *DirMutex) Unlock() error {
	return m.mu.Unlock()
}
