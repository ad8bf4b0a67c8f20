package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

var (
	// ErrLockTimeout indicates the lock acquisition timed out
	ErrLockTimeout = errors.New("lock acquisition timed out")

	// ErrLocked indicates another process holds the lock
	ErrLocked = errors.New("content directory is locked by another process")
)

// DirLock is an exclusive flock(2) lock on a content directory.
// Writers (scrape, local index rebuild) hold it for the duration of their
// write; the kernel releases it if the holder dies.
type DirLock struct {
	path string
	file *os.File
}

// NewDirLock creates a lock backed by the file at path.
func NewDirLock(path string) *DirLock {
	return &DirLock{path: path}
}

// TryLock attempts to take the lock without blocking.
// It returns false, nil when the lock is held elsewhere.
func (l *DirLock) TryLock() (bool, error) {
	if err := l.open(); err != nil {
		return false, err
	}

	ok, err := l.flock()
	if err != nil || !ok {
		l.release()
	}
	return ok, err
}

// Wait blocks until the lock is taken, the timeout expires or ctx is done.
func (l *DirLock) Wait(ctx context.Context, timeout time.Duration) error {
	if err := l.open(); err != nil {
		return err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	backoff := 10 * time.Millisecond
	for {
		ok, err := l.flock()
		if err != nil {
			l.release()
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			l.release()
			return ctx.Err()
		case <-timer.C:
			l.release()
			return ErrLockTimeout
		case <-time.After(backoff):
			backoff = min(backoff*2, 500*time.Millisecond)
		}
	}
}

// Unlock releases the lock. Unlocking an unlocked DirLock is a no-op.
func (l *DirLock) Unlock() error {
	if l.file == nil {
		return nil
	}

	err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil

	if err != nil {
		return fmt.Errorf("flock unlock failed: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("close failed: %w", closeErr)
	}
	return nil
}

// IsLocked reports whether this instance holds the lock.
func (l *DirLock) IsLocked() bool {
	return l.file != nil
}

// Path returns the lock file path.
func (l *DirLock) Path() string {
	return l.path
}

func (l *DirLock) flock() (bool, error) {
	err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, syscall.EWOULDBLOCK) {
		return false, nil
	}
	return false, fmt.Errorf("flock failed: %w", err)
}

func (l *DirLock) open() error {
	if l.file != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}
	l.file = file
	return nil
}

func (l *DirLock) release() {
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}
