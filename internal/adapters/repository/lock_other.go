//go:build !unix

package repository

import (
	"context"
	"sync"
)

// FileLock degrades to an in-process mutex where flock is unavailable.
type FileLock struct {
	mu sync.Mutex
}

// NewFileLock returns a lock; path is unused on this platform.
func NewFileLock(string) *FileLock {
	return &FileLock{}
}

// Lock takes the mutex. ctx is checked once before blocking.
func (l *FileLock) Lock(ctx context.Context) (func() error, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	return func() error { l.mu.Unlock(); return nil }, nil
}
