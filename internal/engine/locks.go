package engine

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// circleLocks serializes operations per circle. Entries are dropped once no
// caller holds or waits for them.
type circleLocks struct {
	mu    sync.Mutex
	locks map[string]*circleLock
}

type circleLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newCircleLocks() *circleLocks {
	return &circleLocks{locks: make(map[string]*circleLock)}
}

// acquire blocks until the circle is free or ctx is done. The returned
// function releases the lock.
func (l *circleLocks) acquire(ctx context.Context, circleID string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[circleID]
	if !ok {
		lock = &circleLock{sem: semaphore.NewWeighted(1)}
		l.locks[circleID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	if err := lock.sem.Acquire(ctx, 1); err != nil {
		l.unref(circleID, lock)
		return nil, err
	}

	return func() {
		lock.sem.Release(1)
		l.unref(circleID, lock)
	}, nil
}

func (l *circleLocks) unref(circleID string, lock *circleLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, circleID)
	}
}
