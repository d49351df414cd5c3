package locks

import (
	"context"
	"sync"
	"time"
)

// Locker serializes work bound to a key. Every state-machine step and
// finalize trigger for a session runs under the session's lock, which is what
// enforces the single-writer-per-session rule.
type Locker interface {
	// Acquire blocks until the lock is held or ctx is done. The returned
	// release func must be called exactly once.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

type localLock struct {
	mu   sync.Mutex
	refs int
}

// LocalLocker is an in-process keyed mutex. It is enough for a single
// orchestrator instance and for tests; multi-instance deployments use
// RedisLocker. Entries are reference-counted and dropped once the last
// holder or waiter is gone, so the map does not grow with session count.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localLock
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*localLock)}
}

func (l *LocalLocker) get(key string) *localLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[key]
	if !ok {
		e = &localLock{}
		l.locks[key] = e
	}
	e.refs++
	return e
}

func (l *LocalLocker) put(key string, e *localLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string, _ time.Duration) (func(), error) {
	e := l.get(key)

	acquired := make(chan struct{})
	go func() {
		e.mu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		return func() {
			e.mu.Unlock()
			l.put(key, e)
		}, nil
	case <-ctx.Done():
		// the goroutine still gets the mutex eventually; release it then
		go func() {
			<-acquired
			e.mu.Unlock()
			l.put(key, e)
		}()
		return nil, ctx.Err()
	}
}
