package locks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerSerializesSameKey(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	const n = 20
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, "lock:session:abc", time.Second)
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			v := counter
			time.Sleep(time.Millisecond)
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, n, counter)
}

func TestLocalLockerIndependentKeys(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	releaseA, err := l.Acquire(ctx, "a", time.Second)
	require.NoError(t, err)
	defer releaseA()

	// a different key must not block behind "a"
	done := make(chan struct{})
	go func() {
		releaseB, err := l.Acquire(ctx, "b", time.Second)
		assert.NoError(t, err)
		releaseB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquire on an independent key blocked")
	}
}

func TestLocalLockerDropsIdleEntries(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "lock:session:abc", time.Second)
	require.NoError(t, err)

	l.mu.Lock()
	assert.Len(t, l.locks, 1)
	l.mu.Unlock()

	release()

	l.mu.Lock()
	assert.Empty(t, l.locks, "released keys must not accumulate")
	l.mu.Unlock()
}

func TestLocalLockerDropsAbandonedWaiters(t *testing.T) {
	l := NewLocalLocker()

	release, err := l.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "k", time.Second)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	release()

	// the abandoned waiter's cleanup goroutine drops the last reference
	assert.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return len(l.locks) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestLocalLockerContextCancel(t *testing.T) {
	l := NewLocalLocker()

	release, err := l.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.Acquire(ctx, "k", time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()

	// the lock is usable again after the abandoned acquire cleans up
	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	release2, err := l.Acquire(ctx2, "k", time.Second)
	require.NoError(t, err)
	release2()
}
