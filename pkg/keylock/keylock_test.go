package keylock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockUnlockSingleKey(t *testing.T) {
	r := New()
	require.NoError(t, r.Lock(context.Background(), Key("CC-X", "rice")))
	r.Unlock(Key("CC-X", "rice"))

	// Key should be evicted once idle.
	r.mu.Lock()
	assert.Empty(t, r.keys)
	r.mu.Unlock()
}

func TestDisjointKeysDoNotBlock(t *testing.T) {
	r := New()
	ctx := context.Background()
	require.NoError(t, r.Lock(ctx, Key("CC-X", "rice")))

	done := make(chan struct{})
	go func() {
		if err := r.Lock(ctx, Key("CC-Y", "rice")); err == nil {
			r.Unlock(Key("CC-Y", "rice"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disjoint key blocked")
	}
	r.Unlock(Key("CC-X", "rice"))
}

func TestFIFOHandoff(t *testing.T) {
	r := New()
	ctx := context.Background()
	key := Key("CC-X", "rice")
	require.NoError(t, r.Lock(ctx, key))

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	ready := make(chan struct{}, 3)

	for i := 1; i <= 3; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ready <- struct{}{}
			// Stagger arrival so the waiter queue order is deterministic.
			time.Sleep(time.Duration(n) * 50 * time.Millisecond)
			require.NoError(t, r.Lock(ctx, key))
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			r.Unlock(key)
		}(i)
	}

	for i := 0; i < 3; i++ {
		<-ready
	}
	time.Sleep(250 * time.Millisecond)
	r.Unlock(key)
	wg.Wait()

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestLockCancellation(t *testing.T) {
	r := New()
	key := Key("CC-X", "rice")
	require.NoError(t, r.Lock(context.Background(), key))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := r.Lock(ctx, key)
	require.Error(t, err)

	// Holder can still release and relock.
	r.Unlock(key)
	require.NoError(t, r.Lock(context.Background(), key))
	r.Unlock(key)
}
