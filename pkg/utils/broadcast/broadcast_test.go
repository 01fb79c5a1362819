package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
	var zero T
	return zero
}

func TestBroadcast(t *testing.T) {
	source := make(chan int)
	b := NewBroadcastServer("test", source)
	defer b.Close()

	l1 := b.Subscribe()
	l2 := b.Subscribe()
	go func() { source <- 42 }()

	assert.Equal(t, 42, receive(t, l1))
	assert.Equal(t, 42, receive(t, l2))
}

func TestSlowListenerIsSkipped(t *testing.T) {
	source := make(chan int)
	b := NewBroadcastServer("test", source, WithSendTimeout[int](20*time.Millisecond))
	defer b.Close()
	bs := b.(*broadcastServer[int])

	slow := b.Subscribe()
	for i := 1; i <= 3; i++ {
		source <- i // nobody reads slow
	}
	assert.Eventually(t, func() bool {
		return bs.numRcv.Load() == 3 && bs.numSkip.Load() == 3
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, bs.numSnd.Load())

	// the listener is still registered after being skipped
	go func() { source <- 4 }()
	assert.Equal(t, 4, receive(t, slow))
	assert.Eventually(t, func() bool { return bs.numSnd.Load() == 1 },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(3), bs.numSkip.Load())
}

func TestCancelSubscription(t *testing.T) {
	source := make(chan int)
	b := NewBroadcastServer("test", source)
	defer b.Close()

	l := b.Subscribe()
	b.CancelSubscription(l)
	_, ok := <-l
	assert.False(t, ok)
}

func TestCloseClosesListeners(t *testing.T) {
	source := make(chan int)
	b := NewBroadcastServer("test", source)
	l := b.Subscribe()
	b.Close()

	select {
	case _, ok := <-l:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("listener not closed")
	}
}

func TestSourceClosed(t *testing.T) {
	source := make(chan int)
	b := NewBroadcastServer("test", source)
	l := b.Subscribe()
	close(source)

	select {
	case _, ok := <-l:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("listener not closed")
	}
	assert.Nil(t, b.Subscribe())
}
