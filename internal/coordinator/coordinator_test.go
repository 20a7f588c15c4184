package coordinator

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/faqchat/internal/utils"
)

func TestBeginComplete(t *testing.T) {
	c := New()
	assert.False(t, c.IsBusy())

	h, err := c.Begin()
	require.NoError(t, err)
	assert.True(t, h.Valid())
	assert.True(t, c.IsBusy())

	require.NoError(t, c.Complete(h))
	assert.False(t, c.IsBusy())
}

func TestBeginWhileBusy(t *testing.T) {
	c := New()
	h, err := c.Begin()
	require.NoError(t, err)

	_, err = c.Begin()
	assert.ErrorIs(t, err, utils.ErrAlreadyInFlight)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))

	require.NoError(t, c.Complete(h))
	_, err = c.Begin()
	assert.NoError(t, err)
}

func TestCompleteStaleHandle(t *testing.T) {
	c := New()
	first, _ := c.Begin()
	require.NoError(t, c.Complete(first))
	second, _ := c.Begin()

	assert.ErrorIs(t, c.Complete(first), utils.ErrUnknownHandle)
	assert.True(t, c.IsBusy(), "stale completion must not release the current operation")

	assert.ErrorIs(t, c.Complete(Handle{}), utils.ErrUnknownHandle)
	require.NoError(t, c.Complete(second))
	assert.ErrorIs(t, c.Complete(second), utils.ErrUnknownHandle)
}

func TestCancel(t *testing.T) {
	c := New()
	h, _ := c.Begin()
	require.NoError(t, c.Cancel(h))
	assert.False(t, c.IsBusy())
	assert.ErrorIs(t, c.Complete(h), utils.ErrUnknownHandle)
}

func TestOnChange(t *testing.T) {
	c := New()
	var got []bool
	c.OnChange(func(busy bool) { got = append(got, busy) })

	h, _ := c.Begin()
	_, _ = c.Begin() // rejected, no transition
	_ = c.Complete(h)

	assert.Equal(t, []bool{true, false}, got)
}

func TestOnChangeKeepsTransitionOrder(t *testing.T) {
	c := New()

	var mu sync.Mutex
	var got []bool
	entered := make(chan struct{})
	release := make(chan struct{})
	var slowed atomic.Bool
	c.OnChange(func(busy bool) {
		if !busy && slowed.CompareAndSwap(false, true) {
			close(entered)
			<-release
		}
		mu.Lock()
		got = append(got, busy)
		mu.Unlock()
	})

	first, err := c.Begin()
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, c.Complete(first))
	}()
	<-entered

	go func() {
		defer wg.Done()
		_, err := c.Begin()
		assert.NoError(t, err)
	}()

	// The idle callback is still running; the state itself is readable.
	assert.Eventually(t, c.IsBusy, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false, true}, got)
}

func TestConcurrentBeginAdmitsOne(t *testing.T) {
	c := New()
	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Begin(); err == nil {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), admitted.Load())
}
