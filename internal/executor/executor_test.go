package executor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsEveryJob(t *testing.T) {
	p := New(context.Background(), 4)

	var count atomic.Int32
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		require.NoError(t, p.Submit(func() {
			defer wg.Done()
			count.Add(1)
		}))
	}
	wg.Wait()
	p.Close()

	assert.Equal(t, int32(100), count.Load())
}

func TestPool_CloseDrainsAndRejects(t *testing.T) {
	p := New(context.Background(), 1)

	var ran atomic.Bool
	require.NoError(t, p.Submit(func() { ran.Store(true) }))
	p.Close()
	assert.True(t, ran.Load(), "queued jobs finish before Close returns")

	assert.ErrorIs(t, p.Submit(func() {}), ErrClosed)
	p.Close()
}

func TestPool_SurvivesPanics(t *testing.T) {
	p := New(context.Background(), 1)
	defer p.Close()

	done := make(chan struct{})
	require.NoError(t, p.Submit(func() { panic("boom") }))
	require.NoError(t, p.Submit(func() { close(done) }))
	<-done
}

func TestShared(t *testing.T) {
	assert.Same(t, Shared(), Shared())
}
