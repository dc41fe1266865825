// Package executor runs submitted jobs on a bounded pool of worker goroutines.
package executor

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/vk/patterngrid/internal/ctxlog"
)

// ErrClosed is returned when submitting to a pool that has been closed.
var ErrClosed = errors.New("executor: pool is closed")

// Pool is a fixed set of workers draining a shared job queue.
type Pool struct {
	jobs chan func()
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New starts a pool with the given number of workers. Workers log through the
// logger carried by ctx; the pool's lifetime is controlled by Close, not ctx.
func New(ctx context.Context, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{jobs: make(chan func(), workers*16)}
	p.wg.Add(workers)
	for i := range workers {
		go p.worker(ctx, i+1)
	}
	ctxlog.FromContext(ctx).Debug("Worker pool started.", "workers", workers)
	return p
}

// Submit queues a job. It blocks while the queue is full and fails with
// ErrClosed once the pool is closed.
func (p *Pool) Submit(job func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	p.jobs <- job
	return nil
}

// Close stops accepting jobs and waits for queued jobs to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

var (
	sharedOnce sync.Once
	shared     *Pool
)

// Shared returns a process-wide pool with one worker per CPU, started on
// first use and never closed.
func Shared() *Pool {
	sharedOnce.Do(func() {
		shared = New(context.Background(), runtime.NumCPU())
	})
	return shared
}
