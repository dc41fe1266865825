package testutil

import (
	"sync"
	"sync/atomic"
)

// GatedExecutor runs submitted jobs on their own goroutines, but only after
// Open has been called. It counts submissions and completed jobs.
type GatedExecutor struct {
	gate     chan struct{}
	once     sync.Once
	submits  atomic.Int32
	finished atomic.Int32
}

// NewGatedExecutor returns a closed gate.
func NewGatedExecutor() *GatedExecutor {
	return &GatedExecutor{gate: make(chan struct{})}
}

// Submit implements task.Submitter.
func (e *GatedExecutor) Submit(job func()) error {
	e.submits.Add(1)
	go func() {
		<-e.gate
		job()
		e.finished.Add(1)
	}()
	return nil
}

// Open lets queued and future jobs run.
func (e *GatedExecutor) Open() {
	e.once.Do(func() { close(e.gate) })
}

// Submits returns how many jobs were submitted.
func (e *GatedExecutor) Submits() int {
	return int(e.submits.Load())
}

// Finished returns how many jobs ran to completion.
func (e *GatedExecutor) Finished() int {
	return int(e.finished.Load())
}
