package executor

import (
	"context"

	"github.com/vk/patterngrid/internal/ctxlog"
)

// worker is the core processing loop for a single concurrent worker.
func (p *Pool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for job := range p.jobs {
		p.run(ctx, workerID, job)
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// run executes one job. A panicking job is logged and does not take the
// worker down with it.
func (p *Pool) run(ctx context.Context, workerID int, job func()) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Error("Job panicked.", "workerID", workerID, "panic", r)
		}
	}()
	job()
}
