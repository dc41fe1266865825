package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vk/patterngrid/internal/ctxlog"
)

// Run generates one pattern and writes the result to the output writer. When
// a health check port is configured, the health and metrics server runs for
// the duration of the generation.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if a.config.HealthcheckPort > 0 {
		srv := a.newHealthcheckServer(gctx, a.config.HealthcheckPort)
		g.Go(func() error { return a.serveHealthcheck(srv) })
		g.Go(func() error {
			<-gctx.Done()
			return a.shutdownHealthcheck(ctx, srv)
		})
	} else {
		a.logger.Debug("Health check server not started: disabled.")
	}

	var result *Result
	g.Go(func() error {
		defer cancel()
		var err error
		result, err = a.generate(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if err := a.writeResult(result); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}
