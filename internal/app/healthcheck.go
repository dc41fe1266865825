package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// healthHandler answers liveness probes.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// newHealthcheckServer serves /health and the Prometheus /metrics endpoint.
func (a *App) newHealthcheckServer(ctx context.Context, port int) *http.Server {
	a.logger.Debug("Configuring health check server.")
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
}

func (a *App) serveHealthcheck(srv *http.Server) error {
	a.logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", srv.Addr))
	// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.logger.Error("Health check server failed unexpectedly", "error", err)
		return fmt.Errorf("health check server: %w", err)
	}
	return nil
}

func (a *App) shutdownHealthcheck(ctx context.Context, srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	a.logger.Info("🩺 Shutting down health check server...")
	if err := srv.Shutdown(ctx); err != nil {
		a.logger.Error("Health check server shutdown failed", "error", err)
		return err
	}
	a.logger.Debug("Health check server shut down gracefully.")
	return nil
}
