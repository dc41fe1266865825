package app

import (
	"io"
	"log/slog"

	"github.com/vk/patterngrid/internal/config"
	"github.com/vk/patterngrid/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	loader   config.Loader
	registry *registry.Registry
}

// NewApp is the constructor for the main application. Results are written to
// outW and logs to logW. It builds its own isolated logger and function
// registry; without modules the core modules are registered.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules
	}
	reg := registry.New(modules...)
	logger.Debug("All function modules registered.", "count", len(modules), "functions", len(reg.Names()))

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		loader:   loader,
		registry: reg,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
