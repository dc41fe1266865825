package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/patterngrid/internal/app"
	"github.com/vk/patterngrid/internal/cli"
	"github.com/vk/patterngrid/internal/hcl_adapter"
)

// main is the entrypoint for the patterngrid application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The real main function handles errors and exit codes.
	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		stop()
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW, logW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	loader := hcl_adapter.NewLoader()
	patterngridApp := app.NewApp(outW, logW, appConfig, loader)

	return patterngridApp.Run(ctx)
}
