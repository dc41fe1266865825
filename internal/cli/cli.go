package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/patterngrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("patterngrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
PatternGrid - Generates music patterns by sampling factor graphs.

Usage:
  patterngrid [options] [GRAPH_PATH]

Arguments:
  GRAPH_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	graphFlag := flagSet.String("graph", "", "Path to the graph file or directory.")
	gFlag := flagSet.String("g", "", "Path to the graph file or directory (shorthand).")
	modeFlag := flagSet.String("mode", "sample", "Sampling strategy. Options: 'sample' or 'maximize'.")
	seedFlag := flagSet.Int64("seed", -1, "Random seed. A negative value picks a random seed.")
	iterationsFlag := flagSet.Int("iterations", 1, "Number of sampling sweeps.")
	asyncFlag := flagSet.Bool("async", false, "Sample on the worker pool and poll for the result.")
	marginalsFlag := flagSet.String("marginals", "", "Write the marginals of the final sweep to this JSON file.")
	formatFlag := flagSet.String("format", "json", "Result output format. Options: 'json' or 'yaml'.")
	trackerInsFlag := flagSet.String("tracker-instruments", "", "Comma separated track names to render as a tracker module.")
	trackerBPMFlag := flagSet.Int("tracker-bpm", 125, "Tempo of the tracker module.")
	trackerSpeedFlag := flagSet.Int("tracker-speed", 6, "Ticks per row of the tracker module.")
	historyFlag := flagSet.String("history-db", "", "Record the run in this SQLite database.")
	publishURLFlag := flagSet.String("publish-url", "", "Publish the pattern to this socket.io server.")
	publishNSFlag := flagSet.String("publish-namespace", "/", "Socket.io namespace to publish to.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 4, "Number of concurrent workers for the executor.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *graphFlag != "" {
		path = *graphFlag
	} else if *gFlag != "" {
		path = *gFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Graph path determined.", "path", path)

	if path == "" {
		slog.Debug("No graph path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	var instruments []string
	for _, name := range strings.Split(*trackerInsFlag, ",") {
		if name = strings.TrimSpace(name); name != "" {
			instruments = append(instruments, name)
		}
	}

	config, err := app.NewConfig(app.Config{
		GraphPath:          path,
		Strategy:           strings.ToLower(*modeFlag),
		Seed:               uint64(max(*seedFlag, 0)),
		RandomSeed:         *seedFlag < 0,
		Iterations:         *iterationsFlag,
		Async:              *asyncFlag,
		MarginalsPath:      *marginalsFlag,
		Format:             strings.ToLower(*formatFlag),
		TrackerInstruments: instruments,
		TrackerBPM:         *trackerBPMFlag,
		TrackerSpeed:       *trackerSpeedFlag,
		HistoryDB:          *historyFlag,
		PublishURL:         *publishURLFlag,
		PublishNamespace:   *publishNSFlag,
		LogFormat:          logFormat,
		LogLevel:           strings.ToLower(*logLevelFlag),
		HealthcheckPort:    *healthPortFlag,
		WorkerCount:        *workersFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
