package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/vk/patterngrid/internal/sampling"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GraphPath string // hcl file or directory

	Strategy      string
	Seed          uint64
	RandomSeed    bool
	Iterations    int
	Async         bool
	PollInterval  time.Duration
	MarginalsPath string
	Format        string

	TrackerInstruments []string
	TrackerBPM         int
	TrackerSpeed       int

	HistoryDB        string
	PublishURL       string
	PublishNamespace string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.GraphPath == "" {
		return nil, errors.New("GraphPath is a required configuration field and cannot be empty")
	}
	if cfg.Strategy == "" {
		cfg.Strategy = sampling.Sample.String()
	}
	if _, err := sampling.ParseStrategy(cfg.Strategy); err != nil {
		return nil, err
	}
	if cfg.Iterations < 1 {
		return nil, fmt.Errorf("iterations must be at least 1, got %d", cfg.Iterations)
	}
	switch cfg.Format {
	case "":
		cfg.Format = "json"
	case "json", "yaml":
	default:
		return nil, fmt.Errorf("invalid format %q: must be 'json' or 'yaml'", cfg.Format)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Millisecond
	}
	if cfg.TrackerBPM <= 0 {
		cfg.TrackerBPM = 125
	}
	if cfg.TrackerSpeed <= 0 {
		cfg.TrackerSpeed = 6
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort)
	}
	return &cfg, nil
}
