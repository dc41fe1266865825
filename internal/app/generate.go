package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/vk/patterngrid/internal/builder"
	"github.com/vk/patterngrid/internal/crate"
	"github.com/vk/patterngrid/internal/ctxlog"
	"github.com/vk/patterngrid/internal/environment"
	"github.com/vk/patterngrid/internal/executor"
	"github.com/vk/patterngrid/internal/history"
	"github.com/vk/patterngrid/internal/pattern"
	"github.com/vk/patterngrid/internal/publish"
	"github.com/vk/patterngrid/internal/sampler"
	"github.com/vk/patterngrid/internal/sampling"
	"github.com/vk/patterngrid/internal/tracker"
)

// generate runs the whole pipeline once: load, build, sample, project and
// hand the pattern to the configured sinks.
func (a *App) generate(ctx context.Context) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	model, err := a.loader.Load(ctx, a.config.GraphPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	g, err := builder.New(a.registry).Build(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	ctx = ctxlog.With(ctx, "graph", g.Name())
	logger = ctxlog.FromContext(ctx)

	strategy, err := sampling.ParseStrategy(a.config.Strategy)
	if err != nil {
		return nil, err
	}
	seed := a.config.Seed
	if a.config.RandomSeed {
		seed = rand.Uint64()
		logger.Info("Using random seed.", "seed", seed)
	}

	pool := executor.New(ctx, a.config.WorkerCount)
	defer pool.Close()

	env := environment.New(g)
	s, err := sampler.New(g, env,
		sampler.WithStrategy(strategy),
		sampler.WithSeed(seed),
		sampler.WithExecutor(pool),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler: %w", err)
	}

	logger.Info("▶️ Sampling started.", "strategy", strategy, "iterations", a.config.Iterations, "async", a.config.Async)
	start := time.Now()
	score, marginals, err := a.iterate(ctx, s)
	if err != nil {
		return nil, err
	}
	logger.Info("✅ Sampling finished.", "score", score, "duration", time.Since(start))

	result := &Result{
		Graph:     g.Name(),
		RunID:     uuid.New(),
		Strategy:  strategy.String(),
		Seed:      seed,
		Variation: s.Variation(),
		Pattern:   pattern.NewData(),
		Crate:     crate.New(),
	}
	if !math.IsInf(score, 0) && !math.IsNaN(score) {
		result.Score = &score
	}
	if err := s.SetColumnsFromOutputs(result.Pattern); err != nil {
		return nil, fmt.Errorf("failed to project pattern: %w", err)
	}
	if err := s.FillCrateWithOutputs(result.Crate); err != nil {
		return nil, fmt.Errorf("failed to fill crate: %w", err)
	}

	if marginals != nil {
		if err := writeMarginals(a.config.MarginalsPath, g, marginals); err != nil {
			return nil, err
		}
		logger.Info("Marginals written.", "path", a.config.MarginalsPath)
	}
	if len(a.config.TrackerInstruments) > 0 {
		result.Tracker = a.renderTracker(ctx, result.Pattern)
	}
	if err := a.record(ctx, result); err != nil {
		return nil, err
	}
	if err := a.publish(ctx, result.Pattern); err != nil {
		return nil, err
	}
	return result, nil
}

// iterate samples the configured number of variations and returns the last
// score. When marginals were requested they are inferred on the final sweep.
func (a *App) iterate(ctx context.Context, s *sampler.Sampler) (float64, sampling.Marginals, error) {
	logger := ctxlog.FromContext(ctx)
	n := a.config.Iterations
	wantMarginals := a.config.MarginalsPath != ""
	if wantMarginals {
		n--
	}

	var score float64
	for i := range n {
		var err error
		if a.config.Async {
			score, err = a.sampleAsync(ctx, s)
		} else {
			score, err = s.SampleVariationSync(ctx)
		}
		if err != nil {
			return 0, nil, fmt.Errorf("iteration %d: %w", i+1, err)
		}
		logger.Debug("Iteration finished.", "iteration", i+1, "score", score)
	}

	if !wantMarginals {
		return score, nil, nil
	}
	var marginals sampling.Marginals
	score, err := s.SampleVariationAndInferMarginalsSync(ctx, &marginals)
	if err != nil {
		return 0, nil, fmt.Errorf("final iteration: %w", err)
	}
	return score, marginals, nil
}

// sampleAsync schedules one sampling operation and polls until it is done.
func (a *App) sampleAsync(ctx context.Context, s *sampler.Sampler) (float64, error) {
	if err := s.SampleVariationAsync(ctx); err != nil {
		return 0, err
	}
	ticker := time.NewTicker(a.config.PollInterval)
	defer ticker.Stop()
	for {
		score, done, err := s.ScoreIfDoneSampling()
		if err != nil {
			return 0, err
		}
		if done {
			return score, nil
		}
		select {
		case <-ctx.Done():
			// The job stays queued on the pool; closing the pool drains it.
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (a *App) renderTracker(ctx context.Context, p *pattern.Data) *tracker.Module {
	columns := 0
	for _, t := range p.Tracks {
		columns += len(t.Columns)
	}
	m := tracker.NewModule(a.config.TrackerInstruments, columns, p.Rows(), a.config.TrackerBPM, a.config.TrackerSpeed)
	m.Apply(ctx, p)
	ctxlog.FromContext(ctx).Debug("Tracker module rendered.", "tracks", columns, "rows", p.Rows(),
		"row_duration", tracker.RowDuration(a.config.TrackerBPM, a.config.TrackerSpeed))
	return m
}

func (a *App) record(ctx context.Context, result *Result) error {
	if a.config.HistoryDB == "" {
		return nil
	}
	store, err := history.Open(ctx, a.config.HistoryDB)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	run := history.Run{
		ID:         result.RunID,
		Graph:      result.Graph,
		Strategy:   result.Strategy,
		Seed:       result.Seed,
		Iterations: a.config.Iterations,
		Variation:  result.Variation,
		Revision:   result.Pattern.Revision,
	}
	if result.Score != nil {
		run.Score = *result.Score
	} else {
		run.Score = math.Inf(-1)
	}
	_, err = store.Record(ctx, run)
	return errors.Join(err, store.Close())
}

func (a *App) publish(ctx context.Context, p *pattern.Data) error {
	if a.config.PublishURL == "" {
		return nil
	}
	pub, err := publish.Dial(ctx, publish.Config{
		URL:       a.config.PublishURL,
		Namespace: a.config.PublishNamespace,
	})
	if err != nil {
		return fmt.Errorf("failed to connect publisher: %w", err)
	}
	err = pub.Publish(ctx, p)
	return errors.Join(err, pub.Close())
}
