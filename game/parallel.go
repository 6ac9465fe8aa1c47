package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"github.com/pthm-cable/nectar/config"
	"github.com/pthm-cable/nectar/telemetry"
)

// ControllerFactory builds a controller for one env.
type ControllerFactory func(env *Env, rng *rand.Rand) Controller

// ParallelOptions configures RunParallel.
type ParallelOptions struct {
	Envs     int   // independent environments
	Workers  int   // goroutines (0 = GOMAXPROCS)
	Episodes int   // episodes per env
	Seed     int64 // env i uses Seed+i
	RunID    string
	MaxTicks int

	NewController ControllerFactory
}

// envJob is one environment's share of the run.
type envJob struct {
	index int
	seed  int64
}

// envResult is what a worker reports for one job.
type envResult struct {
	index    int
	episodes []telemetry.EpisodeStats
	err      error
}

// RunParallel runs opts.Envs independent environments on a worker pool and
// returns their episodes ordered by env, then episode. Each env owns its
// physics world and RNG so workers share nothing but the read-only config.
func RunParallel(ctx context.Context, cfg *config.Config, opts ParallelOptions) ([]telemetry.EpisodeStats, error) {
	if opts.Envs < 1 {
		return nil, nil
	}
	if opts.NewController == nil {
		return nil, errors.New("parallel: no controller factory")
	}

	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > opts.Envs {
		numWorkers = opts.Envs
	}

	workChan := make(chan envJob, opts.Envs)
	doneChan := make(chan envResult, opts.Envs)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range workChan {
				doneChan <- runEnvJob(ctx, cfg, opts, job)
			}
		}()
	}

	for i := 0; i < opts.Envs; i++ {
		workChan <- envJob{index: i, seed: opts.Seed + int64(i)}
	}
	close(workChan)
	wg.Wait()
	close(doneChan)

	results := make([][]telemetry.EpisodeStats, opts.Envs)
	var errs []error
	for res := range doneChan {
		results[res.index] = res.episodes
		if res.err != nil {
			errs = append(errs, fmt.Errorf("env %d: %w", res.index, res.err))
		}
	}

	var all []telemetry.EpisodeStats
	for _, eps := range results {
		all = append(all, eps...)
	}
	return all, errors.Join(errs...)
}

// runEnvJob builds and runs one env to completion.
func runEnvJob(ctx context.Context, cfg *config.Config, opts ParallelOptions, job envJob) envResult {
	env, err := NewEnv(cfg, Options{
		Seed:  job.seed,
		RunID: fmt.Sprintf("%s-%d", opts.RunID, job.index),
	})
	if err != nil {
		return envResult{index: job.index, err: err}
	}

	ctrl := opts.NewController(env, rand.New(rand.NewSource(job.seed)))
	runner := NewRunner(env, ctrl, RunnerOptions{
		MaxTicks:       opts.MaxTicks,
		WindowEpisodes: cfg.Telemetry.WindowEpisodes,
	})
	err = runner.Run(ctx, opts.Episodes)
	return envResult{index: job.index, episodes: runner.Episodes(), err: err}
}
