package game

import (
	"context"
	"fmt"

	"github.com/pthm-cable/nectar/telemetry"
)

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	MaxTicks       int  // per-episode tick cap on top of episode.max_steps (0 = none)
	LogStats       bool // log episodes, windows and perf via slog
	WindowEpisodes int
	Output         *telemetry.OutputManager // nil disables CSV output
	Perf           *telemetry.PerfCollector // should be the env's collector
	SnapshotDir    string                   // bookmark snapshots, empty disables

	// StatsCallback is called with each flushed window.
	StatsCallback func(telemetry.WindowStats)
}

// Runner drives an Env with a Controller and records telemetry.
type Runner struct {
	env  *Env
	ctrl Controller

	maxTicks      int
	logStats      bool
	collector     *telemetry.Collector
	outputManager *telemetry.OutputManager
	perfCollector *telemetry.PerfCollector
	bookmarks     *telemetry.BookmarkDetector
	snapshotDir   string
	statsCallback func(telemetry.WindowStats)

	episodes []telemetry.EpisodeStats
}

// NewRunner creates a runner for env.
func NewRunner(env *Env, ctrl Controller, opts RunnerOptions) *Runner {
	return &Runner{
		env:           env,
		ctrl:          ctrl,
		maxTicks:      opts.MaxTicks,
		logStats:      opts.LogStats,
		collector:     telemetry.NewCollector(env.runID, opts.WindowEpisodes),
		outputManager: opts.Output,
		perfCollector: opts.Perf,
		bookmarks:     telemetry.NewBookmarkDetector(10),
		snapshotDir:   opts.SnapshotDir,
		statsCallback: opts.StatsCallback,
	}
}

// Run plays episodes until n are done (n <= 0 runs until ctx is cancelled).
// Cancellation is observed between ticks; the interrupted episode is still
// recorded and ctx.Err() is returned.
func (r *Runner) Run(ctx context.Context, n int) error {
	defer r.flushPartial()

	for i := 0; n <= 0 || i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.runEpisode(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runEpisode(ctx context.Context) error {
	if rc, ok := r.ctrl.(episodeResetter); ok {
		rc.ResetEpisode()
	}

	obs, err := r.env.Reset()
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			r.recordEpisode()
			return err
		}

		res, err := r.env.Step(r.ctrl.Act(obs))
		if err != nil {
			return fmt.Errorf("step: %w", err)
		}
		obs = res.Observation

		if res.Done || (r.maxTicks > 0 && r.env.Steps() >= r.maxTicks) {
			break
		}
	}

	r.recordEpisode()
	return nil
}

// Episodes returns every episode recorded so far.
func (r *Runner) Episodes() []telemetry.EpisodeStats {
	return r.episodes
}
