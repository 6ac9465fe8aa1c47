package game

import (
	"log/slog"

	"github.com/pthm-cable/nectar/telemetry"
)

// logEnvCreated logs the shape of a freshly built environment.
func logEnvCreated(e *Env) {
	slog.Debug("env created",
		"run_id", e.runID,
		"seed", e.seed,
		"flowers", e.field.Len(),
		"groups", len(e.field.Groups()),
		"training", e.agent.IsTraining(),
		"max_steps", e.maxSteps,
	)
}

// logSpawnFailure reports an episode that could not find a free spawn pose.
func logSpawnFailure(e *Env, err error) {
	slog.Warn("spawn failed",
		"run_id", e.runID,
		"episode", e.episode,
		"attempts", e.agent.Counters().SpawnAttempts,
		"error", err,
	)
}

// logEpisode logs a finished episode.
func logEpisode(stats telemetry.EpisodeStats) {
	slog.Info("episode", "run_id", stats.RunID, "stats", stats)
}
