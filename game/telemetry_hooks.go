package game

import (
	"log/slog"

	"github.com/pthm-cable/nectar/telemetry"
)

// recordEpisode stores the finished episode and flushes a full window.
func (r *Runner) recordEpisode() {
	stats := r.env.EpisodeStats()
	r.episodes = append(r.episodes, stats)
	r.collector.Record(stats)

	if r.logStats {
		logEpisode(stats)
	}

	if err := r.outputManager.WriteEpisode(stats); err != nil {
		slog.Error("failed to write episode", "error", err)
	}

	if r.collector.ShouldFlush() {
		r.flushTelemetry()
	}
}

// flushPartial flushes a window that never filled up.
func (r *Runner) flushPartial() {
	if r.collector.Pending() > 0 {
		r.flushTelemetry()
	}
}

// flushTelemetry flushes the stats window and handles bookmarks.
func (r *Runner) flushTelemetry() {
	stats := r.collector.Flush()

	// Call stats callback if provided
	if r.statsCallback != nil {
		r.statsCallback(stats)
	}

	var perfStats telemetry.PerfStats
	if r.perfCollector != nil {
		perfStats = r.perfCollector.Stats()
	}

	// Log stats if enabled (console output)
	if r.logStats {
		stats.LogStats()
		if r.perfCollector != nil {
			perfStats.LogStats()
		}
	}

	if err := r.outputManager.WriteWindow(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if r.perfCollector != nil {
		if err := r.outputManager.WritePerf(perfStats, stats.LastEpisode); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	// Check for bookmarks
	for _, bm := range r.bookmarks.Check(stats) {
		if r.logStats {
			bm.LogBookmark()
		}
		if err := r.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		// Save snapshot on bookmark
		if r.snapshotDir != "" {
			r.saveSnapshot(&bm)
		}
	}
}

// saveSnapshot writes the env state at the end of the bookmarked window.
func (r *Runner) saveSnapshot(bm *telemetry.Bookmark) {
	path, err := telemetry.SaveSnapshot(r.env.Snapshot(bm), r.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "bookmark", string(bm.Type))
}
