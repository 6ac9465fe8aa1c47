package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// EpisodeStats summarizes one finished episode.
type EpisodeStats struct {
	RunID          string  `csv:"run_id"`
	Episode        int     `csv:"episode"`
	Steps          int     `csv:"steps"`
	Reward         float64 `csv:"reward"`
	Nectar         float64 `csv:"nectar"`
	Feeds          int     `csv:"feeds"`
	FlowersEmptied int     `csv:"flowers_emptied"`
	BoundaryHits   int     `csv:"boundary_hits"`
	SpawnAttempts  int     `csv:"spawn_attempts"`
	SpawnedInFront bool    `csv:"spawned_in_front"`
	SimTimeSec     float64 `csv:"sim_time"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s EpisodeStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("episode", s.Episode),
		slog.Int("steps", s.Steps),
		slog.Float64("reward", s.Reward),
		slog.Float64("nectar", s.Nectar),
		slog.Int("feeds", s.Feeds),
		slog.Int("flowers_emptied", s.FlowersEmptied),
		slog.Int("boundary_hits", s.BoundaryHits),
		slog.Int("spawn_attempts", s.SpawnAttempts),
		slog.Bool("spawned_in_front", s.SpawnedInFront),
	)
}

// WindowStats aggregates a window of consecutive episodes.
type WindowStats struct {
	RunID        string `csv:"run_id"`
	FirstEpisode int    `csv:"first_episode"`
	LastEpisode  int    `csv:"last_episode"`
	Episodes     int    `csv:"episodes"`

	RewardMean float64 `csv:"reward_mean"`
	RewardStd  float64 `csv:"reward_std"`
	RewardP10  float64 `csv:"reward_p10"`
	RewardP50  float64 `csv:"reward_p50"`
	RewardP90  float64 `csv:"reward_p90"`

	NectarMean float64 `csv:"nectar_mean"`
	NectarStd  float64 `csv:"nectar_std"`
	NectarP10  float64 `csv:"nectar_p10"`
	NectarP50  float64 `csv:"nectar_p50"`
	NectarP90  float64 `csv:"nectar_p90"`

	StepsMean      float64 `csv:"steps_mean"`
	FlowersEmptied int     `csv:"flowers_emptied"`
	BoundaryHits   int     `csv:"boundary_hits"`
	FrontSpawnRate float64 `csv:"front_spawn_rate"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeStats calculates mean, population standard deviation and percentiles.
func ComputeStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, std = stat.PopMeanStdDev(values, nil)

	// Sort for percentiles
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("first_episode", s.FirstEpisode),
		slog.Int("last_episode", s.LastEpisode),
		slog.Float64("reward_mean", s.RewardMean),
		slog.Float64("reward_std", s.RewardStd),
		slog.Float64("reward_p50", s.RewardP50),
		slog.Float64("nectar_mean", s.NectarMean),
		slog.Float64("nectar_p50", s.NectarP50),
		slog.Float64("steps_mean", s.StepsMean),
		slog.Int("flowers_emptied", s.FlowersEmptied),
		slog.Int("boundary_hits", s.BoundaryHits),
		slog.Float64("front_spawn_rate", s.FrontSpawnRate),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"episodes", s.Episodes,
		"last_episode", s.LastEpisode,
		"reward_mean", s.RewardMean,
		"reward_std", s.RewardStd,
		"reward_p10", s.RewardP10,
		"reward_p50", s.RewardP50,
		"reward_p90", s.RewardP90,
		"nectar_mean", s.NectarMean,
		"nectar_std", s.NectarStd,
		"nectar_p10", s.NectarP10,
		"nectar_p50", s.NectarP50,
		"nectar_p90", s.NectarP90,
		"steps_mean", s.StepsMean,
		"flowers_emptied", s.FlowersEmptied,
		"boundary_hits", s.BoundaryHits,
		"front_spawn_rate", s.FrontSpawnRate,
	)
}
