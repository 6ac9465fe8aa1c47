package telemetry

// Collector groups finished episodes into windows and produces WindowStats.
type Collector struct {
	runID          string
	windowEpisodes int

	episodes []EpisodeStats
}

// NewCollector creates a new stats collector.
// windowEpisodes: how many episodes make up one stats window
func NewCollector(runID string, windowEpisodes int) *Collector {
	if windowEpisodes < 1 {
		windowEpisodes = 1
	}
	return &Collector{
		runID:          runID,
		windowEpisodes: windowEpisodes,
		episodes:       make([]EpisodeStats, 0, windowEpisodes),
	}
}

// Record adds a finished episode to the current window.
func (c *Collector) Record(ep EpisodeStats) {
	c.episodes = append(c.episodes, ep)
}

// ShouldFlush returns true once the current window is full.
func (c *Collector) ShouldFlush() bool {
	return len(c.episodes) >= c.windowEpisodes
}

// Pending returns the number of episodes in the current window.
func (c *Collector) Pending() int {
	return len(c.episodes)
}

// Flush produces a WindowStats and starts the next window.
// Flushing an empty window returns zero stats.
func (c *Collector) Flush() WindowStats {
	n := len(c.episodes)
	stats := WindowStats{RunID: c.runID, Episodes: n}
	if n == 0 {
		return stats
	}

	rewards := make([]float64, n)
	nectar := make([]float64, n)
	var steps, front int
	for i, ep := range c.episodes {
		rewards[i] = ep.Reward
		nectar[i] = ep.Nectar
		steps += ep.Steps
		stats.FlowersEmptied += ep.FlowersEmptied
		stats.BoundaryHits += ep.BoundaryHits
		if ep.SpawnedInFront {
			front++
		}
	}

	stats.FirstEpisode = c.episodes[0].Episode
	stats.LastEpisode = c.episodes[n-1].Episode
	stats.RewardMean, stats.RewardStd, stats.RewardP10, stats.RewardP50, stats.RewardP90 = ComputeStats(rewards)
	stats.NectarMean, stats.NectarStd, stats.NectarP10, stats.NectarP50, stats.NectarP90 = ComputeStats(nectar)
	stats.StepsMean = float64(steps) / float64(n)
	stats.FrontSpawnRate = float64(front) / float64(n)

	// Reset for next window
	c.episodes = c.episodes[:0]

	return stats
}

// WindowEpisodes returns the number of episodes per window.
func (c *Collector) WindowEpisodes() int {
	return c.windowEpisodes
}
