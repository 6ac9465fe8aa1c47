package main

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/pthm-cable/nectar/config"
	"github.com/pthm-cable/nectar/game"
	"github.com/pthm-cable/nectar/telemetry"
)

// FitnessEvaluator runs headless training episodes and computes fitness.
type FitnessEvaluator struct {
	params   *ParamVector
	cfg      *config.Config
	envs     int
	episodes int
	maxTicks int
	seed     int64

	mu          sync.Mutex
	bestFitness float64
	lastStats   evalStats // from most recent Evaluate call
}

// evalStats summarizes one evaluation across all envs.
type evalStats struct {
	nectarMean   float64
	feedsMean    float64
	boundaryMean float64
}

// NewFitnessEvaluator creates a new evaluator. Every evaluation replays the
// same env seeds so candidates are compared on identical spawns.
func NewFitnessEvaluator(params *ParamVector, cfg *config.Config, envs, episodes, maxTicks int, seed int64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		cfg:         cfg,
		envs:        envs,
		episodes:    episodes,
		maxTicks:    maxTicks,
		seed:        seed,
		bestFitness: math.Inf(1),
	}
}

// LastStats returns the summary of the most recent evaluation.
func (fe *FitnessEvaluator) LastStats() evalStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastStats
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(ctx context.Context, x []float64) (float64, error) {
	episodes, err := game.RunParallel(ctx, fe.cfg, game.ParallelOptions{
		Envs:     fe.envs,
		Episodes: fe.episodes,
		Seed:     fe.seed,
		RunID:    "optimize",
		MaxTicks: fe.maxTicks,
		NewController: func(_ *game.Env, _ *rand.Rand) game.Controller {
			return fe.params.Controller(fe.cfg.Field.Diameter, x)
		},
	})
	if err != nil {
		return math.Inf(1), err
	}

	stats := summarize(episodes)
	fitness := computeFitness(stats)

	fe.mu.Lock()
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
	}
	fe.lastStats = stats
	fe.mu.Unlock()

	return fitness, nil
}

func summarize(episodes []telemetry.EpisodeStats) evalStats {
	var s evalStats
	if len(episodes) == 0 {
		return s
	}
	for _, ep := range episodes {
		s.nectarMean += ep.Nectar
		s.feedsMean += float64(ep.Feeds)
		s.boundaryMean += float64(ep.BoundaryHits)
	}
	n := float64(len(episodes))
	s.nectarMean /= n
	s.feedsMean /= n
	s.boundaryMean /= n
	return s
}

// Each boundary hit costs a tenth of a nectar unit.
const boundaryWeight = 0.1

// computeFitness calculates the scalar fitness (lower = better).
func computeFitness(s evalStats) float64 {
	return -(s.nectarMean - boundaryWeight*s.boundaryMean)
}
