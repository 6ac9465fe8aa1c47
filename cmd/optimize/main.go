// Package main provides CMA-ES tuning of the scripted seek controller
// against the nectar training environment.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/nectar/config"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// bestParams is written to best_params.yaml.
type bestParams struct {
	Fitness float64            `yaml:"fitness"`
	Params  map[string]float64 `yaml:"params"`
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxTicks := flag.Int("max-ticks", 0, "Cap each episode at N ticks (0 = episode.max_steps)")
	envs := flag.Int("envs", 4, "Independent environments per evaluation")
	episodes := flag.Int("episodes", 3, "Episodes per environment")
	seed := flag.Int64("seed", 42, "Base seed; env i uses seed+i")
	maxEvals := flag.Int("max-evals", 100, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Episode.MaxSteps == 0 && *maxTicks == 0 {
		log.Fatal("episode.max_steps is 0; set --max-ticks to bound evaluations")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	params := NewParamVector()
	evaluator := NewFitnessEvaluator(params, cfg, *envs, *episodes, *maxTicks, *seed)

	dim := params.Dim()
	initX := params.Normalize(params.DefaultVector())

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}

	logPath := filepath.Join(*outputDir, "optimize_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()

	header := []string{"eval", "fitness", "nectar_mean", "feeds_mean", "boundary_mean"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	logWriter.Write(header)

	evalCount := 0
	bestFitness := 1e9
	var best []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			clamped := params.Clamp(params.Denormalize(x))
			fitness, err := evaluator.Evaluate(ctx, clamped)
			if err != nil {
				// Interrupts and spawn failures score as the worst candidate
				log.Printf("evaluation failed: %v", err)
			}
			evalCount++

			if fitness < bestFitness {
				bestFitness = fitness
				best = append([]float64(nil), clamped...)
			}

			stats := evaluator.LastStats()
			row := []string{
				strconv.Itoa(evalCount),
				fmt.Sprintf("%.6f", fitness),
				fmt.Sprintf("%.6f", stats.nectarMean),
				fmt.Sprintf("%.3f", stats.feedsMean),
				fmt.Sprintf("%.3f", stats.boundaryMean),
			}
			for _, v := range clamped {
				row = append(row, fmt.Sprintf("%.6f", v))
			}
			logWriter.Write(row)
			logWriter.Flush()

			elapsed := time.Since(startTime)
			avgPerEval := elapsed / time.Duration(evalCount)
			remaining := time.Duration(*maxEvals-evalCount) * avgPerEval

			fmt.Printf("Eval %d/%d: nectar=%.3f feeds=%.1f hits=%.1f (best=%.3f) | elapsed: %s, ETA: %s\n",
				evalCount, *maxEvals, stats.nectarMean, stats.feedsMean, stats.boundaryMean, bestFitness,
				formatDuration(elapsed), formatDuration(remaining))

			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // evaluations already fan out across envs
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	fmt.Printf("Starting CMA-ES optimization with %d parameters, population=%d, max_evals=%d\n",
		dim, popSize, *maxEvals)
	fmt.Printf("Envs per evaluation: %d, episodes per env: %d\n", *envs, *episodes)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}
	if best == nil && result != nil {
		best = params.Clamp(params.Denormalize(result.X))
	}
	if best == nil {
		log.Fatal("no evaluations completed")
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best fitness: %.4f\n", bestFitness)

	out := bestParams{Fitness: bestFitness, Params: make(map[string]float64, dim)}
	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Name, best[i])
		out.Params[spec.Name] = best[i]
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		log.Fatalf("failed to marshal best params: %v", err)
	}
	paramsPath := filepath.Join(*outputDir, "best_params.yaml")
	if err := os.WriteFile(paramsPath, data, 0644); err != nil {
		log.Printf("failed to write best params: %v", err)
	} else {
		fmt.Printf("\nBest params saved to: %s\n", paramsPath)
	}

	configOutPath := filepath.Join(*outputDir, "base_config.yaml")
	if err := cfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write base config: %v", err)
	}
}
