package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/nectar/config"
	"github.com/pthm-cable/nectar/game"
	"github.com/pthm-cable/nectar/telemetry"
)

// runFlags holds the flags shared by run and parallel.
type runFlags struct {
	configPath  string
	seed        int64
	episodes    int
	maxTicks    int
	controller  string
	hold        int
	interactive bool
	outputDir   string
	snapshotDir string
	logStats    bool
	debug       bool

	// parallel only
	envs    int
	workers int
}

func main() {
	for _, envFile := range []string{".env", "../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	rootCmd := &cobra.Command{
		Use:           "nectar",
		Short:         "Hummingbird foraging environment for reinforcement learning",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var rf runFlags
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run episodes with a scripted controller",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEpisodes(cmd.Context(), &rf)
		},
	}
	addRunFlags(runCmd, &rf)
	runCmd.Flags().BoolVar(&rf.interactive, "interactive", false, "Interactive mode: no field reset, no shaped reward, unbounded episodes")
	runCmd.Flags().StringVar(&rf.snapshotDir, "snapshot-dir", "", "Directory for bookmark snapshots")

	var pf runFlags
	parallelCmd := &cobra.Command{
		Use:   "parallel",
		Short: "Run independent training environments on a worker pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParallel(cmd.Context(), &pf)
		},
	}
	addRunFlags(parallelCmd, &pf)
	parallelCmd.Flags().IntVar(&pf.envs, "envs", 4, "Number of independent environments")
	parallelCmd.Flags().IntVar(&pf.workers, "workers", 0, "Worker goroutines (0 = GOMAXPROCS)")

	var configPath string
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolve(configPath, "NECTAR_CONFIG"))
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
	configCmd.Flags().StringVar(&configPath, "config", "", "Path to config.yaml (empty = NECTAR_CONFIG or defaults)")

	rootCmd.AddCommand(runCmd, parallelCmd, configCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("nectar failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command, rf *runFlags) {
	f := cmd.Flags()
	f.StringVar(&rf.configPath, "config", "", "Path to config.yaml (empty = NECTAR_CONFIG or defaults)")
	f.Int64Var(&rf.seed, "seed", 0, "RNG seed (0 = time-based)")
	f.IntVar(&rf.episodes, "episodes", 10, "Episodes to run (0 = until interrupted)")
	f.IntVar(&rf.maxTicks, "max-ticks", 0, "Stop each episode after N ticks (0 = episode.max_steps)")
	f.StringVar(&rf.controller, "controller", "seek", "Controller: seek or random")
	f.IntVar(&rf.hold, "hold", 10, "Ticks a random action is held")
	f.StringVar(&rf.outputDir, "output-dir", "", "Output directory for CSV logs (empty = NECTAR_OUTPUT_DIR or disabled)")
	f.BoolVar(&rf.logStats, "log-stats", false, "Output episode and window stats via slog")
	f.BoolVar(&rf.debug, "debug", false, "Enable debug logging")
}

// resolve returns the flag value, falling back to an environment variable.
func resolve(flagValue, envKey string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(envKey)
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	// JSON to stdout for structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func loadConfig(rf *runFlags) (*config.Config, int64, error) {
	if err := config.Init(resolve(rf.configPath, "NECTAR_CONFIG")); err != nil {
		return nil, 0, fmt.Errorf("failed to load config: %w", err)
	}
	seed := rf.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return config.Cfg(), seed, nil
}

func newController(name string, diameter float64, rng *rand.Rand, hold int) (game.Controller, error) {
	switch name {
	case "seek":
		return game.NewSeekController(diameter), nil
	case "random":
		return game.NewRandomController(rng, hold), nil
	default:
		return nil, fmt.Errorf("unknown controller %q (want seek or random)", name)
	}
}

func runEpisodes(ctx context.Context, rf *runFlags) error {
	setupLogging(rf.debug)
	cfg, seed, err := loadConfig(rf)
	if err != nil {
		return err
	}

	runID := telemetry.NewRunID()
	om, err := telemetry.NewOutputManager(resolve(rf.outputDir, "NECTAR_OUTPUT_DIR"), runID)
	if err != nil {
		return fmt.Errorf("failed to create output manager: %w", err)
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	env, err := game.NewEnv(cfg, game.Options{
		Seed:        seed,
		Interactive: rf.interactive,
		RunID:       runID,
		Perf:        perf,
	})
	if err != nil {
		return err
	}

	ctrl, err := newController(rf.controller, cfg.Field.Diameter, rand.New(rand.NewSource(seed)), rf.hold)
	if err != nil {
		return err
	}

	slog.Info("starting run",
		"run_id", runID,
		"seed", seed,
		"episodes", rf.episodes,
		"controller", rf.controller,
		"interactive", rf.interactive,
		"output_dir", om.Dir(),
	)

	runner := game.NewRunner(env, ctrl, game.RunnerOptions{
		MaxTicks:       rf.maxTicks,
		LogStats:       rf.logStats,
		WindowEpisodes: cfg.Telemetry.WindowEpisodes,
		Output:         om,
		Perf:           perf,
		SnapshotDir:    rf.snapshotDir,
	})

	err = runner.Run(ctx, rf.episodes)
	if errors.Is(err, context.Canceled) {
		slog.Info("interrupted", "episodes", len(runner.Episodes()))
		return nil
	}
	if err != nil {
		return err
	}
	slog.Info("run complete", "run_id", runID, "episodes", len(runner.Episodes()))
	return nil
}

func runParallel(ctx context.Context, rf *runFlags) error {
	setupLogging(rf.debug)
	cfg, seed, err := loadConfig(rf)
	if err != nil {
		return err
	}
	// Validate the controller name before starting any worker
	if _, err := newController(rf.controller, cfg.Field.Diameter, rand.New(rand.NewSource(seed)), rf.hold); err != nil {
		return err
	}

	runID := telemetry.NewRunID()
	om, err := telemetry.NewOutputManager(resolve(rf.outputDir, "NECTAR_OUTPUT_DIR"), runID)
	if err != nil {
		return fmt.Errorf("failed to create output manager: %w", err)
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	slog.Info("starting parallel run",
		"run_id", runID,
		"seed", seed,
		"envs", rf.envs,
		"workers", rf.workers,
		"episodes", rf.episodes,
	)

	episodes, err := game.RunParallel(ctx, cfg, game.ParallelOptions{
		Envs:     rf.envs,
		Workers:  rf.workers,
		Episodes: rf.episodes,
		Seed:     seed,
		RunID:    runID,
		MaxTicks: rf.maxTicks,
		NewController: func(env *game.Env, rng *rand.Rand) game.Controller {
			ctrl, _ := newController(rf.controller, cfg.Field.Diameter, rng, rf.hold)
			return ctrl
		},
	})

	collector := telemetry.NewCollector(runID, cfg.Telemetry.WindowEpisodes)
	for _, ep := range episodes {
		if err := om.WriteEpisode(ep); err != nil {
			slog.Error("failed to write episode", "error", err)
		}
		collector.Record(ep)
	}
	summary := collector.Flush()
	summary.LogStats()
	if err := om.WriteWindow(summary); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}

	if errors.Is(err, context.Canceled) {
		slog.Info("interrupted", "episodes", len(episodes))
		return nil
	}
	return err
}
