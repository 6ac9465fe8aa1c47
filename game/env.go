package game

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/nectar/config"
	"github.com/pthm-cable/nectar/geom"
	"github.com/pthm-cable/nectar/physics"
	"github.com/pthm-cable/nectar/systems"
	"github.com/pthm-cable/nectar/telemetry"
)

// Options configures an Env.
type Options struct {
	Seed        int64 // 0 = time-based
	Interactive bool  // overrides the config's episode.train
	RunID       string
	Perf        *telemetry.PerfCollector // optional per-tick phase timing
}

// StepResult is what a trainer sees after one tick.
type StepResult struct {
	Observation systems.Observation
	Reward      float64
	Done        bool
}

// Env is one hummingbird foraging in its own flower field. It drives the
// agent through the physics world in fixed ticks and collects the rewards
// the agent emits. An Env is not safe for concurrent use.
type Env struct {
	cfg  *config.Config
	rng  *rand.Rand
	seed int64

	world   *physics.World
	body    *physics.Body
	field   *systems.ResourceField
	flowers []*physics.FlowerBody
	agent   *systems.ForagingAgent

	runID    string
	maxSteps int
	perf     *telemetry.PerfCollector

	// Episode state
	episode       int
	steps         int
	tickReward    float64
	episodeReward float64
	started       bool

	// Solid contact tags from the previous tick
	touching map[ecs.Entity]bool // solid colliders in contact last tick
	current  map[ecs.Entity]bool
	contacts []physics.Contact
}

// NewEnv builds the physics world, the flower field and the agent.
func NewEnv(cfg *config.Config, opts Options) (*Env, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	world := physics.NewWorld(cfg.Physics)
	world.AddBoundary(cfg.Field.Boundary.Box(), boundaryThickness)

	field, flowers, err := buildField(cfg, world, rng)
	if err != nil {
		return nil, fmt.Errorf("building field: %w", err)
	}

	var mode systems.AgentMode = systems.Training{}
	maxSteps := cfg.Episode.MaxSteps
	if opts.Interactive || !cfg.Episode.Train {
		mode = systems.Interactive{}
		maxSteps = 0
	}

	start := r3.Add(cfg.Field.Origin.Vec(), r3.Vec{Y: cfg.Spawn.Height.Min})
	body := world.NewBody(start, geom.Identity, cfg.Agent.BeakOffset.Vec())

	e := &Env{
		cfg:      cfg,
		rng:      rng,
		seed:     seed,
		world:    world,
		body:     body,
		field:    field,
		flowers:  flowers,
		runID:    opts.RunID,
		maxSteps: maxSteps,
		perf:     opts.Perf,
		touching: make(map[ecs.Entity]bool),
		current:  make(map[ecs.Entity]bool),
	}
	e.agent = systems.NewForagingAgent(cfg, field, body, world, e, rng, mode)

	logEnvCreated(e)
	return e, nil
}

// AddReward accumulates reward for the current tick.
func (e *Env) AddReward(r float64) {
	e.tickReward += r
}

// Reset starts a new episode and returns the first observation.
func (e *Env) Reset() (systems.Observation, error) {
	e.episode++
	e.steps = 0
	e.tickReward = 0
	e.episodeReward = 0
	clear(e.touching)

	if err := e.agent.BeginEpisode(); err != nil {
		if errors.Is(err, systems.ErrSpawnExhausted) {
			logSpawnFailure(e, err)
		}
		return systems.Observation{}, fmt.Errorf("episode %d: %w", e.episode, err)
	}
	e.started = true
	return e.agent.Observe(), nil
}

// Step advances the environment by one tick.
func (e *Env) Step(action systems.Action) (StepResult, error) {
	if !e.started {
		return StepResult{}, ErrNotReset
	}

	if e.perf != nil {
		e.perf.StartTick()
		defer e.perf.EndTick()
	}
	e.tickReward = 0

	e.phase(telemetry.PhaseAgent)
	e.agent.Step(action)

	e.phase(telemetry.PhasePhysics)
	e.world.Step(e.cfg.Physics.DT)

	e.phase(telemetry.PhaseContacts)
	if err := e.dispatchContacts(); err != nil {
		return StepResult{}, fmt.Errorf("episode %d step %d: %w", e.episode, e.steps, err)
	}
	e.agent.Tick()

	e.phase(telemetry.PhaseObserve)
	obs := e.agent.Observe()

	e.phase(telemetry.PhaseTelemetry)
	e.steps++
	e.episodeReward += e.tickReward
	done := e.maxSteps > 0 && e.steps >= e.maxSteps
	if done {
		e.started = false
	}

	return StepResult{Observation: obs, Reward: e.tickReward, Done: done}, nil
}

// dispatchContacts forwards trigger overlaps every tick and solid collisions
// only on the tick contact with that collider begins. Every contact is
// dispatched even when an overlap fails; the first error is returned.
func (e *Env) dispatchContacts() error {
	e.contacts = e.world.Contacts(e.body, e.contacts[:0])

	var firstErr error
	clear(e.current)
	for _, c := range e.contacts {
		switch c.Kind {
		case physics.ContactTrigger:
			ev := systems.ProximityEvent{Sensor: c.Sensor, Tag: c.Tag}
			if err := e.agent.OnProximityOverlap(ev); err != nil && firstErr == nil {
				firstErr = err
			}
		case physics.ContactCollision:
			if !e.touching[c.Entity] && !e.current[c.Entity] {
				e.agent.OnCollision(c.Tag)
			}
			e.current[c.Entity] = true
		}
	}
	e.touching, e.current = e.current, e.touching
	return firstErr
}

func (e *Env) phase(name string) {
	if e.perf != nil {
		e.perf.StartPhase(name)
	}
}

// Freeze stops an interactive agent in place.
func (e *Env) Freeze() error { return e.agent.Freeze() }

// Unfreeze resumes an interactive agent.
func (e *Env) Unfreeze() error { return e.agent.Unfreeze() }

// Agent returns the foraging agent.
func (e *Env) Agent() *systems.ForagingAgent { return e.agent }

// Body returns the agent's rigid body.
func (e *Env) Body() *physics.Body { return e.body }

// Field returns the flower field.
func (e *Env) Field() *systems.ResourceField { return e.field }

// Flowers returns the flower bodies in field order.
func (e *Env) Flowers() []*physics.FlowerBody { return e.flowers }

// Episode returns the current episode number, starting at 1.
func (e *Env) Episode() int { return e.episode }

// Steps returns the ticks taken this episode.
func (e *Env) Steps() int { return e.steps }

// EpisodeReward returns the reward accumulated this episode.
func (e *Env) EpisodeReward() float64 { return e.episodeReward }

// Seed returns the seed the env's RNG was created with.
func (e *Env) Seed() int64 { return e.seed }

// MaxSteps returns the episode length, 0 when unbounded.
func (e *Env) MaxSteps() int { return e.maxSteps }

// EpisodeStats summarizes the current episode.
func (e *Env) EpisodeStats() telemetry.EpisodeStats {
	c := e.agent.Counters()
	return telemetry.EpisodeStats{
		RunID:          e.runID,
		Episode:        e.episode,
		Steps:          e.steps,
		Reward:         e.episodeReward,
		Nectar:         e.agent.EpisodeNectar(),
		Feeds:          c.Feeds,
		FlowersEmptied: c.Emptied,
		BoundaryHits:   c.BoundaryHits,
		SpawnAttempts:  c.SpawnAttempts,
		SpawnedInFront: c.SpawnedInFront,
		SimTimeSec:     float64(e.steps) * e.cfg.Physics.DT,
	}
}

// Snapshot captures the agent and field state.
func (e *Env) Snapshot(bm *telemetry.Bookmark) *telemetry.Snapshot {
	pos := e.body.Position()
	rot := e.body.Rotation()
	vel := e.body.Velocity()
	pitch, yaw := e.agent.SmoothedRates()

	s := &telemetry.Snapshot{
		Version: telemetry.SnapshotVersion,
		RunID:   e.runID,
		Seed:    e.seed,
		Episode: e.episode,
		Step:    e.steps,
		Agent: telemetry.AgentState{
			Position:      vec3(pos),
			Rotation:      [4]float64{rot.Imag, rot.Jmag, rot.Kmag, rot.Real},
			Velocity:      vec3(vel),
			EpisodeNectar: e.agent.EpisodeNectar(),
			SmoothPitch:   pitch,
			SmoothYaw:     yaw,
			Nearest:       e.agent.NearestIndex(),
		},
		Flowers:  make([]telemetry.FlowerState, 0, e.field.Len()),
		Bookmark: bm,
	}
	for _, r := range e.field.Resources() {
		fs := telemetry.FlowerState{
			Sensor:   uint32(r.Sensor()),
			Amount:   r.Amount(),
			Position: vec3(r.Position()),
			Up:       vec3(r.Up()),
		}
		if g := r.Group(); g != nil {
			fs.Group = g.Name
		}
		s.Flowers = append(s.Flowers, fs)
	}
	return s
}

func vec3(v r3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
