package systems

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/nectar/components"
	"github.com/pthm-cable/nectar/config"
	"github.com/pthm-cable/nectar/geom"
)

// Body is the rigid body the agent flies.
type Body interface {
	Position() r3.Vec
	Rotation() r3.Rotation
	SetPose(position r3.Vec, rotation r3.Rotation)
	SetRotation(rotation r3.Rotation)
	AddForce(f r3.Vec)
	Stop()
	Sleep()
	WakeUp()
}

// CollisionQuery answers spatial questions about the scene.
type CollisionQuery interface {
	// Overlap counts colliders intersecting the sphere.
	Overlap(center r3.Vec, radius float64) int
	// ClosestPoint returns the point of a sensor closest to p.
	ClosestPoint(sensor components.SensorID, p r3.Vec) (r3.Vec, bool)
}

// RewardSink receives shaped rewards.
type RewardSink interface {
	AddReward(r float64)
}

// AgentMode selects training or interactive behavior.
type AgentMode interface {
	isAgentMode()
}

// Training resets the field every episode and shapes rewards.
type Training struct{}

// Interactive never resets the field and can be frozen.
type Interactive struct {
	Frozen bool
}

func (Training) isAgentMode()    {}
func (Interactive) isAgentMode() {}

// Action is [forceX, forceY, forceZ, pitchRate, yawRate].
type Action [5]float64

// Counters track per-episode agent events.
type Counters struct {
	Feeds          int
	Emptied        int
	BoundaryHits   int
	SpawnAttempts  int
	SpawnedInFront bool
}

// ForagingAgent is the hummingbird: it steers its body, feeds on nectar and
// keeps track of the closest flower that still has nectar.
type ForagingAgent struct {
	field *ResourceField
	body  Body
	query CollisionQuery
	sink  RewardSink
	rng   RNG
	mode  AgentMode

	agentCfg  config.AgentConfig
	spawnCfg  config.SpawnConfig
	rewardCfg config.RewardConfig
	dt        float64
	diameter  float64
	feedAmt   float64
	origin    r3.Vec

	// Index into field.Resources(), -1 when unset
	nearest int

	episodeNectar float64
	smoothPitch   float64
	smoothYaw     float64
	counters      Counters
}

// NewForagingAgent creates an agent over a populated field.
func NewForagingAgent(cfg *config.Config, field *ResourceField, body Body, query CollisionQuery, sink RewardSink, rng RNG, mode AgentMode) *ForagingAgent {
	if mode == nil {
		mode = Training{}
	}
	return &ForagingAgent{
		field:     field,
		body:      body,
		query:     query,
		sink:      sink,
		rng:       rng,
		mode:      mode,
		agentCfg:  cfg.Agent,
		spawnCfg:  cfg.Spawn,
		rewardCfg: cfg.Reward,
		dt:        cfg.Physics.DT,
		diameter:  cfg.Field.Diameter,
		feedAmt:   cfg.Field.FeedAmount,
		origin:    cfg.Field.Origin.Vec(),
		nearest:   -1,
	}
}

// IsTraining reports whether the agent is in training mode.
func (a *ForagingAgent) IsTraining() bool {
	_, ok := a.mode.(Training)
	return ok
}

// Frozen reports whether an interactive agent is frozen.
func (a *ForagingAgent) Frozen() bool {
	m, ok := a.mode.(Interactive)
	return ok && m.Frozen
}

// Mode returns the current mode.
func (a *ForagingAgent) Mode() AgentMode { return a.mode }

// Step applies one action: a world-space force and rate-limited pitch/yaw changes.
// Frozen agents ignore actions.
func (a *ForagingAgent) Step(action Action) {
	if a.Frozen() {
		return
	}

	move := r3.Vec{X: action[0], Y: action[1], Z: action[2]}
	a.body.AddForce(r3.Scale(a.agentCfg.MoveForce, move))

	maxDelta := a.agentCfg.SmoothRate * a.dt
	a.smoothPitch = geom.MoveTowards(a.smoothPitch, action[3], maxDelta)
	a.smoothYaw = geom.MoveTowards(a.smoothYaw, action[4], maxDelta)

	pitch, yaw, _ := geom.EulerAngles(a.body.Rotation())

	pitch += a.smoothPitch * a.dt * a.agentCfg.PitchSpeed
	if pitch >= 180 {
		pitch -= 360
	}
	pitch = geom.Clamp(pitch, -a.agentCfg.MaxPitch, a.agentCfg.MaxPitch)

	yaw += a.smoothYaw * a.dt * a.agentCfg.YawSpeed

	a.body.SetRotation(geom.Euler(pitch, yaw, 0))
}

// Tick refreshes the nearest cache when the cached flower ran dry.
func (a *ForagingAgent) Tick() {
	if a.nearest >= 0 && !a.field.At(a.nearest).IsActive() {
		a.RecomputeNearestResource()
	}
}

// RecomputeNearestResource selects the active resource whose nectar center is
// closest to the beak tip. With no active resource the cache is left as is.
func (a *ForagingAgent) RecomputeNearestResource() {
	tip := a.FeedingPoint()
	best := -1
	bestDist := 0.0
	for i, r := range a.field.Resources() {
		if !r.IsActive() {
			continue
		}
		d := geom.Distance(tip, r.Center())
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best >= 0 {
		a.nearest = best
	}
}

// Freeze stops an interactive agent in place.
func (a *ForagingAgent) Freeze() error {
	m, ok := a.mode.(Interactive)
	if !ok {
		return fmt.Errorf("freeze: %w", ErrModeMismatch)
	}
	m.Frozen = true
	a.mode = m
	a.body.Sleep()
	return nil
}

// Unfreeze resumes an interactive agent.
func (a *ForagingAgent) Unfreeze() error {
	m, ok := a.mode.(Interactive)
	if !ok {
		return fmt.Errorf("unfreeze: %w", ErrModeMismatch)
	}
	m.Frozen = false
	a.mode = m
	a.body.WakeUp()
	return nil
}

// FeedingPoint returns the beak tip in world space.
func (a *ForagingAgent) FeedingPoint() r3.Vec {
	rot := a.body.Rotation()
	return r3.Add(a.body.Position(), rot.Rotate(a.agentCfg.BeakOffset.Vec()))
}

// Forward returns the agent's unit forward axis.
func (a *ForagingAgent) Forward() r3.Vec {
	return geom.ForwardOf(a.body.Rotation())
}

// Nearest returns the cached nearest resource, or nil.
func (a *ForagingAgent) Nearest() *NectarResource {
	if a.nearest < 0 {
		return nil
	}
	return a.field.At(a.nearest)
}

// NearestIndex returns the cached resource index, -1 when unset.
func (a *ForagingAgent) NearestIndex() int { return a.nearest }

// EpisodeNectar returns the nectar obtained this episode.
func (a *ForagingAgent) EpisodeNectar() float64 { return a.episodeNectar }

// SmoothedRates returns the current smoothed pitch and yaw rates.
func (a *ForagingAgent) SmoothedRates() (pitch, yaw float64) {
	return a.smoothPitch, a.smoothYaw
}

// Counters returns this episode's event counters.
func (a *ForagingAgent) Counters() Counters { return a.counters }

// Field returns the field the agent forages in.
func (a *ForagingAgent) Field() *ResourceField { return a.field }

func (a *ForagingAgent) reward(r float64) {
	if a.sink != nil {
		a.sink.AddReward(r)
	}
}
