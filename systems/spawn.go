package systems

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/nectar/geom"
)

// BeginEpisode prepares a new episode: in training the field is reset, the
// body is stopped and teleported to a collision-free pose found by rejection
// sampling, and the nearest cache is refreshed.
//
// Returns an error wrapping ErrSpawnExhausted when every attempt overlapped
// something; the agent is left where it was.
func (a *ForagingAgent) BeginEpisode() error {
	training := a.IsTraining()
	if training {
		a.field.ResetAll()
	}

	a.episodeNectar = 0
	a.counters = Counters{}
	if a.agentCfg.ResetSmoothing {
		a.smoothPitch, a.smoothYaw = 0, 0
	}
	a.body.Stop()

	inFront := training && a.field.Len() > 0 && a.rng.Float64() < a.spawnCfg.FrontChance

	var (
		pos   r3.Vec
		rot   r3.Rotation
		found bool
	)
	for attempt := 0; attempt < a.spawnCfg.Attempts; attempt++ {
		a.counters.SpawnAttempts++
		if inFront {
			pos, rot = a.frontCandidate()
		} else {
			pos, rot = a.openCandidate()
		}
		if a.query.Overlap(pos, a.spawnCfg.Clearance) == 0 {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("begin episode after %d attempts (in front: %t): %w",
			a.counters.SpawnAttempts, inFront, ErrSpawnExhausted)
	}

	if a.counters.SpawnAttempts > 1 {
		slog.Debug("spawn rejected candidates", "attempts", a.counters.SpawnAttempts, "in_front", inFront)
	}
	a.counters.SpawnedInFront = inFront
	a.body.SetPose(pos, rot)
	a.RecomputeNearestResource()
	return nil
}

// frontCandidate hovers in front of a random flower, facing its nectar.
func (a *ForagingAgent) frontCandidate() (r3.Vec, r3.Rotation) {
	r := a.field.At(a.rng.Intn(a.field.Len()))
	dist := uniform(a.rng, a.spawnCfg.FrontDistance.Min, a.spawnCfg.FrontDistance.Max)
	pos := r3.Add(r.Position(), r3.Scale(dist, r.Up()))
	return pos, geom.LookRotation(r3.Sub(r.Center(), pos))
}

// openCandidate picks a point above the field at a random bearing and height.
func (a *ForagingAgent) openCandidate() (r3.Vec, r3.Rotation) {
	height := uniform(a.rng, a.spawnCfg.Height.Min, a.spawnCfg.Height.Max)
	radius := uniform(a.rng, a.spawnCfg.Radius.Min, a.spawnCfg.Radius.Max)
	bearing := geom.Euler(0, uniform(a.rng, -180, 180), 0)

	pos := r3.Add(a.origin, r3.Scale(height, geom.Up))
	pos = r3.Add(pos, r3.Scale(radius, bearing.Rotate(geom.Forward)))

	pitch := uniform(a.rng, a.spawnCfg.Pitch.Min, a.spawnCfg.Pitch.Max)
	yaw := uniform(a.rng, -180, 180)
	return pos, geom.Euler(pitch, yaw, 0)
}
