package systems

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/nectar/components"
	"github.com/pthm-cable/nectar/geom"
)

// ProximityEvent reports that a trigger overlaps the agent. It is delivered
// every tick for as long as the overlap lasts.
type ProximityEvent struct {
	Sensor components.SensorID
	Tag    components.Tag
}

// OnProximityOverlap feeds from a nectar trigger when the beak tip is within
// reach of it. Other triggers are ignored.
func (a *ForagingAgent) OnProximityOverlap(ev ProximityEvent) error {
	if ev.Tag != components.TagNectar {
		return nil
	}

	tip := a.FeedingPoint()
	closest, ok := a.query.ClosestPoint(ev.Sensor, tip)
	if !ok {
		return fmt.Errorf("nectar overlap: %w", &LookupError{Sensor: ev.Sensor})
	}
	if geom.Distance(tip, closest) >= a.agentCfg.BeakTipRadius {
		return nil
	}

	r, err := a.field.Lookup(ev.Sensor)
	if err != nil {
		return fmt.Errorf("nectar overlap: %w", err)
	}

	wasActive := r.IsActive()
	received := r.Feed(a.feedAmt)
	a.episodeNectar += received
	a.counters.Feeds++

	if a.IsTraining() {
		down := r3.Scale(-1, r.Up())
		bonus := a.rewardCfg.AlignBonus * geom.Clamp01(r3.Dot(a.Forward(), down))
		a.reward(a.rewardCfg.Feed + bonus)
	}

	if !r.IsActive() {
		if wasActive {
			a.counters.Emptied++
		}
		a.RecomputeNearestResource()
	}
	return nil
}

// OnCollision handles a solid contact with the given tag.
func (a *ForagingAgent) OnCollision(tag components.Tag) {
	switch tag {
	case components.TagBoundary:
		a.OnBoundaryCollision()
	case components.TagPetal:
		// Brushing petals is free
	}
}

// OnBoundaryCollision penalizes hitting the area boundary during training.
func (a *ForagingAgent) OnBoundaryCollision() {
	a.counters.BoundaryHits++
	if a.IsTraining() {
		a.reward(a.rewardCfg.Boundary)
	}
}
