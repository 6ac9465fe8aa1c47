package systems

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/nectar/components"
	"github.com/pthm-cable/nectar/geom"
)

// ResourceBody is the physical presence of a resource: its nectar trigger,
// solid petals and visual indicator.
type ResourceBody interface {
	SetFeedable(on bool)
	SetSolid(on bool)
	SetIndicator(i components.Indicator)
	Place(position, up r3.Vec)
}

// RNG is the interface for random number generation.
type RNG interface {
	Float64() float64
	Intn(n int) int
}

// uniform samples U(lo, hi).
func uniform(rng RNG, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// Placement locates a resource inside its plant group.
// With no group, Offset and Up are world-space.
type Placement struct {
	Group        *PlantGroup
	Offset       r3.Vec  // Flower origin relative to the group pivot
	Up           r3.Vec  // Flower up axis in group space
	NectarOffset float64 // Nectar center distance along Up
}

// NectarResource is a single depletable flower.
type NectarResource struct {
	amount    float64
	sensor    components.SensorID
	placement Placement
	body      ResourceBody // nil for pure simulation
}

// NewNectarResource creates a full resource. body may be nil.
func NewNectarResource(sensor components.SensorID, placement Placement, body ResourceBody) *NectarResource {
	if placement.Up == (r3.Vec{}) {
		placement.Up = geom.Up
	}
	placement.Up = r3.Unit(placement.Up)
	return &NectarResource{
		amount:    1,
		sensor:    sensor,
		placement: placement,
		body:      body,
	}
}

// Amount returns the remaining nectar in [0, 1].
func (r *NectarResource) Amount() float64 { return r.amount }

// IsActive reports whether any nectar remains.
func (r *NectarResource) IsActive() bool { return r.amount > 0 }

// Sensor returns the identity of the resource's nectar trigger.
func (r *NectarResource) Sensor() components.SensorID { return r.sensor }

// Group returns the plant group the resource belongs to, or nil.
func (r *NectarResource) Group() *PlantGroup { return r.placement.Group }

// Position returns the flower origin in world space.
func (r *NectarResource) Position() r3.Vec {
	g := r.placement.Group
	if g == nil {
		return r.placement.Offset
	}
	return r3.Add(g.Position, g.Rotation.Rotate(r.placement.Offset))
}

// Up returns the flower's unit up axis in world space.
func (r *NectarResource) Up() r3.Vec {
	g := r.placement.Group
	if g == nil {
		return r.placement.Up
	}
	return geom.SafeUnit(g.Rotation.Rotate(r.placement.Up))
}

// Center returns the nectar center in world space.
func (r *NectarResource) Center() r3.Vec {
	return r3.Add(r.Position(), r3.Scale(r.placement.NectarOffset, r.Up()))
}

// Feed subtracts amount and returns the yield, clamped to [0, remaining].
// The bound is the amount left after subtraction, so the final feeding of a
// flower yields zero. Depleting the flower disables its trigger and petals.
// Negative requests are treated as zero.
func (r *NectarResource) Feed(amount float64) float64 {
	if amount < 0 {
		amount = 0
	}
	r.amount -= amount
	if r.amount <= 0 {
		r.amount = 0
		if r.body != nil {
			r.body.SetSolid(false)
			r.body.SetFeedable(false)
			r.body.SetIndicator(components.IndicatorEmpty)
		}
	}
	return geom.Clamp(amount, 0, r.amount)
}

// Reset refills the resource and restores its trigger and petals.
func (r *NectarResource) Reset() {
	r.amount = 1
	if r.body != nil {
		r.body.SetSolid(true)
		r.body.SetFeedable(true)
		r.body.SetIndicator(components.IndicatorFull)
	}
}

// place moves the body to the resource's current world pose.
func (r *NectarResource) place() {
	if r.body != nil {
		r.body.Place(r.Position(), r.Up())
	}
}
