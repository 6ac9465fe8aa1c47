package systems

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/nectar/geom"
)

// ObservationSize is the length of the observation vector.
const ObservationSize = 10

// Observation layout:
//
//	[0:4] body rotation quaternion (x, y, z, w), normalized
//	[4:7] unit direction from beak tip to nearest nectar center
//	[7]   dot(direction, -flower up)
//	[8]   dot(forward, -flower up)
//	[9]   beak tip to nectar distance / field diameter
type Observation [ObservationSize]float64

// Observe builds the observation for the current state. Without a nearest
// flower the observation is all zeros.
func (a *ForagingAgent) Observe() Observation {
	var obs Observation
	r := a.Nearest()
	if r == nil {
		return obs
	}

	q := geom.Normalize(a.body.Rotation())
	obs[0], obs[1], obs[2], obs[3] = q.Imag, q.Jmag, q.Kmag, q.Real

	toFlower := r3.Sub(r.Center(), a.FeedingPoint())
	dir := geom.SafeUnit(toFlower)
	down := r3.Scale(-1, r.Up())
	obs[4], obs[5], obs[6] = dir.X, dir.Y, dir.Z
	obs[7] = r3.Dot(dir, down)
	obs[8] = r3.Dot(a.Forward(), down)
	obs[9] = r3.Norm(toFlower) / a.diameter
	return obs
}
