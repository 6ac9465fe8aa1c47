package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/nectar/components"
	"github.com/pthm-cable/nectar/geom"
)

// colliderBox returns the world-space box of a box collider.
func colliderBox(t *components.Transform, c *components.Collider) r3.Box {
	return r3.Box{
		Min: r3.Sub(t.Position, c.HalfExtents),
		Max: r3.Add(t.Position, c.HalfExtents),
	}
}

// closestOnCollider returns the point of the collider's solid closest to p and the
// distance to it. Points inside the solid are returned unchanged at distance 0.
func closestOnCollider(t *components.Transform, c *components.Collider, p r3.Vec) (r3.Vec, float64) {
	switch c.Shape {
	case components.ShapeBox:
		b := colliderBox(t, c)
		q := r3.Vec{
			X: geom.Clamp(p.X, b.Min.X, b.Max.X),
			Y: geom.Clamp(p.Y, b.Min.Y, b.Max.Y),
			Z: geom.Clamp(p.Z, b.Min.Z, b.Max.Z),
		}
		return q, geom.Distance(p, q)
	default:
		d := geom.Distance(p, t.Position)
		if d <= c.Radius {
			return p, 0
		}
		dir := r3.Scale(1/d, r3.Sub(p, t.Position))
		return r3.Add(t.Position, r3.Scale(c.Radius, dir)), d - c.Radius
	}
}

// penetration reports how far a sphere sinks into a collider and the direction
// that pushes it out.
func penetration(t *components.Transform, c *components.Collider, center r3.Vec, radius float64) (normal r3.Vec, depth float64, ok bool) {
	switch c.Shape {
	case components.ShapeBox:
		b := colliderBox(t, c)
		if b.Contains(center) {
			return boxExit(b, center, radius)
		}
		q, d := closestOnCollider(t, c, center)
		if d >= radius {
			return r3.Vec{}, 0, false
		}
		return r3.Scale(1/d, r3.Sub(center, q)), radius - d, true
	default:
		d := geom.Distance(center, t.Position)
		if d >= radius+c.Radius {
			return r3.Vec{}, 0, false
		}
		n := geom.SafeUnit(r3.Sub(center, t.Position))
		if n == (r3.Vec{}) {
			n = geom.Up
		}
		return n, radius + c.Radius - d, true
	}
}

// boxExit finds the shortest way out of a box for a sphere whose center is inside it.
func boxExit(b r3.Box, p r3.Vec, radius float64) (r3.Vec, float64, bool) {
	exits := []struct {
		n r3.Vec
		d float64
	}{
		{r3.Vec{X: -1}, p.X - b.Min.X},
		{r3.Vec{X: 1}, b.Max.X - p.X},
		{r3.Vec{Y: -1}, p.Y - b.Min.Y},
		{r3.Vec{Y: 1}, b.Max.Y - p.Y},
		{r3.Vec{Z: -1}, p.Z - b.Min.Z},
		{r3.Vec{Z: 1}, b.Max.Z - p.Z},
	}
	best := 0
	bestD := math.Inf(1)
	for i, e := range exits {
		if e.d < bestD {
			best, bestD = i, e.d
		}
	}
	return exits[best].n, bestD + radius, true
}

// spheresTouch reports whether a sphere intersects a collider.
func spheresTouch(t *components.Transform, c *components.Collider, center r3.Vec, radius float64) bool {
	_, d := closestOnCollider(t, c, center)
	return d <= radius
}
