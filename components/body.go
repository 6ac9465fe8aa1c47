package components

import "gonum.org/v1/gonum/spatial/r3"

// ShapeKind selects collider geometry.
type ShapeKind uint8

const (
	ShapeSphere ShapeKind = iota
	ShapeBox              // Axis-aligned, centered on the transform
)

// Collider describes collision geometry.
// Triggers report overlaps but never push bodies apart.
type Collider struct {
	Shape       ShapeKind
	Radius      float64 // Sphere only
	HalfExtents r3.Vec  // Box only
	Tag         Tag
	Trigger     bool
	Enabled     bool
}

// Probe is a small trigger-detecting sphere attached to a body, in body space.
type Probe struct {
	Offset r3.Vec
	Radius float64
}
