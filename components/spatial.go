package components

import "gonum.org/v1/gonum/spatial/r3"

// Transform places an entity in world space.
type Transform struct {
	Position r3.Vec
	Rotation r3.Rotation
}

// RigidBody holds the integrator state of a dynamic entity.
type RigidBody struct {
	Velocity        r3.Vec
	AngularVelocity r3.Vec
	Force           r3.Vec // Accumulated for the next step, cleared after integration
	Mass            float64
	Drag            float64 // Linear damping per second
	Sleeping        bool
}
