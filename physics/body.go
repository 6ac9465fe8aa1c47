package physics

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/nectar/components"
	"github.com/pthm-cable/nectar/geom"
)

// Body is a handle to a dynamic sphere in the world. It satisfies systems.Body.
type Body struct {
	w *World
	e ecs.Entity
}

// NewBody adds a dynamic sphere with a trigger probe at probeOffset (body space).
func (w *World) NewBody(position r3.Vec, rotation r3.Rotation, probeOffset r3.Vec) *Body {
	t := components.Transform{Position: position, Rotation: geom.Normalize(rotation)}
	c := components.Collider{
		Shape:   components.ShapeSphere,
		Radius:  w.cfg.BodyRadius,
		Tag:     components.TagAgent,
		Enabled: true,
	}
	rb := components.RigidBody{Mass: w.cfg.Mass, Drag: w.cfg.Drag}
	p := components.Probe{Offset: probeOffset, Radius: w.cfg.BeakContactRadius}
	e := w.bodyMapper.NewEntity(&t, &c, &rb, &p)
	return &Body{w: w, e: e}
}

// Entity returns the body's ECS entity.
func (b *Body) Entity() ecs.Entity { return b.e }

// Position returns the body's world position.
func (b *Body) Position() r3.Vec {
	return b.w.transformMap.Get(b.e).Position
}

// Rotation returns the body's orientation.
func (b *Body) Rotation() r3.Rotation {
	return b.w.transformMap.Get(b.e).Rotation
}

// SetPose teleports the body.
func (b *Body) SetPose(position r3.Vec, rotation r3.Rotation) {
	t := b.w.transformMap.Get(b.e)
	t.Position = position
	t.Rotation = geom.Normalize(rotation)
}

// SetRotation assigns the orientation directly; no torque is involved.
func (b *Body) SetRotation(rotation r3.Rotation) {
	b.w.transformMap.Get(b.e).Rotation = geom.Normalize(rotation)
}

// AddForce accumulates a world-space force for the next step.
func (b *Body) AddForce(f r3.Vec) {
	rb := b.w.rigidMap.Get(b.e)
	rb.Force = r3.Add(rb.Force, f)
}

// Stop clears linear and angular velocity.
func (b *Body) Stop() {
	rb := b.w.rigidMap.Get(b.e)
	rb.Velocity = r3.Vec{}
	rb.AngularVelocity = r3.Vec{}
}

// Sleep quiesces the body until WakeUp.
func (b *Body) Sleep() {
	rb := b.w.rigidMap.Get(b.e)
	rb.Sleeping = true
	rb.Velocity = r3.Vec{}
	rb.AngularVelocity = r3.Vec{}
}

// WakeUp resumes integration.
func (b *Body) WakeUp() {
	b.w.rigidMap.Get(b.e).Sleeping = false
}

// Sleeping reports whether the body is quiesced.
func (b *Body) Sleeping() bool {
	return b.w.rigidMap.Get(b.e).Sleeping
}

// Velocity returns the body's linear velocity.
func (b *Body) Velocity() r3.Vec {
	return b.w.rigidMap.Get(b.e).Velocity
}

// ProbePosition returns the trigger probe's world position.
func (b *Body) ProbePosition() r3.Vec {
	t := b.w.transformMap.Get(b.e)
	p := b.w.probeMap.Get(b.e)
	return r3.Add(t.Position, t.Rotation.Rotate(p.Offset))
}
