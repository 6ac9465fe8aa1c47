// Package physics is the reference rigid-body integrator and collision world
// the foraging core runs against. Colliders and bodies live in an ark ECS world.
package physics

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/nectar/components"
	"github.com/pthm-cable/nectar/config"
	"github.com/pthm-cable/nectar/geom"
)

// World owns all colliders and rigid bodies.
type World struct {
	world *ecs.World

	colliders *ecs.Filter2[components.Transform, components.Collider]
	bodies    *ecs.Filter2[components.Transform, components.RigidBody]
	triggers  *ecs.Filter3[components.Transform, components.Collider, components.Sensor]

	staticMapper *ecs.Map2[components.Transform, components.Collider]
	sensorMapper *ecs.Map3[components.Transform, components.Collider, components.Sensor]
	petalMapper  *ecs.Map3[components.Transform, components.Collider, components.Appearance]
	bodyMapper   *ecs.Map4[components.Transform, components.Collider, components.RigidBody, components.Probe]

	transformMap  *ecs.Map1[components.Transform]
	colliderMap   *ecs.Map1[components.Collider]
	rigidMap      *ecs.Map1[components.RigidBody]
	probeMap      *ecs.Map1[components.Probe]
	sensorMap     *ecs.Map1[components.Sensor]
	appearanceMap *ecs.Map1[components.Appearance]

	// Sensor identity -> trigger entity
	sensors    map[components.SensorID]ecs.Entity
	nextSensor components.SensorID

	cfg config.PhysicsConfig

	// Scratch buffer reused by contact detection
	hits []hit
}

// NewWorld creates an empty physics world.
func NewWorld(cfg config.PhysicsConfig) *World {
	w := ecs.NewWorld()
	return &World{
		world:         w,
		colliders:     ecs.NewFilter2[components.Transform, components.Collider](w),
		bodies:        ecs.NewFilter2[components.Transform, components.RigidBody](w),
		triggers:      ecs.NewFilter3[components.Transform, components.Collider, components.Sensor](w),
		staticMapper:  ecs.NewMap2[components.Transform, components.Collider](w),
		sensorMapper:  ecs.NewMap3[components.Transform, components.Collider, components.Sensor](w),
		petalMapper:   ecs.NewMap3[components.Transform, components.Collider, components.Appearance](w),
		bodyMapper:    ecs.NewMap4[components.Transform, components.Collider, components.RigidBody, components.Probe](w),
		transformMap:  ecs.NewMap1[components.Transform](w),
		colliderMap:   ecs.NewMap1[components.Collider](w),
		rigidMap:      ecs.NewMap1[components.RigidBody](w),
		probeMap:      ecs.NewMap1[components.Probe](w),
		sensorMap:     ecs.NewMap1[components.Sensor](w),
		appearanceMap: ecs.NewMap1[components.Appearance](w),
		sensors:       make(map[components.SensorID]ecs.Entity),
		nextSensor:    1,
		cfg:           cfg,
	}
}

// AddSphere adds a static sphere collider.
func (w *World) AddSphere(center r3.Vec, radius float64, tag components.Tag) ecs.Entity {
	t := components.Transform{Position: center, Rotation: geom.Identity}
	c := components.Collider{Shape: components.ShapeSphere, Radius: radius, Tag: tag, Enabled: true}
	return w.staticMapper.NewEntity(&t, &c)
}

// AddBox adds a static axis-aligned box collider.
func (w *World) AddBox(box r3.Box, tag components.Tag) ecs.Entity {
	box = box.Canon()
	t := components.Transform{Position: box.Center(), Rotation: geom.Identity}
	c := components.Collider{
		Shape:       components.ShapeBox,
		HalfExtents: r3.Scale(0.5, box.Size()),
		Tag:         tag,
		Enabled:     true,
	}
	return w.staticMapper.NewEntity(&t, &c)
}

// AddBoundary encloses the interior box with six solid walls of the given thickness.
func (w *World) AddBoundary(interior r3.Box, thickness float64) []ecs.Entity {
	in := interior.Canon()
	lo, hi := in.Min, in.Max
	walls := []r3.Box{
		r3.NewBox(lo.X-thickness, lo.Y-thickness, lo.Z-thickness, lo.X, hi.Y+thickness, hi.Z+thickness), // -X
		r3.NewBox(hi.X, lo.Y-thickness, lo.Z-thickness, hi.X+thickness, hi.Y+thickness, hi.Z+thickness), // +X
		r3.NewBox(lo.X, lo.Y-thickness, lo.Z-thickness, hi.X, lo.Y, hi.Z+thickness),                     // floor
		r3.NewBox(lo.X, hi.Y, lo.Z-thickness, hi.X, hi.Y+thickness, hi.Z+thickness),                     // ceiling
		r3.NewBox(lo.X, lo.Y, lo.Z-thickness, hi.X, hi.Y, lo.Z),                                         // -Z
		r3.NewBox(lo.X, lo.Y, hi.Z, hi.X, hi.Y, hi.Z+thickness),                                         // +Z
	}
	entities := make([]ecs.Entity, len(walls))
	for i, b := range walls {
		entities[i] = w.AddBox(b, components.TagBoundary)
	}
	return entities
}

// AddSensor adds a trigger sphere and returns its identity.
func (w *World) AddSensor(center r3.Vec, radius float64, tag components.Tag) components.SensorID {
	id := w.nextSensor
	w.nextSensor++

	t := components.Transform{Position: center, Rotation: geom.Identity}
	c := components.Collider{Shape: components.ShapeSphere, Radius: radius, Tag: tag, Trigger: true, Enabled: true}
	s := components.Sensor{ID: id}
	w.sensors[id] = w.sensorMapper.NewEntity(&t, &c, &s)
	return id
}

// SetEnabled toggles a collider.
func (w *World) SetEnabled(e ecs.Entity, enabled bool) {
	if c := w.colliderMap.Get(e); c != nil {
		c.Enabled = enabled
	}
}

// Move sets a static collider's position.
func (w *World) Move(e ecs.Entity, position r3.Vec) {
	if t := w.transformMap.Get(e); t != nil {
		t.Position = position
	}
}

// Overlap counts enabled colliders, triggers included, intersecting the sphere.
// The agent's own body is never counted.
func (w *World) Overlap(center r3.Vec, radius float64) int {
	count := 0
	query := w.colliders.Query()
	for query.Next() {
		t, c := query.Get()
		if !c.Enabled || c.Tag == components.TagAgent {
			continue
		}
		if _, d := closestOnCollider(t, c, center); d <= radius {
			count++
		}
	}
	return count
}

// ClosestPoint returns the point on the sensor's surface closest to p,
// or p itself when p lies inside the sensor.
func (w *World) ClosestPoint(id components.SensorID, p r3.Vec) (r3.Vec, bool) {
	e, ok := w.sensors[id]
	if !ok || !w.world.Alive(e) {
		return r3.Vec{}, false
	}
	pt, _ := closestOnCollider(w.transformMap.Get(e), w.colliderMap.Get(e), p)
	return pt, true
}

// Step integrates every awake rigid body by dt seconds and clears accumulated forces.
func (w *World) Step(dt float64) {
	query := w.bodies.Query()
	for query.Next() {
		t, rb := query.Get()
		if rb.Sleeping {
			rb.Force = r3.Vec{}
			continue
		}

		mass := rb.Mass
		if mass <= 0 {
			mass = 1
		}
		rb.Velocity = r3.Add(rb.Velocity, r3.Scale(dt/mass, rb.Force))

		// Linear damping
		damp := 1 - rb.Drag*dt
		if damp < 0 {
			damp = 0
		}
		rb.Velocity = r3.Scale(damp, rb.Velocity)

		t.Position = r3.Add(t.Position, r3.Scale(dt, rb.Velocity))
		rb.Force = r3.Vec{}
	}
}

// SensorCount returns the number of registered sensors.
func (w *World) SensorCount() int {
	return len(w.sensors)
}
