package physics

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/nectar/components"
)

// ContactKind distinguishes trigger overlaps from solid collisions.
type ContactKind uint8

const (
	// ContactTrigger is reported every step while a trigger overlaps the body or its probe.
	ContactTrigger ContactKind = iota
	// ContactCollision is reported when a solid collider pushed the body out.
	ContactCollision
)

// Contact is one event produced by Contacts.
type Contact struct {
	Kind   ContactKind
	Entity ecs.Entity // the collider touched
	Tag    components.Tag
	Sensor components.SensorID // zero for solid colliders
}

// hit is a solid penetration found during the query, resolved after it.
type hit struct {
	normal r3.Vec
	depth  float64
	entity ecs.Entity
	tag    components.Tag
}

// Contacts appends the body's current contacts to dst and resolves solid
// penetrations by pushing the body out and removing inward velocity.
// Trigger contacts are reported for every step the overlap persists.
func (w *World) Contacts(b *Body, dst []Contact) []Contact {
	t := w.transformMap.Get(b.e)
	self := w.colliderMap.Get(b.e)
	probe := w.probeMap.Get(b.e)
	center := t.Position
	probeCenter := r3.Add(center, t.Rotation.Rotate(probe.Offset))

	// Triggers
	tq := w.triggers.Query()
	for tq.Next() {
		st, sc, s := tq.Get()
		if !sc.Enabled {
			continue
		}
		if spheresTouch(st, sc, center, self.Radius) || spheresTouch(st, sc, probeCenter, probe.Radius) {
			dst = append(dst, Contact{Kind: ContactTrigger, Entity: tq.Entity(), Tag: sc.Tag, Sensor: s.ID})
		}
	}

	// Solids: collect first, resolve once the query is closed
	w.hits = w.hits[:0]
	cq := w.colliders.Query()
	for cq.Next() {
		ct, cc := cq.Get()
		if !cc.Enabled || cc.Trigger || cc.Tag == components.TagAgent {
			continue
		}
		if n, d, ok := penetration(ct, cc, center, self.Radius); ok {
			w.hits = append(w.hits, hit{normal: n, depth: d, entity: cq.Entity(), tag: cc.Tag})
		}
	}

	if len(w.hits) == 0 {
		return dst
	}
	rb := w.rigidMap.Get(b.e)
	for _, h := range w.hits {
		t.Position = r3.Add(t.Position, r3.Scale(h.depth, h.normal))
		if vn := r3.Dot(rb.Velocity, h.normal); vn < 0 {
			rb.Velocity = r3.Sub(rb.Velocity, r3.Scale(vn, h.normal))
		}
		dst = append(dst, Contact{Kind: ContactCollision, Entity: h.entity, Tag: h.tag})
	}
	return dst
}
