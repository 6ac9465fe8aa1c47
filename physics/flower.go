package physics

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/nectar/components"
	"github.com/pthm-cable/nectar/geom"
)

// FlowerBody is the physical side of a flower: a solid petal sphere and a nectar
// trigger placed along the flower's up axis. It satisfies systems.ResourceBody.
type FlowerBody struct {
	w            *World
	petal        ecs.Entity
	nectar       ecs.Entity
	sensor       components.SensorID
	nectarOffset float64
}

// NewFlowerBody adds petal and nectar colliders for a flower at position with the given up axis.
func (w *World) NewFlowerBody(position, up r3.Vec, petalRadius, nectarRadius, nectarOffset float64) *FlowerBody {
	t := components.Transform{Position: position, Rotation: geom.Identity}
	c := components.Collider{Shape: components.ShapeSphere, Radius: petalRadius, Tag: components.TagPetal, Enabled: true}
	a := components.Appearance{Indicator: components.IndicatorFull}
	petal := w.petalMapper.NewEntity(&t, &c, &a)

	id := w.AddSensor(r3.Add(position, r3.Scale(nectarOffset, up)), nectarRadius, components.TagNectar)

	return &FlowerBody{
		w:            w,
		petal:        petal,
		nectar:       w.sensors[id],
		sensor:       id,
		nectarOffset: nectarOffset,
	}
}

// Sensor returns the nectar trigger's identity.
func (f *FlowerBody) Sensor() components.SensorID { return f.sensor }

// SetFeedable enables or disables the nectar trigger.
func (f *FlowerBody) SetFeedable(on bool) { f.w.SetEnabled(f.nectar, on) }

// SetSolid enables or disables the petal collider.
func (f *FlowerBody) SetSolid(on bool) { f.w.SetEnabled(f.petal, on) }

// SetIndicator switches the petal appearance.
func (f *FlowerBody) SetIndicator(i components.Indicator) {
	f.w.appearanceMap.Get(f.petal).Indicator = i
}

// Place moves both colliders to the flower's current pose.
func (f *FlowerBody) Place(position, up r3.Vec) {
	f.w.Move(f.petal, position)
	f.w.Move(f.nectar, r3.Add(position, r3.Scale(f.nectarOffset, up)))
}

// Indicator returns the current petal appearance.
func (f *FlowerBody) Indicator() components.Indicator {
	return f.w.appearanceMap.Get(f.petal).Indicator
}

// Feedable reports whether the nectar trigger is enabled.
func (f *FlowerBody) Feedable() bool {
	return f.w.colliderMap.Get(f.nectar).Enabled
}

// Solid reports whether the petal collider is enabled.
func (f *FlowerBody) Solid() bool {
	return f.w.colliderMap.Get(f.petal).Enabled
}

// NectarCenter returns the nectar trigger's world position.
func (f *FlowerBody) NectarCenter() r3.Vec {
	return f.w.transformMap.Get(f.nectar).Position
}
