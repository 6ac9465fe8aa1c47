package systems

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/nectar/components"
	"github.com/pthm-cable/nectar/geom"
)

// PlantGroup is a rotatable subtree of flowers sharing a pivot.
type PlantGroup struct {
	Name     string
	Position r3.Vec      // Pivot in world space
	Rotation r3.Rotation // Re-randomized by ResetAll
}

// LookupError is returned when a sensor is not registered with the field.
type LookupError struct {
	Sensor components.SensorID
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no resource registered for sensor %d", e.Sensor)
}

// ResourceField owns every resource of an area, in discovery order, and maps
// nectar sensors back to their resource.
type ResourceField struct {
	resources []*NectarResource
	index     map[components.SensorID]*NectarResource
	groups    []*PlantGroup

	rng  RNG
	tilt float64 // Max roll/pitch jitter per group, degrees
}

// NewResourceField creates an empty field. tilt bounds the per-group
// pitch and roll applied by ResetAll.
func NewResourceField(rng RNG, tilt float64) *ResourceField {
	return &ResourceField{
		index: make(map[components.SensorID]*NectarResource),
		rng:   rng,
		tilt:  tilt,
	}
}

// AddGroup registers a plant group with an upright orientation.
func (f *ResourceField) AddGroup(name string, pivot r3.Vec) *PlantGroup {
	g := &PlantGroup{Name: name, Position: pivot, Rotation: geom.Identity}
	f.groups = append(f.groups, g)
	return g
}

// AddResource registers a resource. A sensor may only be registered once.
func (f *ResourceField) AddResource(r *NectarResource) error {
	if _, ok := f.index[r.sensor]; ok {
		return fmt.Errorf("sensor %d already registered", r.sensor)
	}
	f.resources = append(f.resources, r)
	f.index[r.sensor] = r
	r.place()
	return nil
}

// ResetAll re-randomizes every plant group's orientation, moves the flowers
// with it and refills them.
func (f *ResourceField) ResetAll() {
	for _, g := range f.groups {
		pitch := uniform(f.rng, -f.tilt, f.tilt)
		yaw := uniform(f.rng, -180, 180)
		roll := uniform(f.rng, -f.tilt, f.tilt)
		g.Rotation = geom.Euler(pitch, yaw, roll)
	}
	for _, r := range f.resources {
		r.place()
		r.Reset()
	}
}

// Lookup returns the resource owning the given nectar sensor.
// Depleted resources are still found.
func (f *ResourceField) Lookup(sensor components.SensorID) (*NectarResource, error) {
	r, ok := f.index[sensor]
	if !ok {
		return nil, &LookupError{Sensor: sensor}
	}
	return r, nil
}

// Resources returns all resources in discovery order.
func (f *ResourceField) Resources() []*NectarResource { return f.resources }

// Len returns the number of resources.
func (f *ResourceField) Len() int { return len(f.resources) }

// At returns the i-th resource.
func (f *ResourceField) At(i int) *NectarResource { return f.resources[i] }

// Groups returns all plant groups in discovery order.
func (f *ResourceField) Groups() []*PlantGroup { return f.groups }

// ActiveCount returns the number of resources with nectar left.
func (f *ResourceField) ActiveCount() int {
	n := 0
	for _, r := range f.resources {
		if r.IsActive() {
			n++
		}
	}
	return n
}

// TotalNectar sums the remaining nectar over all resources.
func (f *ResourceField) TotalNectar() float64 {
	var sum float64
	for _, r := range f.resources {
		sum += r.amount
	}
	return sum
}
