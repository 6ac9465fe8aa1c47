// Package components defines ECS components for the physics world.
package components

// Tag classifies colliders for contact dispatch.
type Tag uint8

const (
	TagNone     Tag = iota
	TagNectar       // Flower nectar sensor (trigger)
	TagPetal        // Flower solid body
	TagBoundary     // Field walls, floor and ceiling
	TagAgent        // The foraging agent's own body
)

// SensorID identifies a trigger volume across the physics world and the resource field.
type SensorID uint32

// Indicator is the visual fill state of a flower.
type Indicator uint8

const (
	IndicatorFull Indicator = iota
	IndicatorEmpty
)

// Sensor links a trigger collider to its public identity.
type Sensor struct {
	ID SensorID
}

// Appearance holds the visual indicator of a flower's petals.
type Appearance struct {
	Indicator Indicator
}
