package game

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/nectar/geom"
	"github.com/pthm-cable/nectar/systems"
)

// Controller picks an action from an observation.
type Controller interface {
	Act(obs systems.Observation) systems.Action
}

// episodeResetter is implemented by controllers with per-episode state.
type episodeResetter interface {
	ResetEpisode()
}

// SeekController flies straight at the nearest nectar and turns the beak
// toward it. It only reads the observation.
type SeekController struct {
	Diameter  float64 // field diameter used to denormalize distance
	SlowRange float64 // distance below which thrust scales down, metres
	TurnRange float64 // heading error that saturates the turn rate, degrees
}

// NewSeekController creates a seek controller for a field of the given diameter.
func NewSeekController(diameter float64) *SeekController {
	return &SeekController{Diameter: diameter, SlowRange: 0.5, TurnRange: 30}
}

// Act implements Controller.
func (c *SeekController) Act(obs systems.Observation) systems.Action {
	var a systems.Action
	if obs == (systems.Observation{}) {
		// No flower left to seek
		return a
	}

	dir := r3.Vec{X: obs[4], Y: obs[5], Z: obs[6]}
	dist := obs[9] * c.Diameter

	thrust := 1.0
	if c.SlowRange > 0 {
		thrust = geom.Clamp01(dist / c.SlowRange)
	}
	a[0], a[1], a[2] = dir.X*thrust, dir.Y*thrust, dir.Z*thrust

	rot := r3.Rotation{Real: obs[3], Imag: obs[0], Jmag: obs[1], Kmag: obs[2]}
	pitch, yaw, _ := geom.EulerAngles(rot)

	wantPitch := math.Asin(geom.Clamp(-dir.Y, -1, 1)) * 180 / math.Pi
	wantYaw := math.Atan2(dir.X, dir.Z) * 180 / math.Pi

	a[3] = geom.Clamp(angleDelta(pitch, wantPitch)/c.TurnRange, -1, 1)
	a[4] = geom.Clamp(angleDelta(yaw, wantYaw)/c.TurnRange, -1, 1)
	return a
}

// angleDelta returns the signed turn from a to b in (-180, 180] degrees.
func angleDelta(a, b float64) float64 {
	d := geom.WrapDegrees(b - a)
	if d > 180 {
		d -= 360
	}
	return d
}

// RandomController draws a uniform action and holds it for a few ticks.
type RandomController struct {
	rng  *rand.Rand
	hold int

	current systems.Action
	left    int
}

// NewRandomController creates a random controller. hold < 1 draws every tick.
func NewRandomController(rng *rand.Rand, hold int) *RandomController {
	if hold < 1 {
		hold = 1
	}
	return &RandomController{rng: rng, hold: hold}
}

// Act implements Controller.
func (c *RandomController) Act(systems.Observation) systems.Action {
	if c.left == 0 {
		for i := range c.current {
			c.current[i] = c.rng.Float64()*2 - 1
		}
		c.left = c.hold
	}
	c.left--
	return c.current
}

// ResetEpisode forces a fresh draw on the next tick.
func (c *RandomController) ResetEpisode() {
	c.left = 0
}

// ManualInput is the state of the manual flight keys.
type ManualInput struct {
	Forward, Back      bool // W / S
	Left, Right        bool // A / D
	Ascend, Descend    bool // Space / C
	YawLeft, YawRight  bool // Q / E
	PitchUp, PitchDown bool // Up / Down arrows
}

// ManualAction maps held keys to an action relative to the body rotation.
// The movement direction is normalized; pitch and yaw are -1, 0 or 1.
func ManualAction(in ManualInput, rot r3.Rotation) systems.Action {
	var move r3.Vec

	if in.Forward {
		move = r3.Add(move, geom.ForwardOf(rot))
	} else if in.Back {
		move = r3.Sub(move, geom.ForwardOf(rot))
	}

	right := rot.Rotate(geom.Right)
	if in.Left {
		move = r3.Sub(move, right)
	} else if in.Right {
		move = r3.Add(move, right)
	}

	if in.Ascend {
		move = r3.Add(move, geom.Up)
	} else if in.Descend {
		move = r3.Sub(move, geom.Up)
	}

	move = geom.SafeUnit(move)

	var a systems.Action
	a[0], a[1], a[2] = move.X, move.Y, move.Z

	if in.PitchUp {
		a[3] = -1
	} else if in.PitchDown {
		a[3] = 1
	}
	if in.YawLeft {
		a[4] = -1
	} else if in.YawRight {
		a[4] = 1
	}
	return a
}
