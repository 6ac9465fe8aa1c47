package systems

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/nectar/components"
	"github.com/pthm-cable/nectar/config"
	"github.com/pthm-cable/nectar/geom"
)

func init() {
	// Initialize config for tests
	config.MustInit("")
}

// fakeBody records the calls made by the agent.
type fakeBody struct {
	pos      r3.Vec
	rot      r3.Rotation
	force    r3.Vec
	stops    int
	sleeping bool
}

func newFakeBody() *fakeBody { return &fakeBody{rot: geom.Identity} }

func (b *fakeBody) Position() r3.Vec      { return b.pos }
func (b *fakeBody) Rotation() r3.Rotation { return b.rot }
func (b *fakeBody) SetPose(p r3.Vec, r r3.Rotation) {
	b.pos, b.rot = p, r
}
func (b *fakeBody) SetRotation(r r3.Rotation) { b.rot = r }
func (b *fakeBody) AddForce(f r3.Vec)         { b.force = r3.Add(b.force, f) }
func (b *fakeBody) Stop()                     { b.stops++ }
func (b *fakeBody) Sleep()                    { b.sleeping = true }
func (b *fakeBody) WakeUp()                   { b.sleeping = false }

// fakeCollision answers closest-point queries against sensor spheres and
// reports a fixed overlap count.
type fakeCollision struct {
	overlap      int
	overlapCalls int
	sensors      map[components.SensorID]sphere
}

type sphere struct {
	center r3.Vec
	radius float64
}

func newFakeCollision() *fakeCollision {
	return &fakeCollision{sensors: make(map[components.SensorID]sphere)}
}

func (c *fakeCollision) Overlap(r3.Vec, float64) int {
	c.overlapCalls++
	return c.overlap
}

func (c *fakeCollision) ClosestPoint(id components.SensorID, p r3.Vec) (r3.Vec, bool) {
	s, ok := c.sensors[id]
	if !ok {
		return r3.Vec{}, false
	}
	d := geom.Distance(p, s.center)
	if d <= s.radius {
		return p, true
	}
	return r3.Add(s.center, r3.Scale(s.radius/d, r3.Sub(p, s.center))), true
}

// rewardRecorder sums rewards.
type rewardRecorder struct {
	total float64
	calls int
}

func (r *rewardRecorder) AddReward(v float64) {
	r.total += v
	r.calls++
}

// fakeResourceBody tracks the physical state a resource drives.
type fakeResourceBody struct {
	feedable  bool
	solid     bool
	indicator components.Indicator
	position  r3.Vec
	up        r3.Vec
	places    int
}

func newFakeResourceBody() *fakeResourceBody {
	return &fakeResourceBody{feedable: true, solid: true}
}

func (b *fakeResourceBody) SetFeedable(on bool)                 { b.feedable = on }
func (b *fakeResourceBody) SetSolid(on bool)                    { b.solid = on }
func (b *fakeResourceBody) SetIndicator(i components.Indicator) { b.indicator = i }
func (b *fakeResourceBody) Place(position, up r3.Vec) {
	b.position, b.up = position, up
	b.places++
}

// fixture is an agent over a field of upright flowers without plant groups.
type fixture struct {
	cfg    *config.Config
	field  *ResourceField
	body   *fakeBody
	query  *fakeCollision
	sink   *rewardRecorder
	agent  *ForagingAgent
	bodies []*fakeResourceBody
}

// newFixture places one flower at each position. The nectar sits
// NectarOffset above the flower and is registered with the fake collision.
func newFixture(mode AgentMode, positions ...r3.Vec) *fixture {
	cfg := *config.Cfg()
	f := &fixture{
		cfg:   &cfg,
		field: NewResourceField(rand.New(rand.NewSource(1)), cfg.Field.GroupTilt),
		body:  newFakeBody(),
		query: newFakeCollision(),
		sink:  &rewardRecorder{},
	}
	for i, p := range positions {
		id := components.SensorID(i + 1)
		rb := newFakeResourceBody()
		r := NewNectarResource(id, Placement{Offset: p, Up: geom.Up, NectarOffset: cfg.Field.NectarOffset}, rb)
		if err := f.field.AddResource(r); err != nil {
			panic(err)
		}
		f.query.sensors[id] = sphere{center: r.Center(), radius: cfg.Field.NectarRadius}
		f.bodies = append(f.bodies, rb)
	}
	f.agent = NewForagingAgent(f.cfg, f.field, f.body, f.query, f.sink, rand.New(rand.NewSource(2)), mode)
	return f
}

// hover puts the beak tip exactly at the given point, facing straight down.
func (f *fixture) hover(tip r3.Vec) {
	rot := geom.Euler(90, 0, 0)
	offset := rot.Rotate(f.cfg.Agent.BeakOffset.Vec())
	f.body.SetPose(r3.Sub(tip, offset), rot)
}
