package physics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/nectar/components"
	"github.com/pthm-cable/nectar/config"
	"github.com/pthm-cable/nectar/geom"
)

func testConfig() config.PhysicsConfig {
	return config.PhysicsConfig{
		DT:                0.02,
		Mass:              1,
		Drag:              0,
		BodyRadius:        0.05,
		BeakContactRadius: 0.01,
	}
}

func TestOverlapCounts(t *testing.T) {
	w := NewWorld(testConfig())
	w.AddSphere(r3.Vec{X: 1}, 0.1, components.TagPetal)
	w.AddSensor(r3.Vec{X: -1}, 0.1, components.TagNectar)
	w.AddBox(r3.NewBox(-5, -3, -5, 5, -2, 5), components.TagBoundary)
	w.NewBody(r3.Vec{Y: 2}, geom.Identity, r3.Vec{Z: 0.1})

	tests := []struct {
		name   string
		center r3.Vec
		radius float64
		want   int
	}{
		{"empty space", r3.Vec{Y: 3}, 0.05, 0},
		{"agent ignored", r3.Vec{Y: 2}, 0.05, 0},
		{"petal", r3.Vec{X: 1.12}, 0.05, 1},
		{"trigger counted", r3.Vec{X: -1}, 0.01, 1},
		{"floor", r3.Vec{Y: -1.96}, 0.05, 1},
		{"inside floor", r3.Vec{Y: -2.5}, 0.01, 1},
		{"petal and trigger", r3.Vec{}, 0.95, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := w.Overlap(tc.center, tc.radius); got != tc.want {
				t.Errorf("Overlap(%v, %v) = %d, want %d", tc.center, tc.radius, got, tc.want)
			}
		})
	}
}

func TestOverlapSkipsDisabled(t *testing.T) {
	w := NewWorld(testConfig())
	e := w.AddSphere(r3.Vec{}, 0.1, components.TagPetal)
	if got := w.Overlap(r3.Vec{}, 0.01); got != 1 {
		t.Fatalf("expected 1 overlap, got %d", got)
	}
	w.SetEnabled(e, false)
	if got := w.Overlap(r3.Vec{}, 0.01); got != 0 {
		t.Errorf("disabled collider counted: got %d", got)
	}
}

func TestClosestPoint(t *testing.T) {
	w := NewWorld(testConfig())
	id := w.AddSensor(r3.Vec{Y: 1}, 0.02, components.TagNectar)

	p, ok := w.ClosestPoint(id, r3.Vec{Y: 2})
	if !ok {
		t.Fatal("expected sensor to be found")
	}
	if geom.Distance(p, r3.Vec{Y: 1.02}) > 1e-12 {
		t.Errorf("closest point = %v, want (0, 1.02, 0)", p)
	}

	inside := r3.Vec{X: 0.005, Y: 1}
	if p, _ := w.ClosestPoint(id, inside); p != inside {
		t.Errorf("point inside sensor should be returned unchanged, got %v", p)
	}

	if _, ok := w.ClosestPoint(999, r3.Vec{}); ok {
		t.Error("unknown sensor should not be found")
	}
}

func TestStepIntegratesForce(t *testing.T) {
	w := NewWorld(testConfig())
	b := w.NewBody(r3.Vec{}, geom.Identity, r3.Vec{})

	b.AddForce(r3.Vec{X: 1})
	b.AddForce(r3.Vec{X: 1})
	w.Step(0.5)

	if v := b.Velocity(); math.Abs(v.X-1) > 1e-12 {
		t.Errorf("velocity = %v, want X=1", v)
	}
	if p := b.Position(); math.Abs(p.X-0.5) > 1e-12 {
		t.Errorf("position = %v, want X=0.5", p)
	}

	// Force is cleared after a step
	w.Step(0.5)
	if v := b.Velocity(); math.Abs(v.X-1) > 1e-12 {
		t.Errorf("velocity after force-free step = %v, want X=1", v)
	}
}

func TestStepDrag(t *testing.T) {
	cfg := testConfig()
	cfg.Drag = 2
	w := NewWorld(cfg)
	b := w.NewBody(r3.Vec{}, geom.Identity, r3.Vec{})
	b.AddForce(r3.Vec{Z: 10})
	w.Step(0.1)

	// v = 10*0.1 = 1, damped by (1 - 2*0.1)
	if v := b.Velocity(); math.Abs(v.Z-0.8) > 1e-12 {
		t.Errorf("velocity = %v, want Z=0.8", v)
	}
}

func TestSleepingBodyDoesNotMove(t *testing.T) {
	w := NewWorld(testConfig())
	b := w.NewBody(r3.Vec{}, geom.Identity, r3.Vec{})
	b.AddForce(r3.Vec{X: 1})
	w.Step(1)
	b.Sleep()
	before := b.Position()

	b.AddForce(r3.Vec{X: 5})
	w.Step(1)
	if b.Position() != before {
		t.Errorf("sleeping body moved from %v to %v", before, b.Position())
	}
	if b.Velocity() != (r3.Vec{}) {
		t.Errorf("sleeping body has velocity %v", b.Velocity())
	}

	b.WakeUp()
	b.AddForce(r3.Vec{X: 1})
	w.Step(1)
	if b.Position() == before {
		t.Error("woken body should move")
	}
}

func TestProbePositionFollowsRotation(t *testing.T) {
	w := NewWorld(testConfig())
	b := w.NewBody(r3.Vec{Y: 1}, geom.Euler(0, 90, 0), r3.Vec{Z: 0.1})

	if p := b.ProbePosition(); geom.Distance(p, r3.Vec{X: 0.1, Y: 1}) > 1e-9 {
		t.Errorf("probe = %v, want (0.1, 1, 0)", p)
	}
}

func TestBoundaryWalls(t *testing.T) {
	w := NewWorld(testConfig())
	walls := w.AddBoundary(r3.NewBox(-1, 0, -1, 1, 2, 1), 0.5)
	if len(walls) != 6 {
		t.Fatalf("expected 6 walls, got %d", len(walls))
	}
	if got := w.Overlap(r3.Vec{Y: 1}, 0.1); got != 0 {
		t.Errorf("interior overlaps %d walls", got)
	}
	if got := w.Overlap(r3.Vec{X: 0.95, Y: 1}, 0.1); got != 1 {
		t.Errorf("near +X wall overlaps %d, want 1", got)
	}
	if got := w.Overlap(r3.Vec{X: 0.95, Y: 1.95, Z: 0.95}, 0.1); got != 3 {
		t.Errorf("corner overlaps %d, want 3", got)
	}
}
