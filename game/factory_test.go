package game

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/nectar/config"
	"github.com/pthm-cable/nectar/geom"
	"github.com/pthm-cable/nectar/physics"
)

func TestBuildFieldDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	env := newTestEnv(t, cfg)

	field := env.Field()
	if field.Len() != cfg.Derived.FlowerCount {
		t.Errorf("flowers = %d, want %d", field.Len(), cfg.Derived.FlowerCount)
	}
	if len(field.Groups()) != cfg.Derived.GroupCount {
		t.Errorf("groups = %d, want %d", len(field.Groups()), cfg.Derived.GroupCount)
	}
	if len(env.Flowers()) != field.Len() {
		t.Errorf("flower bodies = %d, want %d", len(env.Flowers()), field.Len())
	}

	// Every flower is reachable through its sensor
	for i, r := range field.Resources() {
		got, err := field.Lookup(r.Sensor())
		if err != nil || got != r {
			t.Errorf("resource %d: lookup = %v, %v", i, got, err)
		}
		if r.Group() == nil {
			t.Errorf("resource %d has no plant group", i)
		}
	}

	// Layout order is depth-first: plant-1, flower-1 first
	first := field.At(0)
	if first.Group().Name != "plant-1" {
		t.Errorf("first group = %q, want plant-1", first.Group().Name)
	}
	if want := (r3.Vec{X: 4.15, Y: 1.1}); !vecNear(first.Position(), want, 1e-9) {
		t.Errorf("first position = %v, want %v", first.Position(), want)
	}
	rad := 40 * math.Pi / 180
	if want := (r3.Vec{Y: math.Cos(rad), Z: math.Sin(rad)}); !vecNear(first.Up(), want, 1e-9) {
		t.Errorf("first up = %v, want %v", first.Up(), want)
	}
	if !vecNear(env.Flowers()[0].NectarCenter(), first.Center(), 1e-9) {
		t.Errorf("trigger at %v, resource center at %v", env.Flowers()[0].NectarCenter(), first.Center())
	}
}

func TestBuildFieldNestedContainers(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Field.Layout = config.NodeConfig{
		Position: config.Vec3{X: 1},
		Children: []config.NodeConfig{
			{
				Name:     "loose",
				Position: config.Vec3{Z: 2},
				Children: []config.NodeConfig{
					{Name: "stray", Kind: config.KindFlower, Position: config.Vec3{Y: 1}},
				},
			},
			{
				Name:     "bed",
				Kind:     config.KindPlantGroup,
				Position: config.Vec3{X: -3},
				Children: []config.NodeConfig{
					{Name: "a", Kind: config.KindFlower, Position: config.Vec3{Y: 0.5}},
					{Name: "b", Kind: config.KindFlower, Position: config.Vec3{X: 0.2, Y: 0.7}},
				},
			},
		},
	}

	world := physics.NewWorld(cfg.Physics)
	field, flowers, err := buildField(cfg, world, nil)
	if err != nil {
		t.Fatal(err)
	}
	if field.Len() != 3 || len(flowers) != 3 || world.SensorCount() != 3 {
		t.Fatalf("built %d resources, %d bodies, %d sensors; want 3 each", field.Len(), len(flowers), world.SensorCount())
	}

	stray := field.At(0)
	if stray.Group() != nil {
		t.Error("flower outside a plant group should have no group")
	}
	if want := (r3.Vec{X: 1, Y: 1, Z: 2}); !vecNear(stray.Position(), want, eps) {
		t.Errorf("stray position = %v, want %v", stray.Position(), want)
	}

	bed := field.At(1).Group()
	if bed == nil || bed.Name != "bed" || field.At(2).Group() != bed {
		t.Fatalf("bed flowers not grouped: %v, %v", field.At(1).Group(), field.At(2).Group())
	}
	if want := (r3.Vec{X: -2}); !vecNear(bed.Position, want, eps) {
		t.Errorf("bed pivot = %v, want %v", bed.Position, want)
	}
	if want := (r3.Vec{X: -1.8, Y: 0.7}); !vecNear(field.At(2).Position(), want, eps) {
		t.Errorf("flower b position = %v, want %v", field.At(2).Position(), want)
	}
	// Untilted flowers point straight up
	if want := (r3.Vec{Y: 1}); !vecNear(field.At(1).Up(), want, eps) {
		t.Errorf("up = %v, want %v", field.At(1).Up(), want)
	}
}

// Nested plant groups are independent pivots: re-randomizing the outer
// group never moves the inner group's pivot or its flowers.
func TestBuildFieldNestedGroupsPivotIndependently(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Field.GroupTilt = 10
	cfg.Field.Layout = config.NodeConfig{
		Children: []config.NodeConfig{
			{
				Name:     "outer",
				Kind:     config.KindPlantGroup,
				Position: config.Vec3{X: 2},
				Children: []config.NodeConfig{
					{Name: "near", Kind: config.KindFlower, Position: config.Vec3{Z: 1}},
					{
						Name:     "inner",
						Kind:     config.KindPlantGroup,
						Position: config.Vec3{X: 1},
						Children: []config.NodeConfig{
							{Name: "far", Kind: config.KindFlower, Position: config.Vec3{Y: 1}},
						},
					},
				},
			},
		},
	}

	world := physics.NewWorld(cfg.Physics)
	field, _, err := buildField(cfg, world, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatal(err)
	}
	if len(field.Groups()) != 2 {
		t.Fatalf("groups = %d, want 2", len(field.Groups()))
	}
	outer, inner := field.Groups()[0], field.Groups()[1]
	near, far := field.At(0), field.At(1)
	if near.Group() != outer || far.Group() != inner {
		t.Fatal("flowers not attached to their innermost group")
	}

	for i := 0; i < 5; i++ {
		field.ResetAll()

		if want := (r3.Vec{X: 3}); !vecNear(inner.Position, want, eps) {
			t.Fatalf("reset %d: inner pivot moved to %v", i, inner.Position)
		}
		want := r3.Add(inner.Position, inner.Rotation.Rotate(r3.Vec{Y: 1}))
		if !vecNear(far.Position(), want, eps) {
			t.Errorf("reset %d: far = %v, want %v (inner rotation only)", i, far.Position(), want)
		}
		if !vecNear(far.Up(), inner.Rotation.Rotate(geom.Up), eps) {
			t.Errorf("reset %d: far up = %v follows the outer group", i, far.Up())
		}
		if d := r3.Norm(r3.Sub(near.Position(), outer.Position)); math.Abs(d-1) > eps {
			t.Errorf("reset %d: near is %v from the outer pivot, want 1", i, d)
		}
	}
}
