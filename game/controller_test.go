package game

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/nectar/geom"
	"github.com/pthm-cable/nectar/systems"
)

func TestManualAction(t *testing.T) {
	inv := 1 / math.Sqrt2
	tests := []struct {
		name string
		in   ManualInput
		rot  r3.Rotation
		want systems.Action
	}{
		{"idle", ManualInput{}, geom.Identity, systems.Action{}},
		{"forward", ManualInput{Forward: true}, geom.Identity, systems.Action{0, 0, 1, 0, 0}},
		{"forward wins over back", ManualInput{Forward: true, Back: true}, geom.Identity, systems.Action{0, 0, 1, 0, 0}},
		{"strafe left", ManualInput{Left: true}, geom.Identity, systems.Action{-1, 0, 0, 0, 0}},
		{"forward right", ManualInput{Forward: true, Right: true}, geom.Identity, systems.Action{inv, 0, inv, 0, 0}},
		{"ascend", ManualInput{Ascend: true}, geom.Identity, systems.Action{0, 1, 0, 0, 0}},
		{"turned forward", ManualInput{Forward: true}, geom.Euler(0, 90, 0), systems.Action{1, 0, 0, 0, 0}},
		{"pitch up", ManualInput{PitchUp: true}, geom.Identity, systems.Action{0, 0, 0, -1, 0}},
		{"pitch down", ManualInput{PitchDown: true}, geom.Identity, systems.Action{0, 0, 0, 1, 0}},
		{"yaw left", ManualInput{YawLeft: true}, geom.Identity, systems.Action{0, 0, 0, 0, -1}},
		{"yaw right", ManualInput{YawRight: true}, geom.Identity, systems.Action{0, 0, 0, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ManualAction(tt.in, tt.rot)
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Fatalf("action = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestSeekControllerNoTarget(t *testing.T) {
	c := NewSeekController(20)
	if a := c.Act(systems.Observation{}); a != (systems.Action{}) {
		t.Errorf("action = %v, want zero", a)
	}
}

func TestSeekControllerSteers(t *testing.T) {
	c := NewSeekController(20)

	tests := []struct {
		name      string
		dir       r3.Vec
		dist      float64
		wantForce r3.Vec
		wantPitch float64
		wantYaw   float64
	}{
		{"ahead far", r3.Vec{Z: 1}, 5, r3.Vec{Z: 1}, 0, 0},
		{"ahead close", r3.Vec{Z: 1}, 0.25, r3.Vec{Z: 0.5}, 0, 0},
		{"right", r3.Vec{X: 1}, 5, r3.Vec{X: 1}, 0, 1},
		{"left", r3.Vec{X: -1}, 5, r3.Vec{X: -1}, 0, -1},
		{"slightly right", geom.Euler(0, 15, 0).Rotate(geom.Forward), 5, geom.Euler(0, 15, 0).Rotate(geom.Forward), 0, 0.5},
		{"below", r3.Vec{Y: -1}, 5, r3.Vec{Y: -1}, 1, 0},
		{"above", r3.Vec{Y: 1}, 5, r3.Vec{Y: 1}, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var obs systems.Observation
			obs[3] = 1 // identity rotation
			obs[4], obs[5], obs[6] = tt.dir.X, tt.dir.Y, tt.dir.Z
			obs[9] = tt.dist / 20

			a := c.Act(obs)
			if got := (r3.Vec{X: a[0], Y: a[1], Z: a[2]}); !vecNear(got, tt.wantForce, 1e-9) {
				t.Errorf("force = %v, want %v", got, tt.wantForce)
			}
			if math.Abs(a[3]-tt.wantPitch) > 1e-9 {
				t.Errorf("pitch rate = %v, want %v", a[3], tt.wantPitch)
			}
			if math.Abs(a[4]-tt.wantYaw) > 1e-9 {
				t.Errorf("yaw rate = %v, want %v", a[4], tt.wantYaw)
			}
		})
	}
}

func TestAngleDelta(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{0, 90, 90},
		{90, 0, -90},
		{350, 10, 20},
		{10, 350, -20},
		{0, 180, 180},
		{0, -170, -170},
	}
	for _, tt := range tests {
		if got := angleDelta(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("angleDelta(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRandomControllerHolds(t *testing.T) {
	c := NewRandomController(rand.New(rand.NewSource(1)), 3)

	first := c.Act(systems.Observation{})
	for i, v := range first {
		if v < -1 || v > 1 {
			t.Errorf("component %d = %v out of [-1, 1]", i, v)
		}
	}
	for i := 0; i < 2; i++ {
		if a := c.Act(systems.Observation{}); a != first {
			t.Fatalf("tick %d: action changed inside hold window", i+2)
		}
	}
	if a := c.Act(systems.Observation{}); a == first {
		t.Error("action not redrawn after hold window")
	}

	c.ResetEpisode()
	if a := c.Act(systems.Observation{}); a == first {
		t.Error("reset should force a fresh draw")
	}
}

func TestSeekControllerFeedsFromFrontSpawn(t *testing.T) {
	cfg := singleFlowerConfig(t)
	cfg.Spawn.FrontChance = 1
	env := newTestEnv(t, cfg)

	obs, err := env.Reset()
	if err != nil {
		t.Fatal(err)
	}
	ctrl := NewSeekController(cfg.Field.Diameter)
	for i := 0; i < 200; i++ {
		res, err := env.Step(ctrl.Act(obs))
		if err != nil {
			t.Fatal(err)
		}
		obs = res.Observation
	}
	if env.Agent().EpisodeNectar() <= 0 {
		t.Errorf("seek controller collected no nectar; body at %v, flower center %v",
			env.Body().Position(), env.Field().At(0).Center())
	}
}
