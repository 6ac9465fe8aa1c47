package game

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/nectar/config"
)

const eps = 1e-9

// singleFlowerConfig returns the defaults with one untilted group holding one
// flower at (0, 1, 0) whose up axis is pitched 40 degrees.
func singleFlowerConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Field.GroupTilt = 0
	cfg.Field.Layout = config.NodeConfig{
		Name: "root",
		Children: []config.NodeConfig{{
			Name: "plant",
			Kind: config.KindPlantGroup,
			Children: []config.NodeConfig{{
				Name:     "flower",
				Kind:     config.KindFlower,
				Position: config.Vec3{Y: 1},
				Tilt:     config.Tilt{Pitch: 40},
			}},
		}},
	}
	return cfg
}

func newTestEnv(t *testing.T, cfg *config.Config) *Env {
	t.Helper()
	env, err := NewEnv(cfg, Options{Seed: 7, RunID: "test"})
	if err != nil {
		t.Fatal(err)
	}
	return env
}

func vecNear(a, b r3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}
