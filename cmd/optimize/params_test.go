package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/nectar/telemetry"
)

func TestParamVectorRoundTrip(t *testing.T) {
	pv := NewParamVector()
	def := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(def))
	for i := range def {
		if math.Abs(back[i]-def[i]) > 1e-12 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, def[i], back[i])
		}
	}
}

func TestParamVectorClamp(t *testing.T) {
	pv := NewParamVector()
	got := pv.Clamp([]float64{-1, 1000})
	if got[0] != pv.Specs[0].Min || got[1] != pv.Specs[1].Max {
		t.Errorf("clamp = %v", got)
	}
}

func TestControllerFromParams(t *testing.T) {
	pv := NewParamVector()
	c := pv.Controller(20, []float64{0.8, 45})
	if c.SlowRange != 0.8 || c.TurnRange != 45 || c.Diameter != 20 {
		t.Errorf("controller = %+v", c)
	}
}

func TestComputeFitness(t *testing.T) {
	tests := []struct {
		name     string
		episodes []telemetry.EpisodeStats
		want     float64
	}{
		{"empty", nil, 0},
		{"nectar only", []telemetry.EpisodeStats{{Nectar: 0.4}, {Nectar: 0.2}}, -0.3},
		{"boundary cost", []telemetry.EpisodeStats{{Nectar: 0.5, BoundaryHits: 2}}, -0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeFitness(summarize(tt.episodes)); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("fitness = %v, want %v", got, tt.want)
			}
		})
	}
}
