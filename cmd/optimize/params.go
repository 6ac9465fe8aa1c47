// Package main provides CMA-ES tuning of the scripted seek controller.
package main

import (
	"github.com/pthm-cable/nectar/game"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the seek controller's tunable parameters.
func NewParamVector() *ParamVector {
	def := game.NewSeekController(1)
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "slow_range", Min: 0.05, Max: 2.0, Default: def.SlowRange},
			{Name: "turn_range", Min: 5, Max: 120, Default: def.TurnRange},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// Controller builds a seek controller from parameter values.
// Order must match Specs order.
func (pv *ParamVector) Controller(diameter float64, values []float64) *game.SeekController {
	clamped := pv.Clamp(values)
	c := game.NewSeekController(diameter)
	c.SlowRange = clamped[0]
	c.TurnRange = clamped[1]
	return c
}
