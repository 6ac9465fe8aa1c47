// Package geom provides pose math for the environment on top of gonum's r3 and quat packages.
//
// Axes: X right, Y up, Z forward. Euler angles are in degrees and applied
// roll (Z) first, then pitch (X), then yaw (Y). Positive pitch tilts the
// forward axis down, positive yaw turns it toward +X.
package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Basis vectors.
var (
	Right   = r3.Vec{X: 1}
	Up      = r3.Vec{Y: 1}
	Forward = r3.Vec{Z: 1}
)

// Identity is the rotation that leaves vectors unchanged.
var Identity = r3.Rotation{Real: 1}

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
)

// Euler builds a rotation from pitch (X), yaw (Y) and roll (Z) in degrees.
func Euler(pitch, yaw, roll float64) r3.Rotation {
	var qx, qy, qz quat.Number
	qx.Imag, qx.Real = math.Sincos(pitch * deg2rad / 2)
	qy.Jmag, qy.Real = math.Sincos(yaw * deg2rad / 2)
	qz.Kmag, qz.Real = math.Sincos(roll * deg2rad / 2)
	return r3.Rotation(quat.Mul(qy, quat.Mul(qx, qz)))
}

// EulerAngles returns pitch, yaw and roll in degrees, each wrapped to [0, 360).
// Pitch is recovered in [-90, 90] before wrapping.
func EulerAngles(r r3.Rotation) (pitch, yaw, roll float64) {
	r = Normalize(r)
	f := r.Rotate(Forward)
	x := r.Rotate(Right)
	y := r.Rotate(Up)

	pitch = math.Asin(Clamp(-f.Y, -1, 1)) * rad2deg
	yaw = math.Atan2(f.X, f.Z) * rad2deg
	roll = math.Atan2(x.Y, y.Y) * rad2deg
	return WrapDegrees(pitch), WrapDegrees(yaw), WrapDegrees(roll)
}

// LookRotation returns a roll-free rotation whose forward axis points along dir.
// A zero direction yields the identity.
func LookRotation(dir r3.Vec) r3.Rotation {
	n := r3.Norm(dir)
	if n == 0 {
		return Identity
	}
	pitch := math.Asin(Clamp(-dir.Y/n, -1, 1)) * rad2deg
	yaw := math.Atan2(dir.X, dir.Z) * rad2deg
	return Euler(pitch, yaw, 0)
}

// Mul composes rotations: the result applies b first, then a.
func Mul(a, b r3.Rotation) r3.Rotation {
	return r3.Rotation(quat.Mul(quat.Number(a), quat.Number(b)))
}

// Normalize returns r scaled to unit length. A zero quaternion yields the identity.
func Normalize(r r3.Rotation) r3.Rotation {
	n := quat.Abs(quat.Number(r))
	if n == 0 {
		return Identity
	}
	return r3.Rotation(quat.Scale(1/n, quat.Number(r)))
}

// ForwardOf returns the forward axis of r.
func ForwardOf(r r3.Rotation) r3.Vec {
	return r.Rotate(Forward)
}

// UpOf returns the up axis of r.
func UpOf(r r3.Rotation) r3.Vec {
	return r.Rotate(Up)
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// SafeUnit returns the unit vector of v, or the zero vector when v is zero.
func SafeUnit(v r3.Vec) r3.Vec {
	if r3.Norm2(v) == 0 {
		return r3.Vec{}
	}
	return r3.Unit(v)
}

// MoveTowards moves current toward target by at most maxDelta.
func MoveTowards(current, target, maxDelta float64) float64 {
	if math.Abs(target-current) <= maxDelta {
		return target
	}
	if target > current {
		return current + maxDelta
	}
	return current - maxDelta
}

// Clamp clamps v between minVal and maxVal.
func Clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// Clamp01 clamps v to the [0, 1] range.
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// WrapDegrees wraps an angle to [0, 360).
func WrapDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	// math.Mod of a tiny negative can round up to 360
	if a >= 360 {
		a -= 360
	}
	return a
}
