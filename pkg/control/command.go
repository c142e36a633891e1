package control

import "math"

// Command is one four-axis actuator frame. Every component lies in
// [-MaxSpeed, MaxSpeed] by the time it is dispatched.
type Command struct {
	Lateral      int
	Longitudinal int
	Yaw          int
	Vertical     int
}

// safeDescent is dispatched while airborne without a fresh target: no
// horizontal or rotational motion, slow descent.
var safeDescent = Command{Vertical: -10}

// clamp limits v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// signedSqrt is the magnitude-preserving square-root compression applied
// to the horizontal axes: sign(v)·sqrt(|v|). It softens the response near
// zero while keeping full range at saturation.
func signedSqrt(v float64) float64 {
	return math.Copysign(math.Sqrt(math.Abs(v)), v)
}
