// Package foc implements the control and estimation math for a sensored
// (Hall-effect) brushless DC drive: position/speed estimation from Hall
// edges, Park/Clarke coordinate transforms, space-vector PWM synthesis,
// a PI speed controller, the open-loop six-step startup ramp and the
// automatic sensor calibration procedure.
//
// Everything in this package is pure computation with no hardware
// imports, so it runs identically on the host and on the MCU.
package foc

import "math"

// Tau is one full turn in radians.
const Tau = 2 * math.Pi

// NormalizeAngle wraps an angle to the range [0, 2π).
func NormalizeAngle(angle float64) float64 {
	n := math.Mod(angle, Tau)
	if n < 0 {
		n += Tau
	}
	return n
}

// wrapToPi wraps an angle difference to the range (-π, π].
func wrapToPi(angle float64) float64 {
	n := math.Mod(angle, Tau)
	if n > math.Pi {
		n -= Tau
	} else if n <= -math.Pi {
		n += Tau
	}
	return n
}
