// Space vector PWM (SVPWM) duty cycle generation.
//
// Uses a fast x/y/z coordinate transformation with sign-based sector
// detection instead of trigonometric functions, which keeps the hot
// path free of atan2/sin/cos.

package foc

import "math"

const sqrt3 = 1.7320508075688772

// CalculateSVPWM converts an alpha-beta voltage command and the DC bus
// voltage into three-phase PWM duty cycles in the range [0, maxDuty].
//
// The algorithm normalizes the voltage command by vDC, maps the
// alpha-beta plane onto three axes (x, y, z), picks the active sector
// (1-6) purely from the signs of those axes and derives the per-phase
// values from one of three linear combinations. A non-positive vDC
// returns the 50% safe default on all phases.
func CalculateSVPWM(vAlpha, vBeta, vDC float64, maxDuty uint16) (dutyU, dutyV, dutyW uint16) {
	if vDC <= 0 {
		return maxDuty / 2, maxDuty / 2, maxDuty / 2
	}

	vAlphaNorm := vAlpha / vDC
	vBetaNorm := vBeta / vDC

	sqrt3Alpha := sqrt3 * vAlphaNorm
	x := vBetaNorm
	y := (vBetaNorm + sqrt3Alpha) / 2
	z := (vBetaNorm - sqrt3Alpha) / 2

	// Sector from the signs of (x, y, z); cases are ordered so the
	// wildcard rows of the sign table resolve the same way as the
	// exhaustive match.
	var sector uint8
	switch {
	case x >= 0 && y >= 0 && z < 0:
		sector = 1
	case y >= 0 && z >= 0:
		sector = 2
	case x >= 0 && y < 0 && z >= 0:
		sector = 3
	case x < 0 && y < 0 && z >= 0:
		sector = 4
	case y < 0 && z < 0:
		sector = 5
	default:
		sector = 6
	}

	// Raw phase values in [-1, 1].
	var ta, tb, tc float64
	switch sector {
	case 1, 4:
		ta, tb, tc = x-z, x+z, -x+z
	case 2, 5:
		ta, tb, tc = y-z, y+z, -y-z
	case 3, 6:
		ta, tb, tc = y-x, -y+x, -y-x
	}

	dutyU = toDuty(ta, maxDuty)
	dutyV = toDuty(tb, maxDuty)
	dutyW = toDuty(tc, maxDuty)
	return dutyU, dutyV, dutyW
}

// toDuty converts a raw phase value in [-1, 1] to a duty cycle in
// [0, maxDuty].
func toDuty(value float64, maxDuty uint16) uint16 {
	duty := math.Round((value + 1) / 2 * float64(maxDuty))
	if duty < 0 {
		return 0
	}
	if duty > float64(maxDuty) {
		return maxDuty
	}
	return uint16(duty)
}

// SinusoidalPWM generates three-phase duty cycles using direct
// sinusoidal modulation. Simpler than SVPWM but with roughly 15% less
// bus voltage utilization; kept as a diagnostic alternative.
func SinusoidalPWM(vAlpha, vBeta, vDC float64, maxDuty uint16) (dutyU, dutyV, dutyW uint16) {
	if vDC <= 0 {
		return 0, 0, 0
	}

	vU, vV, vW := InverseClarke(vAlpha, vBeta)

	// Offset by 0.5 to center the phases around 50% duty.
	dutyU = clampDuty((vU/vDC+0.5)*float64(maxDuty), maxDuty)
	dutyV = clampDuty((vV/vDC+0.5)*float64(maxDuty), maxDuty)
	dutyW = clampDuty((vW/vDC+0.5)*float64(maxDuty), maxDuty)
	return dutyU, dutyV, dutyW
}

func clampDuty(value float64, maxDuty uint16) uint16 {
	if value < 0 {
		return 0
	}
	if value > float64(maxDuty) {
		return maxDuty
	}
	return uint16(value)
}
