// Coordinate transformations for field-oriented control.

package foc

import "math"

const sqrt3Div2 = 0.8660254037844386 // sqrt(3) / 2

// InversePark transforms from the rotating dq reference frame to the
// stationary alpha-beta frame.
//
// vd is the d-axis voltage (aligned with rotor flux), vq the q-axis
// voltage (perpendicular to rotor flux, produces torque) and theta the
// electrical angle in radians.
func InversePark(vd, vq, theta float64) (vAlpha, vBeta float64) {
	cosTheta := math.Cos(theta)
	sinTheta := math.Sin(theta)

	vAlpha = vd*cosTheta - vq*sinTheta
	vBeta = vd*sinTheta + vq*cosTheta
	return vAlpha, vBeta
}

// InverseClarke transforms from the stationary alpha-beta frame to
// three-phase voltages. The three outputs always sum to zero.
func InverseClarke(vAlpha, vBeta float64) (vU, vV, vW float64) {
	vU = vAlpha
	vV = -0.5*vAlpha + sqrt3Div2*vBeta
	vW = -0.5*vAlpha - sqrt3Div2*vBeta
	return vU, vV, vW
}

// LimitVoltage applies circular limiting to the dq voltage vector so
// that its magnitude never exceeds maxVoltage. Both components are
// scaled proportionally; vectors already inside the limit pass through
// unchanged.
func LimitVoltage(vd, vq, maxVoltage float64) (float64, float64) {
	magnitude := math.Sqrt(vd*vd + vq*vq)
	if magnitude > maxVoltage {
		scale := maxVoltage / magnitude
		return vd * scale, vq * scale
	}
	return vd, vq
}
