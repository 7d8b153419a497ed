// PI (proportional-integral) controller with anti-windup.

package foc

// PiController is a PI controller with output limiting and conditional
// anti-windup: while the previous output sat on a limit, the integral
// term stops accumulating.
type PiController struct {
	kp         float64
	ki         float64
	integral   float64
	outputMin  float64
	outputMax  float64
	lastOutput float64
	antiWindup bool
}

// NewPiController creates a PI controller with explicit output limits.
func NewPiController(kp, ki, outputMin, outputMax float64) *PiController {
	return &PiController{
		kp:         kp,
		ki:         ki,
		outputMin:  outputMin,
		outputMax:  outputMax,
		antiWindup: true,
	}
}

// NewSymmetricPiController creates a PI controller with a symmetric
// output range of [-outputLimit, +outputLimit].
func NewSymmetricPiController(kp, ki, outputLimit float64) *PiController {
	return NewPiController(kp, ki, -outputLimit, outputLimit)
}

// Update runs one controller step and returns the limited output.
// The integral accumulates error*dt only while the previous output was
// strictly inside the limits (or anti-windup is disabled).
func (pi *PiController) Update(setpoint, measured, dt float64) float64 {
	err := setpoint - measured

	pTerm := pi.kp * err

	shouldIntegrate := !pi.antiWindup ||
		(pi.lastOutput > pi.outputMin && pi.lastOutput < pi.outputMax)
	if shouldIntegrate {
		pi.integral += err * dt
	}

	output := pTerm + pi.ki*pi.integral

	if output > pi.outputMax {
		output = pi.outputMax
	} else if output < pi.outputMin {
		output = pi.outputMin
	}
	pi.lastOutput = output
	return output
}

// Reset zeroes the integral accumulator and the stored output.
func (pi *PiController) Reset() {
	pi.integral = 0
	pi.lastOutput = 0
}

// SetGains updates the proportional and integral gains.
func (pi *PiController) SetGains(kp, ki float64) {
	pi.kp = kp
	pi.ki = ki
}

// SetLimits updates the output limits.
func (pi *PiController) SetLimits(outputMin, outputMax float64) {
	pi.outputMin = outputMin
	pi.outputMax = outputMax
}

// SetSymmetricLimit sets the output limits to [-outputLimit, +outputLimit].
func (pi *PiController) SetSymmetricLimit(outputLimit float64) {
	pi.outputMin = -outputLimit
	pi.outputMax = outputLimit
}

// SetAntiWindup enables or disables the anti-windup behavior.
func (pi *PiController) SetAntiWindup(enabled bool) {
	pi.antiWindup = enabled
}

// Output returns the last computed output.
func (pi *PiController) Output() float64 { return pi.lastOutput }

// Integral returns the current integral accumulator.
func (pi *PiController) Integral() float64 { return pi.integral }

// Kp returns the proportional gain.
func (pi *PiController) Kp() float64 { return pi.kp }

// Ki returns the integral gain.
func (pi *PiController) Ki() float64 { return pi.ki }

// Saturated reports whether the last output sat on either limit.
func (pi *PiController) Saturated() bool {
	return pi.lastOutput <= pi.outputMin || pi.lastOutput >= pi.outputMax
}
