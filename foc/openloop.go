// Open-loop six-step (trapezoidal) startup drive.
//
// Before the Hall-based speed estimate is reliable the motor is spun
// with forced commutation: six fixed phase patterns stepped at a period
// that shrinks from the initial-RPM period toward the target-RPM period.

package foc

// SixStepState describes one commutation step: per-phase duty commands
// plus which half-bridges are enabled. Exactly two phases conduct per
// step; the third is left open.
type SixStepState struct {
	Step  uint8
	DutyU uint16
	DutyV uint16
	DutyW uint16

	EnableU bool
	EnableV bool
	EnableW bool
}

// OpenLoopSixStep generates the forced-commutation startup ramp.
type OpenLoopSixStep struct {
	currentStep       uint8
	stepPeriod        float64
	initialStepPeriod float64
	accelerationRate  float64
	minStepPeriod     float64
	elapsed           float64
	dutyRatio         uint16
	polePairs         uint8
}

// NewOpenLoopSixStep creates a startup ramp that begins at initialRPM
// and accelerates toward targetRPM at roughly accelRPMPerS, driving the
// active phases at the fixed dutyRatio.
func NewOpenLoopSixStep(initialRPM, targetRPM, accelRPMPerS float64, dutyRatio uint16, polePairs uint8) *OpenLoopSixStep {
	// One mechanical rotation is 6 steps per electrical revolution
	// times the pole pair count.
	stepsPerRotation := 6 * float64(polePairs)
	initialStepPeriod := 60 / (initialRPM * stepsPerRotation)
	minStepPeriod := 60 / (targetRPM * stepsPerRotation)

	// Per-step multiplicative decay of the step period, derived from
	// the requested acceleration at the initial speed.
	accelerationRate := 0.98
	if accelRPMPerS > 0 {
		accelerationRate = 1 - accelRPMPerS*initialStepPeriod/initialRPM
	}

	return &OpenLoopSixStep{
		stepPeriod:        initialStepPeriod,
		initialStepPeriod: initialStepPeriod,
		accelerationRate:  accelerationRate,
		minStepPeriod:     minStepPeriod,
		dutyRatio:         dutyRatio,
		polePairs:         polePairs,
	}
}

// stepState returns the phase pattern for a commutation step. Each
// step drives one phase high (PWM), one low and leaves one open.
func stepState(step uint8, duty uint16) SixStepState {
	switch step % 6 {
	case 0: // U high, V low, W open
		return SixStepState{Step: step, DutyU: duty, EnableU: true, EnableV: true}
	case 1: // U high, W low, V open
		return SixStepState{Step: step, DutyU: duty, EnableU: true, EnableW: true}
	case 2: // V high, W low, U open
		return SixStepState{Step: step, DutyV: duty, EnableV: true, EnableW: true}
	case 3: // V high, U low, W open
		return SixStepState{Step: step, DutyV: duty, EnableU: true, EnableV: true}
	case 4: // W high, U low, V open
		return SixStepState{Step: step, DutyW: duty, EnableU: true, EnableW: true}
	default: // W high, V low, U open
		return SixStepState{Step: step, DutyW: duty, EnableV: true, EnableW: true}
	}
}

// Update advances the ramp by dt seconds and returns the current step
// pattern. When the accumulated time exceeds the step period the next
// step is selected and the period shrinks toward the minimum, never
// undershooting it.
func (o *OpenLoopSixStep) Update(dt float64) SixStepState {
	o.elapsed += dt

	if o.elapsed >= o.stepPeriod {
		o.elapsed = 0
		o.currentStep = (o.currentStep + 1) % 6

		if o.stepPeriod > o.minStepPeriod {
			o.stepPeriod *= o.accelerationRate
			if o.stepPeriod < o.minStepPeriod {
				o.stepPeriod = o.minStepPeriod
			}
		}
	}

	return stepState(o.currentStep, o.dutyRatio)
}

// TargetReached reports whether the ramp has reached the target-RPM
// step period.
func (o *OpenLoopSixStep) TargetReached() bool {
	return o.stepPeriod <= o.minStepPeriod
}

// Reset returns the ramp to its initial step and period.
func (o *OpenLoopSixStep) Reset() {
	o.currentStep = 0
	o.stepPeriod = o.initialStepPeriod
	o.elapsed = 0
}

// CurrentRPM derives the present speed from the current step period.
// This is the commanded open-loop speed, not a Hall measurement.
func (o *OpenLoopSixStep) CurrentRPM() float64 {
	stepsPerRotation := 6 * float64(o.polePairs)
	return 60 / (o.stepPeriod * stepsPerRotation)
}

// CurrentStep returns the active commutation step (0-5).
func (o *OpenLoopSixStep) CurrentStep() uint8 { return o.currentStep }
