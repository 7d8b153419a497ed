// Multi-turn shaft position tracking.

package foc

// ShaftPosition tracks the motor shaft across multiple rotations,
// holding both the normalized angle and a signed rotation count.
// Rotations changes only when the angle crosses the 0/2π boundary.
type ShaftPosition struct {
	// Angle is the current angle in radians, always in [0, 2π).
	Angle float64
	// Rotations is the signed number of completed turns.
	Rotations int

	inversed  bool
	prevAngle float64
}

// NewShaftPosition returns a ShaftPosition at the zero position.
func NewShaftPosition() *ShaftPosition {
	return &ShaftPosition{}
}

// Reset returns the position to zero. The direction-inversion flag is
// preserved.
func (p *ShaftPosition) Reset() {
	p.Angle = 0
	p.Rotations = 0
	p.prevAngle = 0
}

// SetInversed sets the direction-inversion flag; when set, sensor
// angles are mirrored (angle becomes 2π − angle) before tracking.
func (p *ShaftPosition) SetInversed(inversed bool) {
	p.inversed = inversed
}

// Inversed reports the direction-inversion flag.
func (p *ShaftPosition) Inversed() bool { return p.inversed }

// wrapBoundaryThreshold is the angle jump between consecutive sensor
// samples treated as a 0/2π boundary crossing. Samples arrive at the
// control rate, so genuine motion between two samples stays well below
// a quarter turn; only a jump past 3π/2 can be a wrap.
const wrapBoundaryThreshold = 3 * Tau / 4

// UpdateShaftAngle feeds a new absolute sensor angle in radians,
// adjusting the rotation count when the angle wraps across the 0/2π
// boundary.
func (p *ShaftPosition) UpdateShaftAngle(sensorAngle float64) {
	if p.inversed {
		sensorAngle = Tau - sensorAngle
	}
	sensorAngle = NormalizeAngle(sensorAngle)

	delta := sensorAngle - p.prevAngle
	if delta < -wrapBoundaryThreshold {
		// Crossed 2π going forward.
		p.Rotations++
	} else if delta > wrapBoundaryThreshold {
		// Crossed 0 going backward.
		p.Rotations--
	}

	p.prevAngle = sensorAngle
	p.Angle = sensorAngle
}

// Increment advances the position by deltaAngle radians (negative for
// reverse), updating the rotation count on each boundary crossing.
func (p *ShaftPosition) Increment(deltaAngle float64) {
	newAngle := p.Angle + deltaAngle

	for newAngle >= Tau {
		newAngle -= Tau
		p.Rotations++
	}
	for newAngle < 0 {
		newAngle += Tau
		p.Rotations--
	}

	p.Angle = newAngle
	p.prevAngle = newAngle
}

// Position returns the accumulated position in radians, including
// completed rotations.
func (p *ShaftPosition) Position() float64 {
	return float64(p.Rotations)*Tau + p.Angle
}
