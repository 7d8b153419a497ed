// Hardware driver interfaces. Target code registers concrete
// implementations; tests supply fakes.

package core

import "focdrive/foc"

// HallDriver is the abstract Hall capture interface. The concrete
// driver timestamps edges in an interrupt and exposes a coherent
// snapshot to the control task.
type HallDriver interface {
	// Snapshot returns the current raw Hall code, the cycle count
	// between the two most recent edges and the stall flag.
	Snapshot() foc.HallSample

	// Reset clears the captured period and stall state, for example
	// when the motor is disabled.
	Reset()
}

// PhasePWMDriver drives the three half bridges of the inverter. Only
// the control task calls it.
type PhasePWMDriver interface {
	// SetDuties sets the per-phase PWM compare values, 0..maxDuty.
	SetDuties(u, v, w uint16)

	// SetPhaseEnable gates the individual half bridges; a disabled
	// phase floats regardless of its duty.
	SetPhaseEnable(u, v, w bool)

	// DisableOutput forces all phases off and duties to zero. Must be
	// safe to call repeatedly.
	DisableOutput()
}

// VoltageSenseDriver reads the raw ADC value of the bus voltage
// divider.
type VoltageSenseDriver interface {
	ReadRaw() uint16
}
