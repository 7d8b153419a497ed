//go:build rp2040

package main

import "machine"

// pwmPeripheral abstracts over TinyGo's unexported *pwmGroup type so
// the three phase slices can live in an array.
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// getPWMPeripheral returns the PWM slice owning a GPIO pin. On the
// RP2040 pin N belongs to slice (N >> 1) & 7.
func getPWMPeripheral(pin machine.Pin) pwmPeripheral {
	switch (uint8(pin) >> 1) & 0x7 {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}

// PhasePWM implements core.PhasePWMDriver over three PWM outputs plus
// three gate-driver enable pins.
type PhasePWM struct {
	slices   [3]pwmPeripheral
	channels [3]uint8
	enables  [3]machine.Pin
	tops     [3]uint32
	maxDuty  uint16
}

// NewPhasePWM configures the three phase pins for hardware PWM at the
// given carrier frequency and the enable pins as outputs, all off.
func NewPhasePWM(pinU, pinV, pinW, enU, enV, enW machine.Pin, frequencyHz uint32, maxDuty uint16) (*PhasePWM, error) {
	p := &PhasePWM{
		enables: [3]machine.Pin{enU, enV, enW},
		maxDuty: maxDuty,
	}

	periodNS := uint64(1_000_000_000) / uint64(frequencyHz)
	for i, pin := range []machine.Pin{pinU, pinV, pinW} {
		slice := getPWMPeripheral(pin)
		if err := slice.Configure(machine.PWMConfig{Period: periodNS}); err != nil {
			return nil, err
		}
		ch, err := slice.Channel(pin)
		if err != nil {
			return nil, err
		}
		p.slices[i] = slice
		p.channels[i] = ch
		p.tops[i] = slice.Top()
	}

	for _, pin := range p.enables {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		pin.Low()
	}

	p.DisableOutput()
	return p, nil
}

// SetDuties writes the per-phase compare values, scaling from the
// control range 0..maxDuty to the hardware counter range.
func (p *PhasePWM) SetDuties(u, v, w uint16) {
	for i, duty := range []uint16{u, v, w} {
		if duty > p.maxDuty {
			duty = p.maxDuty
		}
		value := uint32(uint64(duty) * uint64(p.tops[i]) / uint64(p.maxDuty))
		p.slices[i].Set(p.channels[i], value)
	}
}

// SetPhaseEnable gates the half bridges via the driver enable pins.
func (p *PhasePWM) SetPhaseEnable(u, v, w bool) {
	p.enables[0].Set(u)
	p.enables[1].Set(v)
	p.enables[2].Set(w)
}

// DisableOutput forces all phases off.
func (p *PhasePWM) DisableOutput() {
	p.SetPhaseEnable(false, false, false)
	for i := range p.slices {
		p.slices[i].Set(p.channels[i], 0)
	}
}
