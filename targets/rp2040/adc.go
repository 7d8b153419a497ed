//go:build rp2040

package main

import "machine"

// VSense reads the bus-voltage divider through the on-chip ADC,
// implementing core.VoltageSenseDriver.
type VSense struct {
	adc machine.ADC
}

// NewVSense configures the sense pin for analog input.
func NewVSense(pin machine.Pin) *VSense {
	machine.InitADC()
	adc := machine.ADC{Pin: pin}
	adc.Configure(machine.ADCConfig{})
	return &VSense{adc: adc}
}

// ReadRaw returns the 12-bit conversion result. TinyGo scales readings
// to 16 bits, so shift back down to match the monitor's ADCMax.
func (v *VSense) ReadRaw() uint16 {
	return v.adc.Get() >> 4
}
