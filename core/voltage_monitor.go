// Bus voltage monitoring.
//
// The DC bus is read through a resistive divider into the ADC, low-pass
// filtered and compared against the over/undervoltage thresholds. A
// fault disables the motor through the shared state; the control task
// shuts the PWM down on its next tick.

package core

// VoltageMonitorConfig describes the sense divider and thresholds.
type VoltageMonitorConfig struct {
	// Divider resistors, ohms. The ADC sees VBus * RLower/(RUpper+RLower).
	RUpper float64
	RLower float64

	// ADCMax is the full-scale raw reading, VRef the reference voltage.
	ADCMax uint16
	VRef   float64

	// FilterAlpha is the low-pass coefficient for the voltage estimate.
	FilterAlpha float64

	OvervoltageThreshold  float64
	UndervoltageThreshold float64
}

// DefaultVoltageMonitorConfig matches the reference hardware: a
// 33.3k/3.3k divider into a 3.3V 12-bit ADC.
func DefaultVoltageMonitorConfig() VoltageMonitorConfig {
	return VoltageMonitorConfig{
		RUpper:                33_300,
		RLower:                3_300,
		ADCMax:                4095,
		VRef:                  3.3,
		FilterAlpha:           0.1,
		OvervoltageThreshold:  30.0,
		UndervoltageThreshold: 10.0,
	}
}

// VoltageOK reports whether the status carries no fault.
func (v VoltageStatus) VoltageOK() bool {
	return !v.Overvoltage && !v.Undervoltage
}

// VoltageMonitor converts raw ADC readings into a filtered bus voltage
// and fault flags.
type VoltageMonitor struct {
	cfg      VoltageMonitorConfig
	voltage  float64
	seeded   bool
	faultLog throttle
}

// NewVoltageMonitor creates a monitor with the given configuration.
func NewVoltageMonitor(cfg VoltageMonitorConfig) *VoltageMonitor {
	return &VoltageMonitor{
		cfg:      cfg,
		faultLog: throttle{interval: 10},
	}
}

// scale converts a raw ADC reading to the bus voltage in volts.
func (m *VoltageMonitor) scale(raw uint16) float64 {
	vADC := float64(raw) / float64(m.cfg.ADCMax) * m.cfg.VRef
	return vADC * (m.cfg.RUpper + m.cfg.RLower) / m.cfg.RLower
}

// Update processes one raw reading and returns the filtered status.
// The first reading seeds the filter directly so startup does not ramp
// up from zero through the undervoltage band.
func (m *VoltageMonitor) Update(raw uint16) VoltageStatus {
	v := m.scale(raw)
	if !m.seeded {
		m.voltage = v
		m.seeded = true
	} else {
		m.voltage = m.cfg.FilterAlpha*v + (1-m.cfg.FilterAlpha)*m.voltage
	}

	return VoltageStatus{
		Voltage:      m.voltage,
		Overvoltage:  m.voltage > m.cfg.OvervoltageThreshold,
		Undervoltage: m.voltage < m.cfg.UndervoltageThreshold,
	}
}

// Service reads the sense driver once, publishes the result and, on a
// fault, disables the motor and zeroes the target speed. Run it from a
// periodic housekeeping task.
func (m *VoltageMonitor) Service(driver VoltageSenseDriver, state *SharedState) VoltageStatus {
	status := m.Update(driver.ReadRaw())
	state.PublishVoltage(status)

	if !status.VoltageOK() {
		state.SetMotorEnabled(false)
		state.SetTargetSpeed(0)
		if m.faultLog.ready() {
			DebugPrintln("[VBUS] fault: " + ftoa(status.Voltage, 1) + "V, motor disabled")
		}
	}
	return status
}
