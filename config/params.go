// Package config holds the drive's tunable parameters, their
// compiled-in defaults and the persistent storage record they are
// saved in.
package config

// Compiled-in defaults. These are the values the drive falls back to
// whenever the stored record is missing or fails validation.
const (
	// Speed loop PI gains.
	DefaultSpeedKp = 0.8
	DefaultSpeedKi = 0.1

	// Voltage command limit and nominal DC bus voltage, volts.
	DefaultMaxVoltage = 24.0
	DefaultVDCBus     = 24.0

	// Motor construction.
	DefaultPolePairs uint8 = 6

	// PWM duty resolution; duties run 0..MaxDuty.
	DefaultMaxDuty uint16 = 100

	// Hall speed filter coefficient.
	DefaultSpeedFilterAlpha = 0.05

	// Open-loop startup ramp.
	DefaultOpenLoopInitialRPM          = 50.0
	DefaultOpenLoopTargetRPM           = 500.0
	DefaultOpenLoopAcceleration        = 50.0
	DefaultOpenLoopDutyRatio    uint16 = 80

	// PWM carrier and dead time.
	DefaultPWMFrequency uint32 = 50_000
	DefaultPWMDeadTime  uint16 = 1

	// CAN command link bitrate.
	DefaultCANBitrate uint32 = 250_000

	// Control loop period in microseconds (2.5 kHz).
	DefaultControlPeriodUS uint32 = 400
)

// Control behavior constants that are not persisted.
const (
	// MinVoltage is the q-axis voltage floor applied while the speed
	// error is large, so the drive never starves itself of torque.
	MinVoltage = 5.0

	// MinVoltageErrorThreshold is the speed error (RPM) above which the
	// voltage floor applies.
	MinVoltageErrorThreshold = 10.0

	// MaxSpeedAcceleration limits the target speed slew rate, RPM/s.
	MaxSpeedAcceleration = 200.0

	// DefaultHallClockHz is the Hall capture timer frequency.
	DefaultHallClockHz = 1_000_000.0

	// DefaultCalibrationTorque is the drive strength used when a
	// calibration request carries no explicit torque.
	DefaultCalibrationTorque = 0.2
)
