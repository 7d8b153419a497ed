// Control task and mode state machine.
//
// One MotorController owns the PWM output. Every tick it samples the
// Hall capture, updates the position estimate and dispatches to the
// handler for the active mode. Mode transitions follow a fixed graph:
// OpenLoop moves to ClosedLoopFoc once the startup ramp has finished
// against a valid Hall signal, a calibration request forces Calibration
// from any mode, and Calibration ends in ClosedLoopFoc on success or
// back in OpenLoop on failure. Disabling the motor resets everything
// to OpenLoop within one tick.

package core

import (
	"time"

	"focdrive/config"
	"focdrive/foc"
)

// MotorController runs the drive's control loop.
type MotorController struct {
	state *SharedState
	cfg   config.StoredConfig

	hall       *foc.HallSensor
	speedPI    *foc.PiController
	openloop   *foc.OpenLoopSixStep
	calibrator *foc.Calibrator

	pwm     PhasePWMDriver
	hallDrv HallDriver

	mode         ControlMode
	rampedTarget float64
	wasEnabled   bool
	dt           float64

	invalidHallLog throttle
	modeLog        throttle
}

// NewMotorController wires a controller to its drivers. The supplied
// configuration is a snapshot; live-tunable values (target speed, PI
// gains) are read from the shared state each tick instead.
func NewMotorController(state *SharedState, cfg config.StoredConfig, pwm PhasePWMDriver, hallDrv HallDriver) *MotorController {
	dt := float64(cfg.ControlPeriodUS) * 1e-6

	hall := foc.NewHallSensor(cfg.PolePairs, cfg.SpeedFilterAlpha, config.DefaultHallClockHz)
	hall.SetInterpolation(cfg.EnableInterpolation)
	if cfg.CalibrationValid {
		hall.SetElectricalOffset(cfg.CalibrationOffset)
		hall.SetDirectionInversed(cfg.CalibrationInversed)
	} else {
		hall.SetElectricalOffset(cfg.HallAngleOffset)
	}

	return &MotorController{
		state:   state,
		cfg:     cfg,
		hall:    hall,
		speedPI: foc.NewSymmetricPiController(cfg.SpeedKp, cfg.SpeedKi, cfg.MaxVoltage),
		openloop: foc.NewOpenLoopSixStep(
			cfg.OpenLoopInitialRPM, cfg.OpenLoopTargetRPM,
			cfg.OpenLoopAcceleration, cfg.OpenLoopDutyRatio, cfg.PolePairs),
		pwm:            pwm,
		hallDrv:        hallDrv,
		dt:             dt,
		invalidHallLog: throttle{interval: 2500},
		modeLog:        throttle{interval: 2500},
	}
}

// Mode returns the controller's active mode.
func (m *MotorController) Mode() ControlMode { return m.mode }

// setMode changes the active mode and mirrors it into the shared state.
func (m *MotorController) setMode(mode ControlMode) {
	if m.mode == mode {
		return
	}
	DebugPrintln("[CTRL] mode " + m.mode.String() + " -> " + mode.String())
	m.mode = mode
	m.state.setMode(mode)
}

// Tick runs one control period. It never blocks.
func (m *MotorController) Tick() {
	if !m.state.MotorEnabled() {
		m.handleDisabled()
		return
	}
	m.wasEnabled = true

	// A calibration request preempts whatever mode is active.
	if torque, requested := m.state.TakeCalibrationRequest(); requested {
		m.calibrator = foc.NewCalibrator(m.cfg.PolePairs, torque)
		m.calibrator.Start()
		m.speedPI.Reset()
		m.setMode(ModeCalibration)
	}

	sample := m.hallDrv.Snapshot()
	validHall := foc.IsValidHallState(sample.State)
	elecAngle, speed := m.hall.Update(sample, m.dt)

	switch m.mode {
	case ModeOpenLoop:
		if validHall && m.openloop.TargetReached() {
			// Seed the speed loop from the ramp's final speed so the
			// handoff has no step discontinuity.
			rpm := m.openloop.CurrentRPM()
			m.hall.ResetSpeedFilter(rpm)
			m.rampedTarget = rpm
			m.setMode(ModeClosedLoopFoc)
			m.tickFoc(validHall, elecAngle, rpm)
			return
		}
		m.tickOpenLoop(elecAngle)

	case ModeClosedLoopFoc:
		m.tickFoc(validHall, elecAngle, speed)

	case ModeCalibration:
		m.tickCalibration(sample.State, speed)
	}
}

// handleDisabled keeps the output safe while the motor is off and
// resets the controllers on the enabled-to-disabled edge.
func (m *MotorController) handleDisabled() {
	m.pwm.DisableOutput()

	if m.wasEnabled {
		m.wasEnabled = false
		m.speedPI.Reset()
		m.hall.Reset()
		m.hallDrv.Reset()
		m.openloop.Reset()
		m.rampedTarget = 0
		m.setMode(ModeOpenLoop)
		DebugPrintln("[CTRL] motor disabled, outputs off")
	}

	m.state.PublishStatus(MotorStatus{})
}

// Run executes the control loop until stop is closed, sleeping the
// control period between ticks. The output is forced off on exit.
func (m *MotorController) Run(stop <-chan struct{}) {
	period := time.Duration(m.cfg.ControlPeriodUS) * time.Microsecond
	for {
		select {
		case <-stop:
			m.pwm.DisableOutput()
			return
		default:
		}
		m.Tick()
		time.Sleep(period)
	}
}
