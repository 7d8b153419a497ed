// Shared state between the control task and the housekeeping tasks.
//
// Each field group has its own lock and every lock is held only for
// the few instructions of a read or write, never across a tick or any
// blocking call. Tasks communicate exclusively through this structure.

package core

import (
	"sync"

	"focdrive/foc"
)

// ControlMode selects which controller owns the PWM output this tick.
type ControlMode uint8

const (
	// ModeOpenLoop runs the forced-commutation startup ramp.
	ModeOpenLoop ControlMode = iota
	// ModeClosedLoopFoc runs the Hall-fed field-oriented speed loop.
	ModeClosedLoopFoc
	// ModeCalibration runs the sensor offset calibration routine.
	ModeCalibration
)

// String returns a short mode name for logging.
func (m ControlMode) String() string {
	switch m {
	case ModeOpenLoop:
		return "open-loop"
	case ModeClosedLoopFoc:
		return "foc"
	case ModeCalibration:
		return "calibration"
	default:
		return "unknown"
	}
}

// MotorStatus is the telemetry published by the control task.
type MotorStatus struct {
	SpeedRPM        float64
	ElectricalAngle float64
}

// VoltageStatus is the bus voltage telemetry published by the voltage
// monitor task.
type VoltageStatus struct {
	Voltage      float64
	Overvoltage  bool
	Undervoltage bool
}

// SharedState is the explicit shared context passed to every task.
type SharedState struct {
	targetMu    sync.Mutex
	targetSpeed float64

	gainsMu sync.Mutex
	kp, ki  float64

	enableMu    sync.Mutex
	motorEnable bool

	modeMu sync.Mutex
	mode   ControlMode

	statusMu sync.Mutex
	status   MotorStatus

	voltageMu sync.Mutex
	voltage   VoltageStatus

	calMu        sync.Mutex
	calRequested bool
	calTorque    float64
	calResult    foc.CalibrationResult
	calHasResult bool

	configMu       sync.Mutex
	configVersion  uint16
	configCRCValid bool
}

// NewSharedState creates a shared context with the given initial gains.
func NewSharedState(kp, ki float64) *SharedState {
	return &SharedState{kp: kp, ki: ki}
}

// TargetSpeed returns the commanded speed in RPM.
func (s *SharedState) TargetSpeed() float64 {
	s.targetMu.Lock()
	defer s.targetMu.Unlock()
	return s.targetSpeed
}

// SetTargetSpeed sets the commanded speed in RPM.
func (s *SharedState) SetTargetSpeed(rpm float64) {
	s.targetMu.Lock()
	s.targetSpeed = rpm
	s.targetMu.Unlock()
}

// Gains returns the speed loop PI gains.
func (s *SharedState) Gains() (kp, ki float64) {
	s.gainsMu.Lock()
	defer s.gainsMu.Unlock()
	return s.kp, s.ki
}

// SetGains sets the speed loop PI gains.
func (s *SharedState) SetGains(kp, ki float64) {
	s.gainsMu.Lock()
	s.kp = kp
	s.ki = ki
	s.gainsMu.Unlock()
}

// MotorEnabled returns the motor enable flag.
func (s *SharedState) MotorEnabled() bool {
	s.enableMu.Lock()
	defer s.enableMu.Unlock()
	return s.motorEnable
}

// SetMotorEnabled sets the motor enable flag. It is observed at the
// top of the next control tick.
func (s *SharedState) SetMotorEnabled(enable bool) {
	s.enableMu.Lock()
	s.motorEnable = enable
	s.enableMu.Unlock()
}

// Mode returns the active control mode.
func (s *SharedState) Mode() ControlMode {
	s.modeMu.Lock()
	defer s.modeMu.Unlock()
	return s.mode
}

// setMode publishes the active control mode; only the control task
// calls it.
func (s *SharedState) setMode(mode ControlMode) {
	s.modeMu.Lock()
	s.mode = mode
	s.modeMu.Unlock()
}

// Status returns the latest motor telemetry.
func (s *SharedState) Status() MotorStatus {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return s.status
}

// PublishStatus updates the motor telemetry.
func (s *SharedState) PublishStatus(status MotorStatus) {
	s.statusMu.Lock()
	s.status = status
	s.statusMu.Unlock()
}

// Voltage returns the latest bus voltage telemetry.
func (s *SharedState) Voltage() VoltageStatus {
	s.voltageMu.Lock()
	defer s.voltageMu.Unlock()
	return s.voltage
}

// PublishVoltage updates the bus voltage telemetry.
func (s *SharedState) PublishVoltage(v VoltageStatus) {
	s.voltageMu.Lock()
	s.voltage = v
	s.voltageMu.Unlock()
}

// RequestCalibration asks the control task to start a calibration run
// with the given torque fraction.
func (s *SharedState) RequestCalibration(torque float64) {
	s.calMu.Lock()
	s.calRequested = true
	s.calTorque = torque
	s.calMu.Unlock()
}

// TakeCalibrationRequest consumes a pending calibration request,
// returning the requested torque. Only the control task calls it.
func (s *SharedState) TakeCalibrationRequest() (torque float64, requested bool) {
	s.calMu.Lock()
	defer s.calMu.Unlock()
	if !s.calRequested {
		return 0, false
	}
	s.calRequested = false
	return s.calTorque, true
}

// PublishCalibrationResult records the outcome of a calibration run.
func (s *SharedState) PublishCalibrationResult(result foc.CalibrationResult) {
	s.calMu.Lock()
	s.calResult = result
	s.calHasResult = true
	s.calMu.Unlock()
}

// CalibrationResult returns the last calibration outcome; ok is false
// when no run has completed yet.
func (s *SharedState) CalibrationResult() (result foc.CalibrationResult, ok bool) {
	s.calMu.Lock()
	defer s.calMu.Unlock()
	return s.calResult, s.calHasResult
}

// PublishConfigStatus updates the stored-config health telemetry.
func (s *SharedState) PublishConfigStatus(version uint16, crcValid bool) {
	s.configMu.Lock()
	s.configVersion = version
	s.configCRCValid = crcValid
	s.configMu.Unlock()
}

// ConfigStatus returns the stored-config health telemetry.
func (s *SharedState) ConfigStatus() (version uint16, crcValid bool) {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	return s.configVersion, s.configCRCValid
}
