// Per-mode tick handlers for the control task.

package core

import (
	"math"

	"focdrive/config"
	"focdrive/foc"
)

// tickOpenLoop advances the forced-commutation ramp and writes its
// phase pattern to the inverter.
func (m *MotorController) tickOpenLoop(elecAngle float64) {
	step := m.openloop.Update(m.dt)

	m.pwm.SetDuties(step.DutyU, step.DutyV, step.DutyW)
	m.pwm.SetPhaseEnable(step.EnableU, step.EnableV, step.EnableW)

	m.state.PublishStatus(MotorStatus{
		SpeedRPM:        m.openloop.CurrentRPM(),
		ElectricalAngle: elecAngle,
	})

	if m.modeLog.ready() {
		DebugPrintln("[OL] rpm=" + ftoa(m.openloop.CurrentRPM(), 1))
	}
}

// tickFoc runs the closed-loop speed controller.
func (m *MotorController) tickFoc(validHall bool, elecAngle, speed float64) {
	if !validHall {
		// Sensor fault in closed loop is a safety stop: outputs off,
		// integrator cleared, target ramp restarted from zero.
		m.pwm.DisableOutput()
		m.speedPI.Reset()
		m.rampedTarget = 0
		if m.invalidHallLog.ready() {
			DebugPrintln("[FOC] invalid hall state, output disabled")
		}
		return
	}

	m.speedPI.SetGains(m.state.Gains())

	// Slew-limit the target independently of the PI gains.
	target := m.state.TargetSpeed()
	maxStep := config.MaxSpeedAcceleration * m.dt
	if diff := target - m.rampedTarget; diff > maxStep {
		m.rampedTarget += maxStep
	} else if diff < -maxStep {
		m.rampedTarget -= maxStep
	} else {
		m.rampedTarget = target
	}

	vq := m.speedPI.Update(m.rampedTarget, speed, m.dt)
	vd := 0.0

	if math.Abs(m.rampedTarget) < 1 && math.Abs(speed) < 1 {
		// At standstill with no command, hold the output at zero so the
		// integrator cannot buzz the motor.
		m.speedPI.Reset()
		vq = 0
	} else if err := m.rampedTarget - speed; math.Abs(err) > config.MinVoltageErrorThreshold &&
		vq != 0 && math.Abs(vq) < config.MinVoltage {
		// Large speed error but a small command: apply the voltage
		// floor so the drive can actually develop torque.
		vq = math.Copysign(config.MinVoltage, vq)
	}

	vd, vq = foc.LimitVoltage(vd, vq, m.cfg.MaxVoltage)
	vAlpha, vBeta := foc.InversePark(vd, vq, elecAngle)
	dutyU, dutyV, dutyW := foc.CalculateSVPWM(vAlpha, vBeta, m.cfg.VDCBus, m.cfg.MaxDuty)

	m.pwm.SetDuties(dutyU, dutyV, dutyW)
	m.pwm.SetPhaseEnable(true, true, true)

	m.state.PublishStatus(MotorStatus{
		SpeedRPM:        speed,
		ElectricalAngle: elecAngle,
	})
}

// tickCalibration drives the calibration routine and consumes its
// result when it finishes.
func (m *MotorController) tickCalibration(hallState uint8, speed float64) {
	sensorAngle := m.hall.MechanicalAngle()
	elecAngle, torque, err := m.calibrator.Update(sensorAngle, hallState, m.dt)

	if err != nil {
		m.pwm.DisableOutput()
		m.state.PublishCalibrationResult(m.calibrator.Result())
		m.openloop.Reset()
		m.setMode(ModeOpenLoop)
		DebugPrintln("[CAL] failed: " + err.Error())
		return
	}

	if m.calibrator.Completed() {
		result := m.calibrator.Result()
		m.state.PublishCalibrationResult(result)
		m.pwm.DisableOutput()

		if result.Success {
			m.hall.SetElectricalOffset(result.ElectricalOffset)
			m.hall.SetDirectionInversed(result.DirectionInversed)
			m.speedPI.Reset()
			m.hall.ResetSpeedFilter(0)
			m.rampedTarget = 0
			m.setMode(ModeClosedLoopFoc)
			DebugPrintln("[CAL] done, offset=" + ftoa(result.ElectricalOffset, 4))
		} else {
			m.openloop.Reset()
			m.setMode(ModeOpenLoop)
			DebugPrintln("[CAL] unsuccessful, reverting to open loop")
		}
		return
	}

	// Fixed-torque rotation: pure q-axis voltage at the commanded angle.
	vq := torque * m.cfg.MaxVoltage
	vAlpha, vBeta := foc.InversePark(0, vq, elecAngle)
	dutyU, dutyV, dutyW := foc.CalculateSVPWM(vAlpha, vBeta, m.cfg.VDCBus, m.cfg.MaxDuty)

	m.pwm.SetDuties(dutyU, dutyV, dutyW)
	m.pwm.SetPhaseEnable(true, true, true)

	m.state.PublishStatus(MotorStatus{
		SpeedRPM:        speed,
		ElectricalAngle: elecAngle,
	})
}
