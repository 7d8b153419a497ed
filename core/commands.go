// Command dispatch for the drive's control link.
//
// Frames arrive from whatever transport the target provides (CAN or
// framed serial); this layer only interprets IDs and payloads. A
// malformed payload drops the frame with a rate-limited log and changes
// no state.

package core

import (
	"focdrive/config"
	"focdrive/foc"
	"focdrive/protocol"
)

// CommandServer applies incoming command frames to the shared state and
// the configuration store, and builds outgoing status frames.
type CommandServer struct {
	state *SharedState
	store *config.Store

	badFrameLog throttle
}

// NewCommandServer creates a dispatcher over the given state and store.
func NewCommandServer(state *SharedState, store *config.Store) *CommandServer {
	return &CommandServer{
		state:       state,
		store:       store,
		badFrameLog: throttle{interval: 10},
	}
}

// HandleFrame dispatches one received frame. Unknown IDs and malformed
// payloads are dropped; the error is returned for link statistics but
// the server stays consistent.
func (c *CommandServer) HandleFrame(id uint16, data []byte) error {
	switch id {
	case protocol.IDEmergencyStop:
		// Any payload, any length: stop now.
		c.state.SetMotorEnabled(false)
		c.state.SetTargetSpeed(0)
		DebugPrintln("[CMD] emergency stop")
		return nil

	case protocol.IDSpeedCommand:
		rpm, err := protocol.ParseSpeedCommand(data)
		if err != nil {
			return c.reject(id, err)
		}
		c.state.SetTargetSpeed(float64(rpm))
		return nil

	case protocol.IDPIGains:
		kp, ki, err := protocol.ParsePIGains(data)
		if err != nil {
			return c.reject(id, err)
		}
		c.state.SetGains(float64(kp), float64(ki))
		c.store.Update(func(cfg *config.StoredConfig) {
			cfg.SpeedKp = float64(kp)
			cfg.SpeedKi = float64(ki)
		})
		return nil

	case protocol.IDMotorEnable:
		enable, err := protocol.ParseMotorEnable(data)
		if err != nil {
			return c.reject(id, err)
		}
		c.state.SetMotorEnabled(enable)
		return nil

	case protocol.IDStartCalibration:
		torque := config.DefaultCalibrationTorque
		if percent, ok := protocol.ParseStartCalibration(data); ok {
			torque = float64(percent) / 100
		}
		c.state.RequestCalibration(torque)
		c.state.SetMotorEnabled(true)
		return nil

	case protocol.IDSaveConfig:
		if err := c.store.Save(); err != nil {
			DebugPrintln("[CMD] config save failed: " + err.Error())
			return err
		}
		c.publishConfigStatus()
		return nil

	case protocol.IDReloadConfig:
		err := c.store.Load()
		if err != nil {
			DebugPrintln("[CMD] config reload failed: " + err.Error())
		}
		c.applyLoadedConfig()
		return err

	case protocol.IDResetConfig:
		if err := c.store.Reset(); err != nil {
			DebugPrintln("[CMD] config reset failed: " + err.Error())
			return err
		}
		c.applyLoadedConfig()
		return nil

	default:
		return c.handleParamFrame(id, data)
	}
}

// handleParamFrame applies a parameter-group frame to the pending
// configuration. Values take effect on the next save/reload cycle; PI
// gains and interpolation also apply live.
func (c *CommandServer) handleParamFrame(id uint16, data []byte) error {
	switch id {
	case protocol.IDMotorVoltageParams:
		maxV, vdc, err := protocol.ParseMotorVoltageParams(data)
		if err != nil {
			return c.reject(id, err)
		}
		c.store.Update(func(cfg *config.StoredConfig) {
			cfg.MaxVoltage = float64(maxV)
			cfg.VDCBus = float64(vdc)
		})

	case protocol.IDBasicParams:
		polePairs, maxDuty, err := protocol.ParseBasicParams(data)
		if err != nil {
			return c.reject(id, err)
		}
		c.store.Update(func(cfg *config.StoredConfig) {
			cfg.PolePairs = polePairs
			cfg.MaxDuty = maxDuty
		})

	case protocol.IDHallSensorParams:
		alpha, offset, err := protocol.ParseHallSensorParams(data)
		if err != nil {
			return c.reject(id, err)
		}
		c.store.Update(func(cfg *config.StoredConfig) {
			cfg.SpeedFilterAlpha = float64(alpha)
			cfg.HallAngleOffset = float64(offset)
		})

	case protocol.IDAngleInterpolation:
		enable, err := protocol.ParseAngleInterpolation(data)
		if err != nil {
			return c.reject(id, err)
		}
		c.store.Update(func(cfg *config.StoredConfig) {
			cfg.EnableInterpolation = enable
		})

	case protocol.IDOpenLoopRPMParams:
		initial, target, err := protocol.ParseOpenLoopRPMParams(data)
		if err != nil {
			return c.reject(id, err)
		}
		c.store.Update(func(cfg *config.StoredConfig) {
			cfg.OpenLoopInitialRPM = float64(initial)
			cfg.OpenLoopTargetRPM = float64(target)
		})

	case protocol.IDOpenLoopAccelDutyParams:
		accel, duty, err := protocol.ParseOpenLoopAccelDutyParams(data)
		if err != nil {
			return c.reject(id, err)
		}
		c.store.Update(func(cfg *config.StoredConfig) {
			cfg.OpenLoopAcceleration = float64(accel)
			cfg.OpenLoopDutyRatio = duty
		})

	case protocol.IDPWMConfig:
		freq, dead, err := protocol.ParsePWMConfig(data)
		if err != nil {
			return c.reject(id, err)
		}
		c.store.Update(func(cfg *config.StoredConfig) {
			cfg.PWMFrequency = freq
			cfg.PWMDeadTime = dead
		})

	case protocol.IDCANConfig:
		bitrate, err := protocol.ParseCANConfig(data)
		if err != nil {
			return c.reject(id, err)
		}
		c.store.Update(func(cfg *config.StoredConfig) {
			cfg.CANBitrate = bitrate
		})

	case protocol.IDControlTiming:
		period, err := protocol.ParseControlTiming(data)
		if err != nil {
			return c.reject(id, err)
		}
		c.store.Update(func(cfg *config.StoredConfig) {
			cfg.ControlPeriodUS = period
		})

	default:
		// Unknown IDs are ignored so newer hosts stay compatible.
	}
	return nil
}

// applyLoadedConfig pushes the live-tunable parts of a freshly loaded
// configuration into the shared state.
func (c *CommandServer) applyLoadedConfig() {
	cfg := c.store.Current()
	c.state.SetGains(cfg.SpeedKp, cfg.SpeedKi)
	c.publishConfigStatus()
}

func (c *CommandServer) publishConfigStatus() {
	c.state.PublishConfigStatus(c.store.Version(), c.store.CRCValid())
}

func (c *CommandServer) reject(id uint16, err error) error {
	if c.badFrameLog.ready() {
		DebugPrintln("[CMD] bad frame id=" + utoa(uint32(id)) + ": " + err.Error())
	}
	return err
}

// MotorStatusFrame builds the IDMotorStatus payload from live state.
func (c *CommandServer) MotorStatusFrame() protocol.Frame {
	status := c.state.Status()
	return protocol.Frame{
		ID:   protocol.IDMotorStatus,
		Data: protocol.EncodeMotorStatus(float32(status.SpeedRPM), float32(status.ElectricalAngle)),
	}
}

// VoltageStatusFrame builds the IDVoltageStatus payload.
func (c *CommandServer) VoltageStatusFrame() protocol.Frame {
	v := c.state.Voltage()
	return protocol.Frame{
		ID:   protocol.IDVoltageStatus,
		Data: protocol.EncodeVoltageStatus(float32(v.Voltage), v.Overvoltage, v.Undervoltage),
	}
}

// ConfigStatusFrame builds the IDConfigStatus payload.
func (c *CommandServer) ConfigStatusFrame() protocol.Frame {
	version, crcValid := c.state.ConfigStatus()
	return protocol.Frame{
		ID:   protocol.IDConfigStatus,
		Data: protocol.EncodeConfigStatus(version, crcValid),
	}
}

// CalibrationStatusFrame builds the IDCalibrationStatus payload from
// the last calibration result, if any.
func (c *CommandServer) CalibrationStatusFrame() (protocol.Frame, bool) {
	result, ok := c.state.CalibrationResult()
	if !ok {
		return protocol.Frame{}, false
	}
	return protocol.Frame{
		ID:   protocol.IDCalibrationStatus,
		Data: protocol.EncodeCalibrationStatus(float32(result.ElectricalOffset), result.DirectionInversed, result.Success),
	}, true
}

// RecordCalibrationToConfig copies a successful calibration result into
// the pending configuration so a subsequent save persists it.
func (c *CommandServer) RecordCalibrationToConfig(result foc.CalibrationResult) {
	if !result.Success {
		return
	}
	c.store.Update(func(cfg *config.StoredConfig) {
		cfg.CalibrationOffset = result.ElectricalOffset
		cfg.CalibrationInversed = result.DirectionInversed
		cfg.CalibrationValid = true
	})
}
