// Package drive is the host-side client for a focdrive controller on a
// framed serial link: it encodes command frames, decodes status frames
// and tracks the latest telemetry.
package drive

import (
	"fmt"
	"sync"

	"focdrive/host/serial"
	"focdrive/protocol"
)

// MotorStatus is the last received motor telemetry.
type MotorStatus struct {
	SpeedRPM        float32
	ElectricalAngle float32
}

// VoltageStatus is the last received bus voltage telemetry.
type VoltageStatus struct {
	Voltage      float32
	Overvoltage  bool
	Undervoltage bool
}

// ConfigStatus is the last received stored-config health report.
type ConfigStatus struct {
	Version  uint16
	CRCValid bool
}

// CalibrationStatus is the last received calibration outcome.
type CalibrationStatus struct {
	ElectricalOffset  float32
	DirectionInversed bool
	Success           bool
}

// Drive is a connection to one motor controller.
type Drive struct {
	port      serial.Port
	transport *protocol.Transport

	mu          sync.Mutex
	motor       MotorStatus
	voltage     VoltageStatus
	config      ConfigStatus
	calibration CalibrationStatus
	hasCal      bool

	done chan struct{}
}

// Connect opens the serial device and starts the receive loop.
func Connect(device string, baud int) (*Drive, error) {
	cfg := serial.DefaultConfig(device)
	if baud > 0 {
		cfg.Baud = baud
	}

	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}

	d := &Drive{
		port: port,
		done: make(chan struct{}),
	}
	d.transport = protocol.NewTransport(d.handleFrame)

	go d.readLoop()
	return d, nil
}

// Close stops the receive loop and closes the port.
func (d *Drive) Close() error {
	close(d.done)
	return d.port.Close()
}

// readLoop feeds received bytes into the transport until Close.
func (d *Drive) readLoop() {
	buf := make([]byte, 256)
	for {
		select {
		case <-d.done:
			return
		default:
		}

		n, err := d.port.Read(buf)
		if err != nil || n == 0 {
			// Read timeouts surface as (0, nil); just poll again.
			continue
		}
		d.transport.Receive(buf[:n])
	}
}

// handleFrame stores incoming status frames.
func (d *Drive) handleFrame(id uint16, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch id {
	case protocol.IDMotorStatus:
		speed, angle, err := protocol.ParseMotorStatus(data)
		if err != nil {
			return err
		}
		d.motor = MotorStatus{SpeedRPM: speed, ElectricalAngle: angle}

	case protocol.IDVoltageStatus:
		voltage, ov, uv, err := protocol.ParseVoltageStatus(data)
		if err != nil {
			return err
		}
		d.voltage = VoltageStatus{Voltage: voltage, Overvoltage: ov, Undervoltage: uv}

	case protocol.IDConfigStatus:
		version, crcValid, err := protocol.ParseConfigStatus(data)
		if err != nil {
			return err
		}
		d.config = ConfigStatus{Version: version, CRCValid: crcValid}

	case protocol.IDCalibrationStatus:
		offset, inversed, success, err := protocol.ParseCalibrationStatus(data)
		if err != nil {
			return err
		}
		d.calibration = CalibrationStatus{
			ElectricalOffset:  offset,
			DirectionInversed: inversed,
			Success:           success,
		}
		d.hasCal = true
	}
	return nil
}

// send writes one framed command to the link.
func (d *Drive) send(id uint16, payload []byte) error {
	if _, err := d.port.Write(protocol.EncodeFrame(id, payload)); err != nil {
		return fmt.Errorf("failed to send frame 0x%03X: %w", id, err)
	}
	return nil
}

// SetSpeed commands a target speed in RPM.
func (d *Drive) SetSpeed(rpm float32) error {
	return d.send(protocol.IDSpeedCommand, protocol.EncodeSpeedCommand(rpm))
}

// SetGains sets the speed loop PI gains.
func (d *Drive) SetGains(kp, ki float32) error {
	return d.send(protocol.IDPIGains, protocol.EncodePIGains(kp, ki))
}

// SetEnabled enables or disables the motor.
func (d *Drive) SetEnabled(enable bool) error {
	return d.send(protocol.IDMotorEnable, protocol.EncodeMotorEnable(enable))
}

// EmergencyStop disables the motor immediately.
func (d *Drive) EmergencyStop() error {
	return d.send(protocol.IDEmergencyStop, nil)
}

// StartCalibration starts the sensor calibration routine. A
// torquePercent of 0 lets the drive use its default.
func (d *Drive) StartCalibration(torquePercent uint8) error {
	if torquePercent == 0 {
		return d.send(protocol.IDStartCalibration, nil)
	}
	return d.send(protocol.IDStartCalibration, protocol.EncodeStartCalibration(torquePercent))
}

// SaveConfig persists the drive's pending configuration.
func (d *Drive) SaveConfig() error {
	return d.send(protocol.IDSaveConfig, nil)
}

// ReloadConfig reloads the stored configuration.
func (d *Drive) ReloadConfig() error {
	return d.send(protocol.IDReloadConfig, nil)
}

// ResetConfig restores and persists the compiled-in defaults.
func (d *Drive) ResetConfig() error {
	return d.send(protocol.IDResetConfig, nil)
}

// MotorStatus returns the latest motor telemetry.
func (d *Drive) MotorStatus() MotorStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.motor
}

// VoltageStatus returns the latest voltage telemetry.
func (d *Drive) VoltageStatus() VoltageStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.voltage
}

// ConfigStatus returns the latest stored-config health report.
func (d *Drive) ConfigStatus() ConfigStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.config
}

// CalibrationStatus returns the latest calibration outcome; ok is
// false when none has been received.
func (d *Drive) CalibrationStatus() (CalibrationStatus, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calibration, d.hasCal
}
