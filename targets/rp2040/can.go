//go:build rp2040

package main

import (
	"machine"
	"time"

	"tinygo.org/x/drivers/mcp2515"

	"focdrive/core"
	"focdrive/protocol"
)

// CAN command link over an MCP2515 controller on SPI0. The RP2040 has
// no CAN peripheral of its own.
//
// Frame IDs on the bus are the protocol IDs directly; payloads are the
// protocol payload codecs. No extra framing is needed since CAN
// provides length and CRC itself.
type CANLink struct {
	dev    *mcp2515.Device
	server *core.CommandServer

	rxCount uint32
	txFails uint32
}

// canRate maps a configured bitrate to the driver's constant, falling
// back to 250k for unsupported values.
func canRate(bitrate uint32) uint8 {
	switch bitrate {
	case 125_000:
		return mcp2515.CAN125kBps
	case 250_000:
		return mcp2515.CAN250kBps
	case 500_000:
		return mcp2515.CAN500kBps
	case 1_000_000:
		return mcp2515.CAN1000kBps
	default:
		return mcp2515.CAN250kBps
	}
}

// NewCANLink brings up the MCP2515 on the given SPI bus and chip
// select.
func NewCANLink(spi *machine.SPI, sck, sdo, sdi, cs machine.Pin, bitrate uint32, server *core.CommandServer) (*CANLink, error) {
	err := spi.Configure(machine.SPIConfig{
		Frequency: 8_000_000,
		SCK:       sck,
		SDO:       sdo,
		SDI:       sdi,
		Mode:      0,
	})
	if err != nil {
		return nil, err
	}

	dev := mcp2515.New(spi, cs)
	dev.Configure()
	if err := dev.Begin(canRate(bitrate), mcp2515.Clock8MHz); err != nil {
		return nil, err
	}

	return &CANLink{dev: dev, server: server}, nil
}

// poll drains pending received frames into the command server.
func (l *CANLink) poll() {
	for l.dev.Received() {
		msg, err := l.dev.Rx()
		if err != nil {
			return
		}
		l.rxCount++
		_ = l.server.HandleFrame(uint16(msg.ID), msg.Data[:msg.Dlc])
	}
}

// send transmits one status frame.
func (l *CANLink) send(frame protocol.Frame) {
	if err := l.dev.Tx(uint32(frame.ID), uint8(len(frame.Data)), frame.Data); err != nil {
		l.txFails++
	}
}

// Run services the link: receive continuously, transmit motor status
// at 10Hz and the slow telemetry (voltage, config, calibration) at
// 1Hz. Runs as its own goroutine; it communicates with the control
// task only through the shared state.
func (l *CANLink) Run() {
	const pollPeriod = 5 * time.Millisecond
	var elapsed time.Duration

	for {
		l.poll()

		elapsed += pollPeriod
		if elapsed%(100*time.Millisecond) == 0 {
			l.send(l.server.MotorStatusFrame())
		}
		if elapsed >= time.Second {
			elapsed = 0
			l.send(l.server.VoltageStatusFrame())
			l.send(l.server.ConfigStatusFrame())
			if frame, ok := l.server.CalibrationStatusFrame(); ok {
				l.send(frame)
			}
		}

		time.Sleep(pollPeriod)
	}
}
