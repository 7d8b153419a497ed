//go:build rp2040

package main

import (
	"machine"
	"time"

	"focdrive/core"
	"focdrive/protocol"
)

// SerialLink serves the framed serial protocol over USB CDC, as an
// alternative to (or alongside) the CAN link. The same command server
// backs both; frames are idempotent so duplicate delivery is harmless.
//
// On the RP2040, machine.Serial is the USB CDC endpoint; TinyGo's
// runtime provides the descriptors.
type SerialLink struct {
	transport *protocol.Transport
	server    *core.CommandServer
}

// NewSerialLink wires the USB serial port to the command server.
func NewSerialLink(server *core.CommandServer) *SerialLink {
	machine.Serial.Configure(machine.UARTConfig{})
	return &SerialLink{
		transport: protocol.NewTransport(server.HandleFrame),
		server:    server,
	}
}

// write sends one framed status message.
func (l *SerialLink) write(frame protocol.Frame) {
	wire := protocol.EncodeFrame(frame.ID, frame.Data)
	machine.Serial.Write(wire)
}

// Run polls the USB port for command bytes and pushes status frames on
// the same cadence as the CAN link.
func (l *SerialLink) Run() {
	const pollPeriod = 5 * time.Millisecond
	var elapsed time.Duration
	buf := make([]byte, 64)

	for {
		n := 0
		for n < len(buf) && machine.Serial.Buffered() > 0 {
			b, err := machine.Serial.ReadByte()
			if err != nil {
				break
			}
			buf[n] = b
			n++
		}
		if n > 0 {
			l.transport.Receive(buf[:n])
		}

		elapsed += pollPeriod
		if elapsed%(100*time.Millisecond) == 0 {
			l.write(l.server.MotorStatusFrame())
		}
		if elapsed >= time.Second {
			elapsed = 0
			l.write(l.server.VoltageStatusFrame())
			l.write(l.server.ConfigStatusFrame())
			if frame, ok := l.server.CalibrationStatusFrame(); ok {
				l.write(frame)
			}
		}

		time.Sleep(pollPeriod)
	}
}
