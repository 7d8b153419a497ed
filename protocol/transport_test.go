package protocol

import (
	"bytes"
	"testing"
)

type capturedFrame struct {
	id   uint16
	data []byte
}

func collectFrames(frames *[]capturedFrame) FrameHandler {
	return func(id uint16, data []byte) error {
		*frames = append(*frames, capturedFrame{id, append([]byte(nil), data...)})
		return nil
	}
}

func TestTransportSingleFrame(t *testing.T) {
	var frames []capturedFrame
	tr := NewTransport(collectFrames(&frames))

	payload := EncodeSpeedCommand(100)
	tr.Receive(EncodeFrame(IDSpeedCommand, payload))

	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if frames[0].id != IDSpeedCommand {
		t.Errorf("id = 0x%03X, want 0x%03X", frames[0].id, IDSpeedCommand)
	}
	if !bytes.Equal(frames[0].data, payload) {
		t.Errorf("payload = %v, want %v", frames[0].data, payload)
	}
}

func TestTransportEmptyPayload(t *testing.T) {
	var frames []capturedFrame
	tr := NewTransport(collectFrames(&frames))

	tr.Receive(EncodeFrame(IDEmergencyStop, nil))
	if len(frames) != 1 || frames[0].id != IDEmergencyStop || len(frames[0].data) != 0 {
		t.Fatalf("frames = %+v", frames)
	}
}

func TestTransportSplitDelivery(t *testing.T) {
	var frames []capturedFrame
	tr := NewTransport(collectFrames(&frames))

	wire := EncodeFrame(IDPIGains, EncodePIGains(0.5, 0.05))
	for _, b := range wire {
		tr.Receive([]byte{b})
	}

	if len(frames) != 1 {
		t.Fatalf("got %d frames from byte-at-a-time delivery, want 1", len(frames))
	}
}

func TestTransportBackToBackFrames(t *testing.T) {
	var frames []capturedFrame
	tr := NewTransport(collectFrames(&frames))

	wire := append(EncodeFrame(IDMotorEnable, EncodeMotorEnable(true)),
		EncodeFrame(IDSpeedCommand, EncodeSpeedCommand(42))...)
	tr.Receive(wire)

	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0].id != IDMotorEnable || frames[1].id != IDSpeedCommand {
		t.Errorf("ids = 0x%03X, 0x%03X", frames[0].id, frames[1].id)
	}
}

func TestTransportCorruptionRecovery(t *testing.T) {
	var frames []capturedFrame
	tr := NewTransport(collectFrames(&frames))

	bad := EncodeFrame(IDSpeedCommand, EncodeSpeedCommand(1))
	bad[4] ^= 0xFF // corrupt a payload byte so the CRC fails
	good := EncodeFrame(IDSpeedCommand, EncodeSpeedCommand(2))

	tr.Receive(append(bad, good...))

	if len(frames) != 1 {
		t.Fatalf("got %d frames, want only the good one", len(frames))
	}
	speed, err := ParseSpeedCommand(frames[0].data)
	if err != nil || speed != 2 {
		t.Errorf("recovered frame speed = (%v, %v), want 2", speed, err)
	}

	ok, badCount := tr.Stats()
	if ok != 1 || badCount == 0 {
		t.Errorf("stats = (%d, %d), want 1 good and at least 1 bad", ok, badCount)
	}
}

func TestTransportGarbageThenFrame(t *testing.T) {
	var frames []capturedFrame
	tr := NewTransport(collectFrames(&frames))

	// Resynchronization happens at the next sync byte on the stream.
	garbage := []byte{0xFF, 0x03, 0x99, FrameSyncByte}
	tr.Receive(append(garbage, EncodeFrame(IDMotorEnable, EncodeMotorEnable(false))...))

	if len(frames) != 1 || frames[0].id != IDMotorEnable {
		t.Fatalf("frames = %+v, want one enable frame", frames)
	}
}

func TestTransportReset(t *testing.T) {
	var frames []capturedFrame
	tr := NewTransport(collectFrames(&frames))

	// Feed half a frame, then reset: the partial bytes must be dropped.
	wire := EncodeFrame(IDSpeedCommand, EncodeSpeedCommand(7))
	tr.Receive(wire[:3])
	tr.Reset()
	tr.Receive(EncodeFrame(IDMotorEnable, EncodeMotorEnable(true)))

	if len(frames) != 1 || frames[0].id != IDMotorEnable {
		t.Fatalf("frames = %+v, want only the post-reset frame", frames)
	}
}
