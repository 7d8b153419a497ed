//go:build rp2040

package main

import (
	"machine"
	"sync/atomic"

	"focdrive/foc"
)

// Hall edge capture.
//
// The three Hall lines each trigger a pin interrupt on both edges. The
// handler does bounded work only: read the three pins, timestamp the
// edge from the hardware microsecond timer and store the inter-edge
// period. Consumers read the fields atomically; no lock is taken on
// either side.

// hallStallTimeoutUS is the no-edge interval treated as a stall (~1s).
const hallStallTimeoutUS = 1_000_000

// HallCapture implements core.HallDriver over three GPIO interrupts.
type HallCapture struct {
	pinU, pinV, pinW machine.Pin

	state        uint32 // raw 3-bit code, updated in the ISR
	periodCycles uint32 // microseconds between the two latest edges
	lastEdgeUS   uint32 // timestamp of the latest edge
	hasEdge      uint32 // 0 until the first edge arrives
}

// NewHallCapture configures the three Hall input pins with pull-ups
// (open-collector sensors) and installs the edge interrupt.
func NewHallCapture(pinU, pinV, pinW machine.Pin) *HallCapture {
	h := &HallCapture{pinU: pinU, pinV: pinV, pinW: pinW}

	for _, pin := range []machine.Pin{pinU, pinV, pinW} {
		pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	}

	h.state = uint32(h.readState())
	atomic.StoreUint32(&h.lastEdgeUS, GetHardwareTime())

	handler := func(machine.Pin) { h.onEdge() }
	pinU.SetInterrupt(machine.PinRising|machine.PinFalling, handler)
	pinV.SetInterrupt(machine.PinRising|machine.PinFalling, handler)
	pinW.SetInterrupt(machine.PinRising|machine.PinFalling, handler)

	return h
}

// readState composes the raw 3-bit Hall code from the pins.
func (h *HallCapture) readState() uint8 {
	var state uint8
	if h.pinU.Get() {
		state |= 1 << 0
	}
	if h.pinV.Get() {
		state |= 1 << 1
	}
	if h.pinW.Get() {
		state |= 1 << 2
	}
	return state
}

// onEdge runs in interrupt context on any Hall transition.
func (h *HallCapture) onEdge() {
	now := GetHardwareTime()
	last := atomic.LoadUint32(&h.lastEdgeUS)

	atomic.StoreUint32(&h.state, uint32(h.readState()))
	if atomic.LoadUint32(&h.hasEdge) != 0 {
		// Unsigned subtraction handles timer wrap.
		atomic.StoreUint32(&h.periodCycles, now-last)
	}
	atomic.StoreUint32(&h.lastEdgeUS, now)
	atomic.StoreUint32(&h.hasEdge, 1)
}

// Snapshot returns the current capture state for the control task. The
// stall check runs here rather than on a hardware overflow interrupt:
// if no edge arrived within the timeout the sample reports TimedOut
// with a zeroed period.
func (h *HallCapture) Snapshot() foc.HallSample {
	state := uint8(atomic.LoadUint32(&h.state))
	period := atomic.LoadUint32(&h.periodCycles)
	last := atomic.LoadUint32(&h.lastEdgeUS)

	timedOut := GetHardwareTime()-last > hallStallTimeoutUS
	if timedOut {
		period = 0
		atomic.StoreUint32(&h.periodCycles, 0)
	}

	return foc.HallSample{
		State:        state,
		PeriodCycles: period,
		TimedOut:     timedOut,
	}
}

// Reset clears the captured period and stall tracking.
func (h *HallCapture) Reset() {
	atomic.StoreUint32(&h.periodCycles, 0)
	atomic.StoreUint32(&h.hasEdge, 0)
	atomic.StoreUint32(&h.lastEdgeUS, GetHardwareTime())
	atomic.StoreUint32(&h.state, uint32(h.readState()))
}
