// Hall sensor position and speed estimation.
//
// The capture hardware timestamps each Hall transition; this estimator
// turns the raw 3-bit code and inter-edge period into a mechanical
// angle, an electrical angle and a filtered speed.

package foc

import "math"

// invalidHallIndex marks raw Hall codes with no commutation index.
const invalidHallIndex = 255

// hallStateTable maps a raw Hall code (0-7) to its normalized index
// (0-5) in the physical commutation order 1 -> 3 -> 2 -> 6 -> 4 -> 5
// for forward rotation. Codes 0 and 7 are invalid.
var hallStateTable = [8]uint8{
	invalidHallIndex, // 0b000: invalid
	0,                // 0b001
	2,                // 0b010
	1,                // 0b011
	4,                // 0b100
	5,                // 0b101
	3,                // 0b110
	invalidHallIndex, // 0b111: invalid
}

// IsValidHallState reports whether a raw Hall code is one of the six
// valid sensor states (1-6).
func IsValidHallState(state uint8) bool {
	return state >= 1 && state <= 6
}

// HallIndex returns the normalized commutation index (0-5) for a raw
// Hall code, or false for the invalid codes 0 and 7.
func HallIndex(state uint8) (uint8, bool) {
	idx := hallStateTable[state&0x07]
	return idx, idx != invalidHallIndex
}

// HallSample is one snapshot of the Hall capture hardware. It is
// produced by the capture interrupt and read by the control task; all
// fields are independently meaningful so no lock is required.
type HallSample struct {
	// State is the raw 3-bit Hall code. Valid range is 1-6; 0 and 7
	// indicate a wiring or sensor fault and must not update estimates.
	State uint8
	// PeriodCycles is the number of capture-clock cycles between the
	// two most recent edges. Zero means no period is known yet.
	PeriodCycles uint32
	// TimedOut is set when the stall detector fired; PeriodCycles is
	// zeroed at the same time.
	TimedOut bool
}

// HallSensor estimates shaft position and speed from Hall samples.
//
// The mechanical angle is derived from a monotonically adjusted index
// base that advances by 6 per electrical revolution, so the angle stays
// continuous across electrical revolutions. Speed comes from the
// captured inter-edge period and is low-pass filtered.
type HallSensor struct {
	prevState        uint8
	mechanicalAngle  float64
	hallIdxBase      uint32
	hallIdxMax       uint32
	anglePerState    float64
	speedRPM         float64
	timeSinceEdge    float64
	filterAlpha      float64
	polePairs        uint8
	interpolate      bool
	inversed         bool
	electricalOffset float64
	clockHz          float64
}

// NewHallSensor creates an estimator for a motor with the given number
// of pole pairs. filterAlpha is the speed low-pass coefficient (lower
// is smoother) and clockHz the capture timer frequency used to convert
// periods into RPM. Angle interpolation is enabled by default.
func NewHallSensor(polePairs uint8, filterAlpha, clockHz float64) *HallSensor {
	hallIdxMax := uint32(polePairs) * 6
	return &HallSensor{
		prevState:     invalidHallIndex,
		hallIdxMax:    hallIdxMax,
		anglePerState: Tau / float64(hallIdxMax),
		filterAlpha:   clamp01(filterAlpha),
		polePairs:     polePairs,
		interpolate:   true,
		clockHz:       clockHz,
	}
}

// SpeedFromPeriod converts an inter-edge period in capture-clock cycles
// into a mechanical speed in RPM. Six edges make one electrical
// revolution and polePairs electrical revolutions make one mechanical.
func (h *HallSensor) SpeedFromPeriod(periodCycles uint32) float64 {
	if periodCycles == 0 {
		return 0
	}
	edgeHz := h.clockHz / float64(periodCycles)
	electricalRPM := edgeHz * 60 / 6
	return electricalRPM / float64(h.polePairs)
}

// Update processes one capture sample and returns the electrical angle
// in radians and the filtered speed in RPM.
//
// Invalid codes never move the angle: the previous estimate is held,
// speed is zeroed on timeout, and the electrical angle is still
// reported so callers always get a usable value.
func (h *HallSensor) Update(sample HallSample, dt float64) (electricalAngle, speedRPM float64) {
	if !IsValidHallState(sample.State) {
		if sample.TimedOut {
			h.speedRPM = 0
			h.timeSinceEdge = 0
		} else {
			h.timeSinceEdge += dt
		}
		return h.ElectricalAngle(), h.speedRPM
	}

	normalized := hallStateTable[sample.State]
	if h.inversed {
		// Mirror the index order for a sensor that counts opposite to
		// the drive direction, so the angle still ascends with it.
		normalized = 5 - normalized
	}

	if sample.TimedOut || sample.PeriodCycles == 0 {
		// Stalled or no period yet: hold the discrete Hall angle.
		h.speedRPM = 0
		h.timeSinceEdge = 0
		hallIdx := h.hallIdxBase + uint32(normalized)
		h.mechanicalAngle = NormalizeAngle(float64(hallIdx) * h.anglePerState)
		return h.ElectricalAngle(), h.speedRPM
	}

	instantRPM := h.SpeedFromPeriod(sample.PeriodCycles)

	switch {
	case h.prevState == invalidHallIndex:
		h.prevState = normalized
	case normalized != h.prevState:
		// Index 5 -> 0 completes a forward electrical revolution,
		// 0 -> 5 an electrical revolution backward.
		if normalized == 0 && h.prevState == 5 {
			h.hallIdxBase += 6
			if h.hallIdxBase >= h.hallIdxMax {
				h.hallIdxBase = 0
			}
		} else if normalized == 5 && h.prevState == 0 {
			if h.hallIdxBase < 6 {
				h.hallIdxBase = h.hallIdxMax - 6
			} else {
				h.hallIdxBase -= 6
			}
		}
		h.prevState = normalized
		h.timeSinceEdge = 0
	default:
		h.timeSinceEdge += dt
	}

	// Filter speed every tick, edge or not, for a smoother response.
	h.speedRPM = h.filterAlpha*instantRPM + (1-h.filterAlpha)*h.speedRPM

	hallIdx := h.hallIdxBase + uint32(normalized)
	baseAngle := float64(hallIdx) * h.anglePerState

	if h.interpolate && math.Abs(h.speedRPM) > 1 {
		// Advance the angle between edges from the filtered speed.
		mechOmega := h.speedRPM * (Tau / 60)
		h.mechanicalAngle = baseAngle + mechOmega*h.timeSinceEdge
	} else {
		h.mechanicalAngle = baseAngle
	}
	h.mechanicalAngle = NormalizeAngle(h.mechanicalAngle)

	return h.ElectricalAngle(), h.speedRPM
}

// ElectricalAngle returns mechanical_angle * pole_pairs - offset,
// normalized to [0, 2π).
func (h *HallSensor) ElectricalAngle() float64 {
	return NormalizeAngle(h.mechanicalAngle*float64(h.polePairs) - h.electricalOffset)
}

// MechanicalAngle returns the current mechanical angle in radians.
func (h *HallSensor) MechanicalAngle() float64 { return h.mechanicalAngle }

// SpeedRPM returns the filtered speed in RPM.
func (h *HallSensor) SpeedRPM() float64 { return h.speedRPM }

// Reset clears all internal state back to the initial estimate.
func (h *HallSensor) Reset() {
	h.prevState = invalidHallIndex
	h.mechanicalAngle = 0
	h.hallIdxBase = 0
	h.speedRPM = 0
	h.timeSinceEdge = 0
}

// ResetSpeedFilter re-seeds the speed filter with a known speed so the
// low-pass does not produce a transient. Used at the open-loop to FOC
// handoff.
func (h *HallSensor) ResetSpeedFilter(speedRPM float64) {
	h.speedRPM = speedRPM
	h.timeSinceEdge = 0
}

// SetInterpolation enables or disables inter-edge angle interpolation.
func (h *HallSensor) SetInterpolation(enable bool) { h.interpolate = enable }

// InterpolationEnabled reports whether interpolation is active.
func (h *HallSensor) InterpolationEnabled() bool { return h.interpolate }

// SetFilterAlpha sets the speed filter coefficient, clamped to [0, 1].
func (h *HallSensor) SetFilterAlpha(alpha float64) {
	h.filterAlpha = clamp01(alpha)
}

// SetElectricalOffset sets the calibrated offset between the Hall zero
// position and the magnetic zero position, in electrical radians.
func (h *HallSensor) SetElectricalOffset(offsetRad float64) {
	h.electricalOffset = offsetRad
}

// SetDirectionInversed mirrors the Hall index order for a sensor that
// counts opposite to the drive direction, as discovered by calibration.
// Applied together with the electrical offset; Reset preserves it.
func (h *HallSensor) SetDirectionInversed(inversed bool) {
	h.inversed = inversed
}

// DirectionInversed reports whether the index mirror is active.
func (h *HallSensor) DirectionInversed() bool { return h.inversed }

// ElectricalOffset returns the configured electrical offset.
func (h *HallSensor) ElectricalOffset() float64 { return h.electricalOffset }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
