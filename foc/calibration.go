// Hall sensor calibration.
//
// The rotor is dragged through a slow position ramp with a fixed torque,
// so its true electrical angle is the commanded one. At each Hall sector
// entry the commanded angle is captured; the sector boundary minus that
// angle is one sample of the electrical offset between the Hall frame
// and the magnetic frame, and the six samples are circularly averaged.

package foc

import (
	"errors"
	"math"
)

var (
	// ErrMotorStalled is reported when the rotor did not move during the
	// direction-finding phase.
	ErrMotorStalled = errors.New("calibration: motor did not move")
	// ErrSectorsIncomplete is reported when the measurement phase ran out
	// of rotation budget before all six Hall sectors were observed.
	ErrSectorsIncomplete = errors.New("calibration: not all hall sectors observed")
)

// CalibrationState identifies the active calibration phase.
type CalibrationState uint8

const (
	// CalibrationInit resets tracking state before the ramp starts.
	CalibrationInit CalibrationState = iota
	// CalibrationFindDirection drives one forward rotation to determine
	// whether the sensor counts in the same direction as the drive.
	CalibrationFindDirection
	// CalibrationMeasureSectors records the commanded angle at each
	// Hall sector entry.
	CalibrationMeasureSectors
	// CalibrationReturnToStart ramps the rotor back to its start.
	CalibrationReturnToStart
	// CalibrationCompleted means the routine finished, successfully or
	// not; consult the result.
	CalibrationCompleted
)

// String returns a short name for logging.
func (s CalibrationState) String() string {
	switch s {
	case CalibrationInit:
		return "init"
	case CalibrationFindDirection:
		return "find-direction"
	case CalibrationMeasureSectors:
		return "measure-sectors"
	case CalibrationReturnToStart:
		return "return-to-start"
	case CalibrationCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// CalibrationResult holds the outcome of a calibration run.
type CalibrationResult struct {
	// ElectricalOffset is the measured offset in electrical radians,
	// valid only when Success is true.
	ElectricalOffset float64
	// DirectionInversed is true when the position sensor counts opposite
	// to the drive direction.
	DirectionInversed bool
	// Success is false when the routine aborted.
	Success bool
}

// Angle step per control tick for the calibration ramp. At a 2.5 kHz
// control rate this is about 5 rad/s, slow enough that the rotor tracks
// the commanded field without slip.
const calibrationAngleStep = 0.002

// Sector dwell time before a reading is accepted, seconds.
const sectorSettleTime = 0.010

// Rotation budget for the measurement phase. All six sectors appear
// within one mechanical rotation; five requested rotations without a
// complete set means the sensor is faulty.
const measureRotationBudget = 5

// Calibrator runs the Hall offset calibration state machine. Drive it
// from the control loop: each Update returns the electrical angle and
// torque fraction to command for the next tick.
type Calibrator struct {
	state     CalibrationState
	polePairs uint8
	torque    float64

	posReq ShaftPosition
	posAct ShaftPosition

	sectorOffsets   [6]float64
	sectorSeen      [6]bool
	sectorsRecorded int
	settleTime      float64
	lastSector      int

	// Commanded electrical angle captured at the latest sector entry,
	// committed once the sector has held for the settle time.
	pendingAngle float64
	pendingValid bool

	result CalibrationResult
}

// NewCalibrator creates a calibrator for a motor with the given pole
// pair count. torque is the drive strength as a fraction of the maximum
// voltage, clamped to [0.1, 0.5].
func NewCalibrator(polePairs uint8, torque float64) *Calibrator {
	if torque < 0.1 {
		torque = 0.1
	}
	if torque > 0.5 {
		torque = 0.5
	}
	return &Calibrator{
		state:      CalibrationCompleted,
		polePairs:  polePairs,
		torque:     torque,
		lastSector: -1,
	}
}

// Start begins a new calibration run on the next Update.
func (c *Calibrator) Start() {
	c.state = CalibrationInit
	c.result = CalibrationResult{}
}

// Update advances the state machine by one control tick. sensorAngle is
// the current mechanical angle from the Hall estimator, hallState the
// raw 3-bit Hall code and dt the tick period in seconds.
//
// The returned electricalAngle and torque are the open-loop drive
// command for this tick; both are zero once the routine has completed
// or aborted. A non-nil error means the run aborted and the result has
// Success set to false.
func (c *Calibrator) Update(sensorAngle float64, hallState uint8, dt float64) (electricalAngle, torque float64, err error) {
	switch c.state {
	case CalibrationInit:
		c.posReq.Reset()
		c.posAct.Reset()
		c.posAct.SetInversed(false)
		c.sectorOffsets = [6]float64{}
		c.sectorSeen = [6]bool{}
		c.sectorsRecorded = 0
		c.settleTime = 0
		c.lastSector = -1
		c.pendingValid = false
		c.posAct.UpdateShaftAngle(sensorAngle)
		c.state = CalibrationFindDirection

	case CalibrationFindDirection:
		c.posReq.Increment(calibrationAngleStep)
		c.posAct.UpdateShaftAngle(sensorAngle)

		if c.posReq.Rotations >= 1 {
			if c.posAct.Rotations == 0 && c.posAct.Angle < 0.1 {
				return c.abort(ErrMotorStalled)
			}
			c.result.DirectionInversed = c.posAct.Position() < 0
			c.posAct.SetInversed(c.result.DirectionInversed)
			c.state = CalibrationMeasureSectors
		}

	case CalibrationMeasureSectors:
		c.posReq.Increment(calibrationAngleStep)
		c.posAct.UpdateShaftAngle(sensorAngle)

		if idx, ok := HallIndex(hallState); ok {
			sector := int(idx)
			if c.result.DirectionInversed {
				// Mirror the index order so the sector sequence ascends
				// with the drive direction.
				sector = 5 - sector
			}

			switch {
			case c.lastSector < 0:
				// Measurement starts mid-sector; wait for a real entry.
				c.lastSector = sector
			case sector != c.lastSector:
				// Sector entry: the rotor is locked to the commanded
				// field, so the commanded angle at the boundary is the
				// offset measurement.
				c.lastSector = sector
				c.pendingAngle = NormalizeAngle(c.posReq.Angle * float64(c.polePairs))
				c.pendingValid = true
				c.settleTime = 0
			default:
				c.settleTime += dt
			}

			if c.pendingValid && c.settleTime >= sectorSettleTime {
				if !c.sectorSeen[c.lastSector] {
					boundary := float64(c.lastSector) * (Tau / 6)
					c.sectorOffsets[c.lastSector] = wrapToPi(boundary - c.pendingAngle)
					c.sectorSeen[c.lastSector] = true
					c.sectorsRecorded++
				}
				c.pendingValid = false
			}
		}

		if c.sectorsRecorded == 6 {
			c.result.ElectricalOffset = c.computeOffset()
			c.state = CalibrationReturnToStart
			break
		}
		if c.posReq.Rotations >= 1+measureRotationBudget {
			return c.abort(ErrSectorsIncomplete)
		}

	case CalibrationReturnToStart:
		c.posReq.Increment(-calibrationAngleStep)

		if c.posReq.Rotations == 0 && c.posReq.Angle < Tau/4 {
			c.result.Success = true
			c.state = CalibrationCompleted
			return 0, 0, nil
		}

	case CalibrationCompleted:
		return 0, 0, nil
	}

	return NormalizeAngle(c.posReq.Angle * float64(c.polePairs)), c.torque, nil
}

// computeOffset circularly averages the six per-sector offset samples.
// Averaging as unit vectors keeps samples that straddle the ±π wrap
// from cancelling.
func (c *Calibrator) computeOffset() float64 {
	var sinSum, cosSum float64
	for i := 0; i < 6; i++ {
		sinSum += math.Sin(c.sectorOffsets[i])
		cosSum += math.Cos(c.sectorOffsets[i])
	}
	return NormalizeAngle(math.Atan2(sinSum, cosSum))
}

func (c *Calibrator) abort(cause error) (float64, float64, error) {
	c.result.Success = false
	c.state = CalibrationCompleted
	return 0, 0, cause
}

// Completed reports whether the routine has finished (or aborted).
func (c *Calibrator) Completed() bool {
	return c.state == CalibrationCompleted
}

// Result returns the outcome of the last run.
func (c *Calibrator) Result() CalibrationResult { return c.result }

// State returns the active calibration phase.
func (c *Calibrator) State() CalibrationState { return c.state }

// SetTorque updates the drive strength, clamped to [0.1, 0.5].
func (c *Calibrator) SetTorque(torque float64) {
	if torque < 0.1 {
		torque = 0.1
	}
	if torque > 0.5 {
		torque = 0.5
	}
	c.torque = torque
}
