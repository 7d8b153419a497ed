package foc

import (
	"errors"
	"math"
	"testing"
)

func TestCalibratorTorqueClamp(t *testing.T) {
	testCases := []struct {
		in, want float64
	}{
		{0.0, 0.1},
		{0.05, 0.1},
		{0.3, 0.3},
		{0.9, 0.5},
	}
	for i, tc := range testCases {
		c := NewCalibrator(2, tc.in)
		if c.torque != tc.want {
			t.Errorf("case %d: torque = %v, want %v", i, c.torque, tc.want)
		}
	}
}

func TestCalibratorStartsCompleted(t *testing.T) {
	c := NewCalibrator(2, 0.3)
	if !c.Completed() {
		t.Fatal("fresh calibrator should be in the completed state")
	}
	elec, torque, err := c.Update(0, 1, 0.0004)
	if elec != 0 || torque != 0 || err != nil {
		t.Errorf("completed Update = (%v, %v, %v), want (0, 0, nil)", elec, torque, err)
	}
}

func TestCalibratorStalledMotor(t *testing.T) {
	// The shaft never moves: the direction search must abort with a
	// failed result once its rotation budget is spent.
	c := NewCalibrator(2, 0.3)
	c.Start()

	const dt = 0.0004
	var gotErr error
	for i := 0; i < 10_000_000; i++ {
		_, _, err := c.Update(0.0, 1, dt)
		if err != nil {
			gotErr = err
			break
		}
		if c.Completed() {
			break
		}
	}

	if !errors.Is(gotErr, ErrMotorStalled) {
		t.Fatalf("err = %v, want ErrMotorStalled", gotErr)
	}
	if !c.Completed() {
		t.Error("calibrator did not complete after the abort")
	}
	if c.Result().Success {
		t.Error("result.Success = true after a stall abort")
	}
}

// runCalibration drives a calibrator against an ideal motor model: the
// rotor is locked to the commanded field, and the Hall sector is the
// one containing the true electrical angle shifted by trueOffset. With
// inversed set the sensor reports the commutation sequence in reverse
// order and its angle estimate counts backward.
func runCalibration(t *testing.T, c *Calibrator, polePairs uint8, trueOffset float64, inversed bool) {
	t.Helper()

	const dt = 0.0004
	mech := 0.0
	c.Start()

	for i := 0; i < 200_000; i++ {
		psi := NormalizeAngle(mech*float64(polePairs) + trueOffset)
		sector := int(psi / (Tau / 6))
		if sector > 5 {
			sector = 5
		}
		sensorAngle := NormalizeAngle(mech)
		if inversed {
			sector = 5 - sector
			sensorAngle = NormalizeAngle(-mech)
		}

		_, _, err := c.Update(sensorAngle, hallCodeForIndex[sector], dt)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", i, err)
		}
		if c.Completed() {
			return
		}

		// The rotor follows the commanded field with no slip.
		switch c.State() {
		case CalibrationFindDirection, CalibrationMeasureSectors:
			mech += calibrationAngleStep
		case CalibrationReturnToStart:
			mech -= calibrationAngleStep
		}
	}
	t.Fatal("calibration did not complete within the tick budget")
}

func TestCalibratorMeasuresOffset(t *testing.T) {
	const polePairs = 2
	for _, trueOffset := range []float64{0.5, 2.5, 5.0} {
		c := NewCalibrator(polePairs, 0.3)
		runCalibration(t, c, polePairs, trueOffset, false)

		result := c.Result()
		if !result.Success {
			t.Fatalf("offset %v: result.Success = false for an ideal motor", trueOffset)
		}
		if result.DirectionInversed {
			t.Errorf("offset %v: DirectionInversed = true for a forward-tracking motor", trueOffset)
		}
		if diff := math.Abs(wrapToPi(result.ElectricalOffset - trueOffset)); diff > 0.05 {
			t.Errorf("measured offset %v, want %v within 0.05", result.ElectricalOffset, trueOffset)
		}
	}
}

func TestCalibratorInversedSensor(t *testing.T) {
	const polePairs = 2
	const trueOffset = 1.0
	c := NewCalibrator(polePairs, 0.3)
	runCalibration(t, c, polePairs, trueOffset, true)

	result := c.Result()
	if !result.Success {
		t.Fatal("result.Success = false for an ideal inversed motor")
	}
	if !result.DirectionInversed {
		t.Error("DirectionInversed = false for a backward-counting sensor")
	}
	if diff := math.Abs(wrapToPi(result.ElectricalOffset - trueOffset)); diff > 0.05 {
		t.Errorf("measured offset %v, want %v within 0.05", result.ElectricalOffset, trueOffset)
	}
}

func TestCalibratorStateSequence(t *testing.T) {
	const polePairs = 2
	c := NewCalibrator(polePairs, 0.3)

	const dt = 0.0004
	mech := 0.0
	c.Start()

	seen := map[CalibrationState]bool{}
	for i := 0; i < 200_000 && !c.Completed(); i++ {
		seen[c.State()] = true

		elec := NormalizeAngle(mech * float64(polePairs))
		sector := int(elec / (Tau / 6))
		if sector > 5 {
			sector = 5
		}
		if _, _, err := c.Update(NormalizeAngle(mech), hallCodeForIndex[sector], dt); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		switch c.State() {
		case CalibrationFindDirection, CalibrationMeasureSectors:
			mech += calibrationAngleStep
		case CalibrationReturnToStart:
			mech -= calibrationAngleStep
		}
	}

	for _, state := range []CalibrationState{
		CalibrationInit,
		CalibrationFindDirection,
		CalibrationMeasureSectors,
		CalibrationReturnToStart,
	} {
		if !seen[state] {
			t.Errorf("state %v never entered", state)
		}
	}
	if !c.Completed() {
		t.Error("run did not complete")
	}
}

func TestCalibratorTorqueCommand(t *testing.T) {
	c := NewCalibrator(2, 0.25)
	c.Start()

	// During the ramp the commanded torque equals the configured value.
	_, torque, err := c.Update(0, 1, 0.0004)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if torque != 0.25 {
		t.Errorf("torque = %v, want 0.25", torque)
	}

	c.SetTorque(0.8)
	_, torque, _ = c.Update(0, 1, 0.0004)
	if torque != 0.5 {
		t.Errorf("torque after SetTorque(0.8) = %v, want 0.5 (clamped)", torque)
	}
}
