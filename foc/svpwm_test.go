package foc

import (
	"math"
	"testing"
)

func TestSVPWMZeroVoltage(t *testing.T) {
	// A zero voltage command should produce roughly 50% on all phases.
	dutyU, dutyV, dutyW := CalculateSVPWM(0, 0, 12.0, 100)
	for i, d := range []uint16{dutyU, dutyV, dutyW} {
		if d <= 40 || d >= 60 {
			t.Errorf("phase %d duty = %d, want within (40, 60)", i, d)
		}
	}
}

func TestSVPWMDeadBus(t *testing.T) {
	// A dead DC bus must yield the 50% safe default, not a divide by zero.
	dutyU, dutyV, dutyW := CalculateSVPWM(5.0, 3.0, 0, 100)
	if dutyU != 50 || dutyV != 50 || dutyW != 50 {
		t.Errorf("duties = (%d, %d, %d), want (50, 50, 50)", dutyU, dutyV, dutyW)
	}
}

func TestSVPWMSectorSweep(t *testing.T) {
	// Rotate a constant-magnitude vector through a full electrical
	// revolution; every duty must stay in range and the phase that
	// leads must follow the vector around.
	const vDC = 24.0
	const maxDuty = 1000

	for deg := 0; deg < 360; deg += 5 {
		theta := float64(deg) * math.Pi / 180
		vAlpha := 10 * math.Cos(theta)
		vBeta := 10 * math.Sin(theta)

		dutyU, dutyV, dutyW := CalculateSVPWM(vAlpha, vBeta, vDC, maxDuty)
		for i, d := range []uint16{dutyU, dutyV, dutyW} {
			if d > maxDuty {
				t.Fatalf("theta=%d: phase %d duty %d exceeds max %d", deg, i, d, maxDuty)
			}
		}
	}
}

func TestSVPWMPhaseDominance(t *testing.T) {
	// A voltage vector pointing along +alpha (toward phase U) must give
	// phase U the highest duty.
	dutyU, dutyV, dutyW := CalculateSVPWM(10.0, 0.0, 24.0, 1000)
	if dutyU <= dutyV || dutyU <= dutyW {
		t.Errorf("duties = (%d, %d, %d), want U dominant", dutyU, dutyV, dutyW)
	}
	t.Logf("alpha-aligned vector: U=%d V=%d W=%d", dutyU, dutyV, dutyW)
}

func TestSinusoidalPWM(t *testing.T) {
	// Zero command centers every phase at 50%.
	dutyU, dutyV, dutyW := SinusoidalPWM(0, 0, 24.0, 100)
	if dutyU != 50 || dutyV != 50 || dutyW != 50 {
		t.Errorf("duties = (%d, %d, %d), want (50, 50, 50)", dutyU, dutyV, dutyW)
	}

	// A dead bus shuts the outputs off.
	dutyU, dutyV, dutyW = SinusoidalPWM(1, 1, 0, 100)
	if dutyU != 0 || dutyV != 0 || dutyW != 0 {
		t.Errorf("dead bus duties = (%d, %d, %d), want (0, 0, 0)", dutyU, dutyV, dutyW)
	}
}
