package foc

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestInverseParkIdentity(t *testing.T) {
	// At theta=0 the rotating frame aligns with the stationary frame.
	vAlpha, vBeta := InversePark(1.0, 0.0, 0.0)
	if !almostEqual(vAlpha, 1.0, 1e-12) || !almostEqual(vBeta, 0.0, 1e-12) {
		t.Errorf("InversePark(1, 0, 0) = (%v, %v), want (1, 0)", vAlpha, vBeta)
	}
}

func TestInverseParkQuadrature(t *testing.T) {
	testCases := []struct {
		vd, vq, theta  float64
		wantA, wantB   float64
	}{
		// Pure q-axis at theta=0 lands on beta.
		{0, 1, 0, 0, 1},
		// Quarter turn swaps the axes.
		{1, 0, math.Pi / 2, 0, 1},
		{0, 1, math.Pi / 2, -1, 0},
	}

	for i, tc := range testCases {
		gotA, gotB := InversePark(tc.vd, tc.vq, tc.theta)
		if !almostEqual(gotA, tc.wantA, 1e-12) || !almostEqual(gotB, tc.wantB, 1e-12) {
			t.Errorf("case %d: InversePark(%v, %v, %v) = (%v, %v), want (%v, %v)",
				i, tc.vd, tc.vq, tc.theta, gotA, gotB, tc.wantA, tc.wantB)
		}
	}
}

func TestInverseClarke(t *testing.T) {
	vU, vV, vW := InverseClarke(1.0, 0.0)
	if !almostEqual(vU, 1.0, 1e-12) || !almostEqual(vV, -0.5, 1e-12) || !almostEqual(vW, -0.5, 1e-12) {
		t.Errorf("InverseClarke(1, 0) = (%v, %v, %v), want (1, -0.5, -0.5)", vU, vV, vW)
	}
}

func TestInverseClarkeBalanced(t *testing.T) {
	// The three phase voltages always sum to zero.
	testCases := []struct {
		vAlpha, vBeta float64
	}{
		{1, 0},
		{0, 1},
		{-3.3, 7.1},
		{12.5, -4.2},
		{0, 0},
	}

	for i, tc := range testCases {
		vU, vV, vW := InverseClarke(tc.vAlpha, tc.vBeta)
		sum := vU + vV + vW
		if !almostEqual(sum, 0, 1e-9) {
			t.Errorf("case %d: InverseClarke(%v, %v) phases sum to %v, want 0",
				i, tc.vAlpha, tc.vBeta, sum)
		}
	}
}

func TestLimitVoltage(t *testing.T) {
	testCases := []struct {
		vd, vq, max    float64
		wantD, wantQ   float64
	}{
		// Over the limit: scaled down proportionally.
		{10, 0, 5, 5, 0},
		// Magnitude 5 under a limit of 10: unchanged.
		{3, 4, 10, 3, 4},
		// Exactly at the limit: unchanged.
		{0, 5, 5, 0, 5},
		// Negative components keep their direction.
		{-6, -8, 5, -3, -4},
	}

	for i, tc := range testCases {
		gotD, gotQ := LimitVoltage(tc.vd, tc.vq, tc.max)
		if !almostEqual(gotD, tc.wantD, 1e-9) || !almostEqual(gotQ, tc.wantQ, 1e-9) {
			t.Errorf("case %d: LimitVoltage(%v, %v, %v) = (%v, %v), want (%v, %v)",
				i, tc.vd, tc.vq, tc.max, gotD, gotQ, tc.wantD, tc.wantQ)
		}
	}
}

func TestNormalizeAngle(t *testing.T) {
	testCases := []struct {
		in, want float64
	}{
		{0, 0},
		{Tau, 0},
		{Tau + 1, 1},
		{-1, Tau - 1},
		{3 * Tau, 0},
		{-Tau / 2, Tau / 2},
	}

	for i, tc := range testCases {
		got := NormalizeAngle(tc.in)
		if !almostEqual(got, tc.want, 1e-9) {
			t.Errorf("case %d: NormalizeAngle(%v) = %v, want %v", i, tc.in, got, tc.want)
		}
		if got < 0 || got >= Tau {
			t.Errorf("case %d: NormalizeAngle(%v) = %v, outside [0, 2pi)", i, tc.in, got)
		}
	}
}
