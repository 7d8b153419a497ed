package foc

import (
	"math"
	"testing"
)

func TestOpenLoopInitialPeriod(t *testing.T) {
	// 50 RPM, 6 pole pairs: 60/(50*36) seconds per step.
	o := NewOpenLoopSixStep(50, 500, 50, 80, 6)
	if !almostEqual(o.CurrentRPM(), 50, 1e-9) {
		t.Errorf("initial CurrentRPM = %v, want 50", o.CurrentRPM())
	}
	if o.TargetReached() {
		t.Error("target reported reached before any update")
	}
}

func TestOpenLoopStepAdvance(t *testing.T) {
	o := NewOpenLoopSixStep(50, 500, 0, 80, 6)
	stepPeriod := 60.0 / (50 * 36)

	// Just under one period: still on step 0.
	state := o.Update(stepPeriod * 0.9)
	if state.Step != 0 {
		t.Fatalf("step advanced early: %d", state.Step)
	}

	// Crossing the period advances to step 1.
	state = o.Update(stepPeriod * 0.2)
	if state.Step != 1 {
		t.Fatalf("step = %d, want 1", state.Step)
	}

	// Steps wrap modulo 6.
	for i := 0; i < 5; i++ {
		state = o.Update(stepPeriod * 1.1)
	}
	if state.Step != 0 {
		t.Errorf("step after six advances = %d, want 0", state.Step)
	}
}

func TestOpenLoopPhasePatterns(t *testing.T) {
	// Every step must drive exactly two phases, and the commanded duty
	// must sit on an enabled phase.
	const duty = 80
	for step := uint8(0); step < 6; step++ {
		s := stepState(step, duty)

		enabled := 0
		for _, e := range []bool{s.EnableU, s.EnableV, s.EnableW} {
			if e {
				enabled++
			}
		}
		if enabled != 2 {
			t.Errorf("step %d enables %d phases, want 2", step, enabled)
		}

		switch {
		case s.DutyU == duty:
			if !s.EnableU {
				t.Errorf("step %d drives U without enabling it", step)
			}
		case s.DutyV == duty:
			if !s.EnableV {
				t.Errorf("step %d drives V without enabling it", step)
			}
		case s.DutyW == duty:
			if !s.EnableW {
				t.Errorf("step %d drives W without enabling it", step)
			}
		default:
			t.Errorf("step %d has no driven phase", step)
		}
	}
}

func TestOpenLoopRampToTarget(t *testing.T) {
	o := NewOpenLoopSixStep(50, 500, 200, 80, 6)
	stepPeriod := 60.0 / (50 * 36)

	// Run the ramp long enough to reach the target period.
	for i := 0; i < 100000 && !o.TargetReached(); i++ {
		o.Update(stepPeriod)
	}
	if !o.TargetReached() {
		t.Fatal("ramp never reached the target period")
	}
	if math.Abs(o.CurrentRPM()-500) > 1 {
		t.Errorf("CurrentRPM at target = %v, want 500", o.CurrentRPM())
	}

	// RPM never overshoots the target.
	o.Update(stepPeriod)
	if o.CurrentRPM() > 500+1e-9 {
		t.Errorf("CurrentRPM overshot: %v", o.CurrentRPM())
	}
}

func TestOpenLoopReset(t *testing.T) {
	o := NewOpenLoopSixStep(50, 500, 200, 80, 6)
	stepPeriod := 60.0 / (50 * 36)
	for i := 0; i < 1000; i++ {
		o.Update(stepPeriod)
	}
	o.Reset()
	if o.CurrentStep() != 0 {
		t.Errorf("step after Reset = %d, want 0", o.CurrentStep())
	}
	if !almostEqual(o.CurrentRPM(), 50, 1e-9) {
		t.Errorf("CurrentRPM after Reset = %v, want 50", o.CurrentRPM())
	}
}
