package phase

import (
	"testing"
	"time"

	motionerrors "github.com/go-drift/motiontest/pkg/errors"
)

func TestSimulatePhases(t *testing.T) {
	steps, err := SimulatePhases(Config{Name: "slide", Duration: 2 * time.Second, Steps: 4})
	if err != nil {
		t.Fatalf("SimulatePhases: %v", err)
	}
	if len(steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(steps))
	}

	wantPct := []float64{0, 25, 50, 75, 100}
	wantPhase := []Phase{PhaseBeforeStart, PhaseAnimating, PhaseAnimating, PhaseAnimating, PhaseCompleted}
	wantAt := []time.Duration{0, 500 * time.Millisecond, time.Second, 1500 * time.Millisecond, 2 * time.Second}

	for i, step := range steps {
		if step.Percentage != wantPct[i] {
			t.Errorf("step %d percentage = %v, want %v", i, step.Percentage, wantPct[i])
		}
		if step.Phase != wantPhase[i] {
			t.Errorf("step %d phase = %v, want %v", i, step.Phase, wantPhase[i])
		}
		if step.At != wantAt[i] {
			t.Errorf("step %d offset = %v, want %v", i, step.At, wantAt[i])
		}
	}
}

func TestSimulatePhases_DefaultSteps(t *testing.T) {
	steps, err := SimulatePhases(Config{Name: "fade", Duration: time.Second})
	if err != nil {
		t.Fatalf("SimulatePhases: %v", err)
	}
	if len(steps) != DefaultSteps+1 {
		t.Fatalf("expected %d steps, got %d", DefaultSteps+1, len(steps))
	}
	if steps[0].Phase != PhaseBeforeStart {
		t.Errorf("first step phase = %v, want before-start", steps[0].Phase)
	}
	if last := steps[len(steps)-1]; last.Phase != PhaseCompleted || last.Percentage != 100 {
		t.Errorf("last step = %+v, want completed at 100%%", last)
	}
}

func TestSimulatePhases_AppliesTimingFunction(t *testing.T) {
	square := func(u float64) float64 { return u * u }
	steps, err := SimulatePhases(Config{Name: "x", Duration: time.Second, Steps: 4, TimingFunction: square})
	if err != nil {
		t.Fatalf("SimulatePhases: %v", err)
	}
	if got := steps[2].Value; got != 0.25 {
		t.Errorf("eased value at 50%% = %v, want 0.25", got)
	}
	if got := steps[4].Value; got != 1 {
		t.Errorf("eased value at 100%% = %v, want 1", got)
	}
}

func TestSimulatePhases_InvalidConfig(t *testing.T) {
	_, err := SimulatePhases(Config{Name: "", Duration: time.Second})
	if motionerrors.KindOf(err) != motionerrors.KindInvalidConfig {
		t.Fatalf("expected invalid-config error, got %v", err)
	}
}
