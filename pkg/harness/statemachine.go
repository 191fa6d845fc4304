package harness

import (
	"fmt"

	motionerrors "github.com/go-drift/motiontest/pkg/errors"
	"github.com/go-drift/motiontest/pkg/machine"
)

// AnimationState is the canonical lifecycle vocabulary for animation
// state machines under test.
type AnimationState string

const (
	StateIdle      AnimationState = "idle"
	StateRunning   AnimationState = "running"
	StatePaused    AnimationState = "paused"
	StateCompleted AnimationState = "completed"
	StateCancelled AnimationState = "cancelled"
)

// Terminal reports whether no transition leaves s under AnimationRules.
func (s AnimationState) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// AnimationRules returns the standard animation lifecycle table: idle
// starts running; running pauses, completes, or cancels; paused resumes
// or cancels. Completed and cancelled are terminal.
func AnimationRules() machine.Rules[AnimationState] {
	return machine.Allow(StateIdle, StateRunning).
		Allow(StateRunning, StatePaused, StateCompleted, StateCancelled).
		Allow(StatePaused, StateRunning, StateCancelled)
}

// MachineTester pairs a state machine with assertion helpers. Failures
// go through the scenario's TestingT so a double can intercept them.
type MachineTester[S comparable] struct {
	Machine *machine.Machine[S]
	sc      *Scenario
}

// NewTestStateMachine builds a machine on the scenario's clock,
// stamping transitions with virtual time. Extra options are applied
// after the clock, so callers can still override it.
func NewTestStateMachine[S comparable](sc *Scenario, initial S, opts ...machine.Option[S]) *MachineTester[S] {
	all := append([]machine.Option[S]{machine.WithClock[S](sc.bridge.Clock())}, opts...)
	return &MachineTester[S]{
		Machine: machine.New(initial, all...),
		sc:      sc,
	}
}

// ExpectTransition asserts the most recent history record matches
// from, to, and trigger exactly.
func (mt *MachineTester[S]) ExpectTransition(from, to S, trigger string) {
	history := mt.Machine.History()
	if len(history) == 0 {
		mt.sc.fail("expected a transition %v -> %v, but the machine has no history", from, to)
		return
	}
	last := history[len(history)-1]
	if last.From != from || last.To != to || last.Trigger != trigger {
		mt.sc.fail("last transition = %v -> %v [%s], want %v -> %v [%s]",
			last.From, last.To, last.Trigger, from, to, trigger)
	}
}

// ExpectState asserts the machine's current state.
func (mt *MachineTester[S]) ExpectState(want S) {
	if got := mt.Machine.Current(); got != want {
		mt.sc.fail("machine state = %v, want %v", got, want)
	}
}

// ValidateTransitions replays the recorded history and checks the
// chain invariant: the first record leaves the initial state, every
// later record leaves its predecessor's target, and the machine's
// current state is the last target.
func (mt *MachineTester[S]) ValidateTransitions() error {
	history := mt.Machine.History()
	expected := mt.Machine.Initial()
	for i, rec := range history {
		if rec.From != expected {
			return &motionerrors.StateError{
				Op:       fmt.Sprintf("harness.MachineTester.ValidateTransitions[%d]", i),
				Expected: fmt.Sprint(expected),
				Actual:   fmt.Sprint(rec.From),
			}
		}
		expected = rec.To
	}
	if current := mt.Machine.Current(); current != expected {
		return &motionerrors.StateError{
			Op:       "harness.MachineTester.ValidateTransitions",
			Expected: fmt.Sprint(expected),
			Actual:   fmt.Sprint(current),
		}
	}
	return nil
}
