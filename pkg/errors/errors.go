// Package errors provides structured error handling for the motiontest harness.
//
// Every failure carries the operation that was attempted and, where it
// applies, the state the operation expected against the state it found, so
// a failing test can distinguish harness misuse from a genuine defect in
// the code under test.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorKind identifies the category of a harness error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindInvalidState indicates an operation forbidden in the current state.
	KindInvalidState
	// KindInvalidConfig indicates a rejected configuration value.
	KindInvalidConfig
	// KindInvalidTransition indicates a transition rejected by an attached rule set.
	KindInvalidTransition
	// KindWrongClockMode indicates a clock operation issued under the wrong discipline.
	KindWrongClockMode
	// KindStaleResult indicates a hook result read after its session was unmounted.
	KindStaleResult
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidState:
		return "invalid-state"
	case KindInvalidConfig:
		return "invalid-config"
	case KindInvalidTransition:
		return "invalid-transition"
	case KindWrongClockMode:
		return "wrong-clock-mode"
	case KindStaleResult:
		return "stale-result"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// StateError reports an operation attempted while its receiver was in a
// state that forbids it, such as starting an already-running simulator.
type StateError struct {
	// Op is the operation that failed (e.g., "phase.Simulator.Start").
	Op string
	// Expected describes the state the operation requires.
	Expected string
	// Actual describes the state the receiver was in.
	Actual string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s [%s]: expected %s, got %s", e.Op, e.Kind(), e.Expected, e.Actual)
}

// Kind returns KindInvalidState.
func (e *StateError) Kind() ErrorKind { return KindInvalidState }

// ConfigError reports a configuration value the harness rejects, such as a
// non-positive duration or an empty animation name.
type ConfigError struct {
	// Op is the operation that failed (e.g., "phase.NewSimulator").
	Op string
	// Field names the offending configuration field.
	Field string
	// Reason explains the rejection.
	Reason string
	// Value is the rejected value, if informative.
	Value any
}

func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s [%s]: %s %s (got %v)", e.Op, e.Kind(), e.Field, e.Reason, e.Value)
	}
	return fmt.Sprintf("%s [%s]: %s %s", e.Op, e.Kind(), e.Field, e.Reason)
}

// Kind returns KindInvalidConfig.
func (e *ConfigError) Kind() ErrorKind { return KindInvalidConfig }

// TransitionError reports a state-machine transition rejected by the rule
// set attached to the machine.
type TransitionError struct {
	// Op is the operation that failed (e.g., "machine.Transition").
	Op string
	// From is the state the machine was in.
	From string
	// To is the rejected target state.
	To string
	// Allowed lists the targets the rule set permits from From.
	Allowed []string
}

func (e *TransitionError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("%s [%s]: %s -> %s not allowed (no transitions from %s)",
			e.Op, e.Kind(), e.From, e.To, e.From)
	}
	return fmt.Sprintf("%s [%s]: %s -> %s not allowed (allowed: %s)",
		e.Op, e.Kind(), e.From, e.To, strings.Join(e.Allowed, ", "))
}

// Kind returns KindInvalidTransition.
func (e *TransitionError) Kind() ErrorKind { return KindInvalidTransition }

// ClockModeError reports a timer operation issued while the bridge was in
// the wrong clock discipline, such as AdvanceBy under a real clock.
type ClockModeError struct {
	// Op is the operation that failed (e.g., "timers.Bridge.AdvanceBy").
	Op string
	// Need is the discipline the operation requires ("virtual" or "real").
	Need string
	// Got is the discipline the bridge was in.
	Got string
}

func (e *ClockModeError) Error() string {
	return fmt.Sprintf("%s [%s]: requires %s clock, bridge is in %s mode", e.Op, e.Kind(), e.Need, e.Got)
}

// Kind returns KindWrongClockMode.
func (e *ClockModeError) Kind() ErrorKind { return KindWrongClockMode }

// StaleResultError reports a hook result accessed after its evaluation
// session was unmounted.
type StaleResultError struct {
	// Op is the operation that failed (e.g., "harness.HookHandle.Result").
	Op string
}

func (e *StaleResultError) Error() string {
	return fmt.Sprintf("%s [%s]: hook session is unmounted", e.Op, e.Kind())
}

// Kind returns KindStaleResult.
func (e *StaleResultError) Kind() ErrorKind { return KindStaleResult }

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "harness.Scenario.Close").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// Kind returns KindPanic.
func (e *PanicError) Kind() ErrorKind { return KindPanic }

// kinded is implemented by every structured harness error.
type kinded interface {
	error
	Kind() ErrorKind
}

// KindOf returns the kind of err, unwrapping as needed. Errors that do not
// originate in this package report KindUnknown.
func KindOf(err error) ErrorKind {
	var k kinded
	if stderrors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}
