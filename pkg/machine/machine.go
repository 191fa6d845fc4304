// Package machine provides a generic finite-state tracker with an
// append-only transition history.
//
// A [Machine] records every state change as a [Transition] carrying the
// source state, target state, timestamp, and the trigger that caused
// it. The history satisfies a chain invariant: each record starts from
// the state the previous record ended in. By default any transition is
// legal; attach a [Rules] table to restrict the reachable targets per
// source state.
//
//	m := machine.New("idle")
//	m.Transition("running", "start")
//	m.Transition("completed", "end")
//	fmt.Println(m.Current()) // completed
//
// A machine is owned by its creator and driven from one goroutine, like
// the rest of a test scenario. It is not safe for concurrent use.
package machine

import (
	"fmt"
	"sort"
	"time"

	motionerrors "github.com/go-drift/motiontest/pkg/errors"
	"github.com/go-drift/motiontest/pkg/timers"
)

// Transition is one recorded state change.
type Transition[S comparable] struct {
	// From is the state the machine left.
	From S
	// To is the state the machine entered.
	To S
	// At is the time of the change on the machine's clock.
	At time.Time
	// Trigger names what caused the change. May be empty.
	Trigger string
}

// Machine tracks the current state of one subject and records every
// transition in order.
type Machine[S comparable] struct {
	initial        S
	current        S
	previous       S
	history        []Transition[S]
	rules          Rules[S]
	clock          timers.Clock
	observers      map[int]func(Transition[S])
	nextObserverID int
}

// Option configures a Machine.
type Option[S comparable] func(*Machine[S])

// WithClock sets the time source used to stamp transitions. Tests pass
// the scenario bridge's clock so history timestamps are deterministic.
func WithClock[S comparable](clock timers.Clock) Option[S] {
	return func(m *Machine[S]) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithRules attaches a transition rule set at construction.
func WithRules[S comparable](rules Rules[S]) Option[S] {
	return func(m *Machine[S]) {
		m.rules = rules
	}
}

// New creates a machine in the given initial state. Transitions are
// stamped with system time unless WithClock overrides it.
func New[S comparable](initial S, opts ...Option[S]) *Machine[S] {
	m := &Machine[S]{
		initial:   initial,
		current:   initial,
		clock:     timers.SystemClock(),
		observers: make(map[int]func(Transition[S])),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Transition moves the machine to a new state and appends a record
// stamped with the machine's clock. The trigger names what caused the
// change and may be empty. When rules are attached, a disallowed change
// fails with a TransitionError and nothing is recorded.
func (m *Machine[S]) Transition(to S, trigger string) error {
	if m.rules != nil && !m.rules.Allows(m.current, to) {
		return &motionerrors.TransitionError{
			Op:      "machine.Transition",
			From:    fmt.Sprint(m.current),
			To:      fmt.Sprint(to),
			Allowed: m.rules.allowedFrom(m.current),
		}
	}
	rec := Transition[S]{From: m.current, To: to, At: m.clock.Now(), Trigger: trigger}
	m.history = append(m.history, rec)
	m.previous = m.current
	m.current = to
	m.notify(rec)
	return nil
}

// Current returns the current state.
func (m *Machine[S]) Current() S { return m.current }

// Initial returns the state the machine started from, or the one given
// to the latest Reset.
func (m *Machine[S]) Initial() S { return m.initial }

// Previous returns the state before the most recent transition. Before
// any transition it is the zero value of S.
func (m *Machine[S]) Previous() S { return m.previous }

// History returns a copy of the transition records in order. Mutating
// the returned slice does not affect the machine.
func (m *Machine[S]) History() []Transition[S] {
	out := make([]Transition[S], len(m.history))
	copy(out, m.history)
	return out
}

// Len returns the number of recorded transitions.
func (m *Machine[S]) Len() int { return len(m.history) }

// Reset clears the history and returns the machine to a fresh initial
// state. It is an explicit scenario-boundary operation, never implicit.
// Attached rules and observers stay registered.
func (m *Machine[S]) Reset(initial S) {
	var zero S
	m.initial = initial
	m.current = initial
	m.previous = zero
	m.history = nil
}

// SetRules attaches a transition rule set. Passing nil removes any
// restriction, like ClearRules.
func (m *Machine[S]) SetRules(rules Rules[S]) { m.rules = rules }

// ClearRules removes the attached rule set; every transition becomes
// legal again.
func (m *Machine[S]) ClearRules() { m.rules = nil }

// Rules returns the attached rule set, or nil when unrestricted.
func (m *Machine[S]) Rules() Rules[S] { return m.rules }

// Observe registers fn to run after each recorded transition and
// returns an unsubscribe function. Observers never fire for rejected
// transitions.
func (m *Machine[S]) Observe(fn func(Transition[S])) func() {
	id := m.nextObserverID
	m.nextObserverID++
	m.observers[id] = fn
	return func() {
		delete(m.observers, id)
	}
}

// notify fires observers in registration order.
func (m *Machine[S]) notify(rec Transition[S]) {
	if len(m.observers) == 0 {
		return
	}
	ids := make([]int, 0, len(m.observers))
	for id := range m.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := m.observers[id]; ok {
			fn(rec)
		}
	}
}
