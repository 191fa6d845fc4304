package phase

import (
	"sort"
	"time"

	motionerrors "github.com/go-drift/motiontest/pkg/errors"
	"github.com/go-drift/motiontest/pkg/timers"
)

// Simulator derives one animation's phase from elapsed clock time. It
// is driven discretely: move the clock, then call Sync to observe
// phase changes. A Simulator is owned by its creator and driven from
// one goroutine; it is not safe for concurrent use.
//
// Teardown is idempotent. Destroy and Cancel may be called more than
// once, including from inside a listener fired by the cancellation
// itself, and the cancellation notification never fires twice.
type Simulator struct {
	cfg   Config
	clock timers.Clock

	phase     Phase
	started   bool
	paused    bool
	finalized bool

	startAt   time.Time
	resumedAt time.Time
	banked    time.Duration // elapsed accumulated before the last pause

	listeners      map[int]func(PhaseChange)
	nextListenerID int
}

// NewSimulator creates a simulator for cfg synchronized to the given
// clock. A nil clock means system time; tests pass the scenario
// bridge's clock.
func NewSimulator(cfg Config, clock timers.Clock) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = timers.SystemClock()
	}
	return &Simulator{
		cfg:       cfg,
		clock:     clock,
		phase:     PhaseBeforeStart,
		listeners: make(map[int]func(PhaseChange)),
	}, nil
}

// Start begins the animation at the current clock time. It fails with
// a StateError unless the simulator is fresh: never started and not
// finalized.
func (s *Simulator) Start() error {
	if s.finalized || s.started {
		actual := "already started"
		if s.finalized {
			actual = s.phase.String()
		}
		return &motionerrors.StateError{Op: "phase.Simulator.Start", Expected: "before-start", Actual: actual}
	}
	now := s.clock.Now()
	s.started = true
	s.startAt = now
	s.resumedAt = now
	s.banked = 0
	return nil
}

// Pause freezes progress. The simulator must be animating. Sync runs
// first, so pausing after the duration already elapsed fails as
// completed rather than freezing a finished animation.
func (s *Simulator) Pause() error {
	s.Sync()
	if s.phase != PhaseAnimating {
		return &motionerrors.StateError{Op: "phase.Simulator.Pause", Expected: "animating", Actual: s.phase.String()}
	}
	s.banked += s.clock.Now().Sub(s.resumedAt)
	s.paused = true
	s.setPhase(PhasePaused)
	return nil
}

// Resume continues a paused animation from its frozen progress. Time
// that passed while paused does not count toward the duration.
func (s *Simulator) Resume() error {
	if s.phase != PhasePaused {
		return &motionerrors.StateError{Op: "phase.Simulator.Resume", Expected: "paused", Actual: s.phase.String()}
	}
	s.paused = false
	s.resumedAt = s.clock.Now()
	s.setPhase(PhaseAnimating)
	return nil
}

// Cancel forces the terminal cancelled phase immediately, regardless
// of progress. On an already-finalized simulator it is a no-op.
func (s *Simulator) Cancel() {
	s.finalize(PhaseCancelled)
}

// Destroy tears the simulator down: a live simulator is cancelled and
// its listeners notified once, then released. A finalized simulator is
// left as is. Always safe to call again.
func (s *Simulator) Destroy() {
	s.Cancel()
}

// Sync recomputes the phase from the clock and notifies listeners of
// any change. Call it after the clock moves; harness scenarios do this
// automatically for simulators they created.
func (s *Simulator) Sync() {
	if !s.started || s.paused || s.finalized {
		return
	}
	pct := s.Percentage()
	switch {
	case pct <= 0:
		s.setPhase(PhaseBeforeStart)
	case pct < 100:
		s.setPhase(PhaseAnimating)
	default:
		s.finalize(PhaseCompleted)
	}
}

// OnPhaseChange registers fn for phase-change notifications and
// returns an unsubscribe function. On a finalized simulator the
// listener is never registered and the unsubscribe does nothing.
func (s *Simulator) OnPhaseChange(fn func(PhaseChange)) func() {
	if s.finalized {
		return func() {}
	}
	if s.listeners == nil {
		s.listeners = make(map[int]func(PhaseChange))
	}
	id := s.nextListenerID
	s.nextListenerID++
	s.listeners[id] = fn
	return func() {
		delete(s.listeners, id)
	}
}

// CurrentPhase returns the phase as of the last Sync or lifecycle
// operation.
func (s *Simulator) CurrentPhase() Phase { return s.phase }

// Percentage returns progress in [0, 100], derived live from the
// clock.
func (s *Simulator) Percentage() float64 {
	ratio := float64(s.Elapsed()) / float64(s.cfg.Duration)
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return ratio * 100
}

// Value returns eased progress in [0, 1], applying the config's
// timing function to the linear ratio.
func (s *Simulator) Value() float64 {
	timing := s.cfg.TimingFunction
	if timing == nil {
		timing = Linear
	}
	return timing(s.Percentage() / 100)
}

// Elapsed returns active animation time: clock time since Start
// excluding paused stretches, frozen once the simulator finalizes.
func (s *Simulator) Elapsed() time.Duration {
	if !s.started {
		return 0
	}
	if s.paused || s.finalized {
		return s.banked
	}
	return s.banked + s.clock.Now().Sub(s.resumedAt)
}

// StartedAt returns the clock time Start was called, or the zero time
// before that.
func (s *Simulator) StartedAt() time.Time { return s.startAt }

// Finalized reports whether the simulator reached a terminal phase.
func (s *Simulator) Finalized() bool { return s.finalized }

// Name returns the animation name.
func (s *Simulator) Name() string { return s.cfg.Name }

// Config returns a copy of the simulator's config.
func (s *Simulator) Config() Config { return s.cfg }

// setPhase records a non-terminal phase change and notifies listeners.
func (s *Simulator) setPhase(next Phase) {
	if s.finalized || s.phase == next {
		return
	}
	from := s.phase
	s.phase = next
	s.notify(PhaseChange{
		Name:       s.cfg.Name,
		From:       from,
		To:         next,
		Percentage: s.Percentage(),
		At:         s.clock.Now(),
	})
}

// finalize is the single terminal routine. It flips the finalized
// guard before anything else, detaches the listener set, and fires the
// final change exactly once. Re-entrant teardown (destroy, cancel,
// notify, listener, destroy again) hits the guard and returns.
func (s *Simulator) finalize(next Phase) {
	if s.finalized {
		return
	}
	s.finalized = true
	if s.started && !s.paused {
		s.banked += s.clock.Now().Sub(s.resumedAt)
	}
	s.paused = false
	from := s.phase
	s.phase = next

	listeners := s.detachListeners()
	change := PhaseChange{
		Name:       s.cfg.Name,
		From:       from,
		To:         next,
		Percentage: s.Percentage(),
		At:         s.clock.Now(),
	}
	for _, fn := range listeners {
		fn(change)
	}
}

// notify fires listeners in registration order. The finalized guard
// makes this a no-op after teardown; the final notification goes out
// through finalize instead.
func (s *Simulator) notify(change PhaseChange) {
	if s.finalized || len(s.listeners) == 0 {
		return
	}
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := s.listeners[id]; ok {
			fn(change)
		}
	}
}

// detachListeners empties the listener set and returns the callbacks
// in registration order.
func (s *Simulator) detachListeners() []func(PhaseChange) {
	if len(s.listeners) == 0 {
		s.listeners = nil
		return nil
	}
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(PhaseChange), 0, len(ids))
	for _, id := range ids {
		out = append(out, s.listeners[id])
	}
	s.listeners = nil
	return out
}
