// Package timers coordinates virtual and real clocks behind one
// scheduling surface for deterministic animation tests.
//
// A [Bridge] intercepts timer registrations from code under test. In
// virtual mode no wall-clock time passes: callbacks queue on a
// controlled timeline and run when the test advances it, in time order
// and then registration order for ties. In real mode callbacks run on
// genuine wall-clock timers. Either way, every timer callback executes
// inside the host framework's update-flush boundary, so state mutated
// by a callback is visible before the next assertion runs.
//
// Typical test setup switches to a virtual clock, drives it with
// AdvanceBy, and calls Restore during teardown:
//
//	b := timers.NewBridge()
//	b.UseVirtualClock(timers.VirtualOptions{})
//	defer b.Restore()
//
//	b.AfterFunc(500*time.Millisecond, func() { /* fires at +500ms */ })
//	b.AdvanceBy(time.Second)
//
// Callbacks queued with [Bridge.Dispatch] form the microtask-equivalent
// queue: they always drain before any timer callback of the same
// logical tick.
package timers

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	motionerrors "github.com/go-drift/motiontest/pkg/errors"
)

// ErrRunawayDrain is returned when a drain exceeds its callback budget,
// which means callbacks kept scheduling new work that fell due inside
// the same drain.
var ErrRunawayDrain = errors.New("timer drain did not settle: callbacks kept scheduling new work")

// drainBudget caps the number of callbacks a single drain may run.
const drainBudget = 10000

// noSeqLimit disables the insertion-sequence cutoff when popping.
const noSeqLimit = int64(math.MaxInt64)

// TimerID identifies a scheduled callback. An interval keeps its id
// across occurrences, so one Cancel stops the whole series.
type TimerID int64

// Mode identifies the active timing discipline.
type Mode int

const (
	// ModeReal schedules callbacks on the wall clock.
	ModeReal Mode = iota
	// ModeVirtual schedules callbacks on a controlled timeline that
	// only moves when the test advances it.
	ModeVirtual
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeReal:
		return "real"
	case ModeVirtual:
		return "virtual"
	default:
		return "unknown"
	}
}

// VirtualOptions configures a virtual clock.
type VirtualOptions struct {
	// StartAt is the initial virtual time. Zero means VirtualEpoch.
	StartAt time.Time

	// IncludeRescheduled makes RunAllPending drain callbacks scheduled
	// during its own drain instead of stopping at the set that was
	// pending when it was called. A periodic callback then runs until
	// the drain budget is exhausted, so leave this off unless a test
	// specifically needs it.
	IncludeRescheduled bool
}

// Bridge coordinates scheduled callbacks across both timing
// disciplines. It starts in real mode; UseVirtualClock switches to the
// controlled timeline. Methods are safe for concurrent use because
// real-mode callbacks arrive on timer goroutines. Callbacks themselves
// always run outside the bridge lock.
type Bridge struct {
	mu                 sync.Mutex
	mode               Mode
	now                time.Time // virtual time, meaningless in real mode
	queue              timerQueue
	virtualTimers      map[TimerID]*timerEntry
	realTimers         map[TimerID]*realTimer
	microtasks         []func()
	nextID             TimerID
	nextSeq            int64
	includeRescheduled bool
	flush              func(run func())
}

// realTimer is one scheduled callback on the wall clock.
type realTimer struct {
	timer    *time.Timer
	fn       func()
	interval time.Duration // 0 for one-shot timers
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithFlushBoundary sets the host framework's batched-update boundary.
// Every timer callback runs inside it, so state mutated by the callback
// is flushed before control returns to the test. The default boundary
// invokes the callback directly.
func WithFlushBoundary(flush func(run func())) Option {
	return func(b *Bridge) {
		if flush != nil {
			b.flush = flush
		}
	}
}

// NewBridge creates a bridge in real mode.
func NewBridge(opts ...Option) *Bridge {
	b := &Bridge{
		mode:          ModeReal,
		virtualTimers: make(map[TimerID]*timerEntry),
		realTimers:    make(map[TimerID]*realTimer),
		nextID:        1,
		flush:         func(run func()) { run() },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// UseVirtualClock switches the bridge to a controlled timeline. It
// fails with a StateError while callbacks or microtasks are still
// pending; switch disciplines only at scenario boundaries.
func (b *Bridge) UseVirtualClock(opts VirtualOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n := b.pendingLocked(); n != 0 {
		return &motionerrors.StateError{
			Op:       "timers.Bridge.UseVirtualClock",
			Expected: "no pending work",
			Actual:   fmt.Sprintf("%d pending callbacks", n),
		}
	}
	start := opts.StartAt
	if start.IsZero() {
		start = VirtualEpoch
	}
	b.mode = ModeVirtual
	b.now = start
	b.includeRescheduled = opts.IncludeRescheduled
	b.queue = nil
	return nil
}

// UseRealClock switches the bridge back to the wall clock, subject to
// the same pending-work restriction as UseVirtualClock.
func (b *Bridge) UseRealClock() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n := b.pendingLocked(); n != 0 {
		return &motionerrors.StateError{
			Op:       "timers.Bridge.UseRealClock",
			Expected: "no pending work",
			Actual:   fmt.Sprintf("%d pending callbacks", n),
		}
	}
	b.mode = ModeReal
	b.includeRescheduled = false
	b.queue = nil
	return nil
}

// Mode returns the active timing discipline.
func (b *Bridge) Mode() Mode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode
}

// Now returns the current time on the active clock.
func (b *Bridge) Now() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mode == ModeVirtual {
		return b.now
	}
	return time.Now()
}

// Clock returns a discipline-agnostic handle on the bridge's time
// source. Pass it to code under test so the same code runs against
// either clock.
func (b *Bridge) Clock() Clock {
	return bridgeClock{bridge: b}
}

// AfterFunc schedules fn to run once after d. A negative delay clamps
// to zero, matching timer semantics in browser hosts. The callback runs
// inside the flush boundary.
func (b *Bridge) AfterFunc(d time.Duration, fn func()) TimerID {
	if d < 0 {
		d = 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	if b.mode == ModeVirtual {
		e := &timerEntry{id: id, due: b.now.Add(d), seq: b.nextSeq, fn: fn}
		b.nextSeq++
		b.virtualTimers[id] = e
		heap.Push(&b.queue, e)
		return id
	}
	rt := &realTimer{fn: fn}
	rt.timer = time.AfterFunc(d, func() { b.fireReal(id) })
	b.realTimers[id] = rt
	return id
}

// Every schedules fn to run every d until cancelled. The whole series
// shares one TimerID. A non-positive interval is a ConfigError.
func (b *Bridge) Every(d time.Duration, fn func()) (TimerID, error) {
	if d <= 0 {
		return 0, &motionerrors.ConfigError{
			Op:     "timers.Bridge.Every",
			Field:  "interval",
			Reason: "must be positive",
			Value:  d,
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	if b.mode == ModeVirtual {
		e := &timerEntry{id: id, due: b.now.Add(d), seq: b.nextSeq, fn: fn, interval: d}
		b.nextSeq++
		b.virtualTimers[id] = e
		heap.Push(&b.queue, e)
		return id, nil
	}
	rt := &realTimer{fn: fn, interval: d}
	rt.timer = time.AfterFunc(d, func() { b.fireReal(id) })
	b.realTimers[id] = rt
	return id, nil
}

// Cancel removes a pending callback and reports whether one was
// actually removed. Cancelling after execution or with an unknown id is
// a no-op, not an error.
func (b *Bridge) Cancel(id TimerID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.virtualTimers[id]; ok {
		e.cancelled = true
		delete(b.virtualTimers, id)
		return true
	}
	if rt, ok := b.realTimers[id]; ok {
		rt.timer.Stop()
		delete(b.realTimers, id)
		return true
	}
	return false
}

// Dispatch queues fn on the microtask queue. Microtasks drain before
// any timer callback of the same logical tick.
func (b *Bridge) Dispatch(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.microtasks = append(b.microtasks, fn)
}

// AdvanceBy moves the virtual clock forward by d, running every
// callback that falls due on the way, in time order and then
// registration order for ties. Microtasks drain before each callback,
// callbacks scheduled during the drain also run when they fall due at
// or before the target time, and each callback executes inside the
// flush boundary. Returns ErrRunawayDrain when callbacks keep
// scheduling due work past the drain budget.
func (b *Bridge) AdvanceBy(d time.Duration) error {
	b.mu.Lock()
	if b.mode != ModeVirtual {
		got := b.mode
		b.mu.Unlock()
		return &motionerrors.ClockModeError{Op: "timers.Bridge.AdvanceBy", Need: ModeVirtual.String(), Got: got.String()}
	}
	if d < 0 {
		b.mu.Unlock()
		return &motionerrors.ConfigError{Op: "timers.Bridge.AdvanceBy", Field: "d", Reason: "must not be negative", Value: d}
	}
	target := b.now.Add(d)
	b.mu.Unlock()

	budget := drainBudget
	for {
		var err error
		budget, err = b.drainMicrotasks(budget)
		if err != nil {
			return err
		}
		b.mu.Lock()
		e := b.popDueLocked(target, noSeqLimit)
		if e == nil {
			if target.After(b.now) {
				b.now = target
			}
			b.mu.Unlock()
			_, err = b.drainMicrotasks(budget)
			return err
		}
		b.retireLocked(e)
		fn, flush := e.fn, b.flush
		b.mu.Unlock()
		if budget == 0 {
			return ErrRunawayDrain
		}
		budget--
		flush(fn)
	}
}

// RunAllPending drains the callbacks that were pending when it was
// called, advancing the virtual clock to each one's due time. Snapshot
// semantics: callbacks scheduled during the drain stay queued, so a
// self-rescheduling periodic callback runs exactly once per call. The
// IncludeRescheduled option lifts the snapshot and drains until the
// queue is empty or the budget runs out.
func (b *Bridge) RunAllPending() error {
	b.mu.Lock()
	if b.mode != ModeVirtual {
		got := b.mode
		b.mu.Unlock()
		return &motionerrors.ClockModeError{Op: "timers.Bridge.RunAllPending", Need: ModeVirtual.String(), Got: got.String()}
	}
	include := b.includeRescheduled
	var snapshot []*timerEntry
	if !include {
		snapshot = b.takeSnapshotLocked()
	}
	b.mu.Unlock()

	budget := drainBudget
	if include {
		for {
			var err error
			budget, err = b.drainMicrotasks(budget)
			if err != nil {
				return err
			}
			b.mu.Lock()
			e := b.popLiveLocked()
			if e == nil {
				b.mu.Unlock()
				_, err = b.drainMicrotasks(budget)
				return err
			}
			b.retireLocked(e)
			fn, flush := e.fn, b.flush
			b.mu.Unlock()
			if budget == 0 {
				return ErrRunawayDrain
			}
			budget--
			flush(fn)
		}
	}

	for _, e := range snapshot {
		var err error
		budget, err = b.drainMicrotasks(budget)
		if err != nil {
			return err
		}
		b.mu.Lock()
		if e.cancelled {
			b.mu.Unlock()
			continue
		}
		b.retireLocked(e)
		fn, flush := e.fn, b.flush
		b.mu.Unlock()
		if budget == 0 {
			return ErrRunawayDrain
		}
		budget--
		flush(fn)
	}
	_, err := b.drainMicrotasks(budget)
	return err
}

// FlushPendingWork drains the microtask queue and then runs virtual
// callbacks already due at the current time, so zero-delay work
// completes without moving the clock. Zero-delay callbacks scheduled by
// timer callbacks during the flush wait for the next flush. In real
// mode only the microtask queue drains.
func (b *Bridge) FlushPendingWork() error {
	budget := drainBudget
	var err error
	budget, err = b.drainMicrotasks(budget)
	if err != nil {
		return err
	}
	b.mu.Lock()
	if b.mode != ModeVirtual {
		b.mu.Unlock()
		return nil
	}
	boundary := b.nextSeq
	b.mu.Unlock()
	for {
		budget, err = b.drainMicrotasks(budget)
		if err != nil {
			return err
		}
		b.mu.Lock()
		e := b.popDueLocked(b.now, boundary)
		if e == nil {
			b.mu.Unlock()
			_, err = b.drainMicrotasks(budget)
			return err
		}
		b.retireLocked(e)
		fn, flush := e.fn, b.flush
		b.mu.Unlock()
		if budget == 0 {
			return ErrRunawayDrain
		}
		budget--
		flush(fn)
	}
}

// WaitReal blocks until d of wall-clock time elapses or ctx is done.
// It is the real-mode suspension point; in virtual mode it fails with a
// ClockModeError, since no wall-clock time should pass in a virtual
// scenario.
func (b *Bridge) WaitReal(ctx context.Context, d time.Duration) error {
	b.mu.Lock()
	mode := b.mode
	b.mu.Unlock()
	if mode != ModeReal {
		return &motionerrors.ClockModeError{Op: "timers.Bridge.WaitReal", Need: ModeReal.String(), Got: mode.String()}
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PendingCount returns the number of scheduled callbacks plus queued
// microtasks. Teardown asserts it is zero to surface leaked work.
func (b *Bridge) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pendingLocked()
}

// Restore cancels all pending work, drops queued microtasks, and
// returns the bridge to real mode. It is the required teardown step and
// is safe to call more than once.
func (b *Bridge) Restore() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, e := range b.virtualTimers {
		e.cancelled = true
		delete(b.virtualTimers, id)
	}
	for id, rt := range b.realTimers {
		rt.timer.Stop()
		delete(b.realTimers, id)
	}
	b.queue = nil
	b.microtasks = nil
	b.mode = ModeReal
	b.includeRescheduled = false
}

func (b *Bridge) pendingLocked() int {
	return len(b.virtualTimers) + len(b.realTimers) + len(b.microtasks)
}

// fireReal runs a wall-clock callback. Intervals reschedule before the
// callback runs so a Cancel from inside it stops the series.
func (b *Bridge) fireReal(id TimerID) {
	b.mu.Lock()
	rt, ok := b.realTimers[id]
	if !ok {
		// Cancelled between the timer firing and this call.
		b.mu.Unlock()
		return
	}
	if rt.interval > 0 {
		rt.timer = time.AfterFunc(rt.interval, func() { b.fireReal(id) })
	} else {
		delete(b.realTimers, id)
	}
	fn := rt.fn
	flush := b.flush
	tasks := b.microtasks
	b.microtasks = nil
	b.mu.Unlock()

	for _, task := range tasks {
		task()
	}
	flush(fn)
}

// drainMicrotasks runs queued microtasks until the queue stays empty,
// charging each against the remaining budget. Returns the budget left.
func (b *Bridge) drainMicrotasks(budget int) (int, error) {
	for {
		b.mu.Lock()
		tasks := b.microtasks
		b.microtasks = nil
		b.mu.Unlock()
		if len(tasks) == 0 {
			return budget, nil
		}
		for _, fn := range tasks {
			if budget == 0 {
				return 0, ErrRunawayDrain
			}
			budget--
			fn()
		}
	}
}

// popDueLocked pops the earliest live entry due at or before limit and
// scheduled before the boundary sequence. Cancelled entries are
// discarded along the way.
func (b *Bridge) popDueLocked(limit time.Time, boundary int64) *timerEntry {
	for b.queue.Len() > 0 {
		e := b.queue[0]
		if e.cancelled {
			heap.Pop(&b.queue)
			continue
		}
		if e.due.After(limit) || e.seq >= boundary {
			return nil
		}
		heap.Pop(&b.queue)
		return e
	}
	return nil
}

// popLiveLocked pops the earliest live entry regardless of due time.
func (b *Bridge) popLiveLocked() *timerEntry {
	for b.queue.Len() > 0 {
		e := heap.Pop(&b.queue).(*timerEntry)
		if e.cancelled {
			continue
		}
		return e
	}
	return nil
}

// takeSnapshotLocked removes every live entry from the queue and
// returns them ordered by (due, seq). Pop order cannot enforce snapshot
// semantics because entries scheduled during a drain can sort ahead of
// entries that were already pending.
func (b *Bridge) takeSnapshotLocked() []*timerEntry {
	snapshot := make([]*timerEntry, 0, b.queue.Len())
	for _, e := range b.queue {
		if !e.cancelled {
			snapshot = append(snapshot, e)
		}
	}
	b.queue = nil
	sort.Sort(timerQueue(snapshot))
	return snapshot
}

// retireLocked advances the clock to e's due time and either
// reschedules an interval occurrence under the same id or drops a
// one-shot id.
func (b *Bridge) retireLocked(e *timerEntry) {
	if e.due.After(b.now) {
		b.now = e.due
	}
	if e.interval > 0 {
		next := &timerEntry{id: e.id, due: e.due.Add(e.interval), seq: b.nextSeq, fn: e.fn, interval: e.interval}
		b.nextSeq++
		b.virtualTimers[e.id] = next
		heap.Push(&b.queue, next)
		return
	}
	delete(b.virtualTimers, e.id)
}
