package timers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	motionerrors "github.com/go-drift/motiontest/pkg/errors"
)

func newVirtualBridge(t *testing.T, opts VirtualOptions) *Bridge {
	t.Helper()
	b := NewBridge()
	if err := b.UseVirtualClock(opts); err != nil {
		t.Fatalf("UseVirtualClock: %v", err)
	}
	t.Cleanup(b.Restore)
	return b
}

func TestNewBridge_StartsInRealMode(t *testing.T) {
	b := NewBridge()
	if b.Mode() != ModeReal {
		t.Errorf("expected real mode, got %v", b.Mode())
	}
}

func TestModeString(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{ModeReal, "real"},
		{ModeVirtual, "virtual"},
		{Mode(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("Mode(%d).String() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestUseVirtualClock_DefaultEpoch(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	if got := b.Now(); !got.Equal(VirtualEpoch) {
		t.Errorf("expected virtual time %v, got %v", VirtualEpoch, got)
	}
	if b.Mode() != ModeVirtual {
		t.Errorf("expected virtual mode, got %v", b.Mode())
	}
}

func TestUseVirtualClock_CustomStart(t *testing.T) {
	start := time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC)
	b := newVirtualBridge(t, VirtualOptions{StartAt: start})
	if got := b.Now(); !got.Equal(start) {
		t.Errorf("expected virtual time %v, got %v", start, got)
	}
}

func TestUseVirtualClock_FailsWithPendingWork(t *testing.T) {
	b := NewBridge()
	defer b.Restore()
	id := b.AfterFunc(time.Hour, func() {})

	err := b.UseVirtualClock(VirtualOptions{})
	if motionerrors.KindOf(err) != motionerrors.KindInvalidState {
		t.Fatalf("expected invalid-state error, got %v", err)
	}

	if !b.Cancel(id) {
		t.Fatal("expected Cancel to remove the pending timer")
	}
	if err := b.UseVirtualClock(VirtualOptions{}); err != nil {
		t.Fatalf("expected switch to succeed once idle, got %v", err)
	}
}

func TestUseRealClock_FailsWithPendingWork(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	b.AfterFunc(time.Second, func() {})

	err := b.UseRealClock()
	if motionerrors.KindOf(err) != motionerrors.KindInvalidState {
		t.Fatalf("expected invalid-state error, got %v", err)
	}

	b.Restore()
	if b.Mode() != ModeReal {
		t.Errorf("expected real mode after Restore, got %v", b.Mode())
	}
}

func TestAdvanceBy_RunsDueCallbacksInTimeOrder(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	var log []string
	b.AfterFunc(300*time.Millisecond, func() { log = append(log, "c") })
	b.AfterFunc(100*time.Millisecond, func() { log = append(log, "a") })
	b.AfterFunc(200*time.Millisecond, func() { log = append(log, "b") })

	if err := b.AdvanceBy(300 * time.Millisecond); err != nil {
		t.Fatalf("AdvanceBy: %v", err)
	}
	if got := strings.Join(log, ","); got != "a,b,c" {
		t.Errorf("expected a,b,c, got %s", got)
	}
}

func TestAdvanceBy_RegistrationOrderForTies(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	var log []string
	b.AfterFunc(500*time.Millisecond, func() { log = append(log, "first") })
	b.AfterFunc(500*time.Millisecond, func() { log = append(log, "second") })

	if err := b.AdvanceBy(time.Second); err != nil {
		t.Fatalf("AdvanceBy: %v", err)
	}
	if got := strings.Join(log, ","); got != "first,second" {
		t.Errorf("expected first,second, got %s", got)
	}
}

func TestAdvanceBy_IncludesCallbacksScheduledDuringDrain(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	var log []string
	b.AfterFunc(100*time.Millisecond, func() {
		log = append(log, "outer")
		b.AfterFunc(100*time.Millisecond, func() { log = append(log, "inner") })
	})

	if err := b.AdvanceBy(time.Second); err != nil {
		t.Fatalf("AdvanceBy: %v", err)
	}
	if got := strings.Join(log, ","); got != "outer,inner" {
		t.Errorf("expected outer,inner, got %s", got)
	}
	if want := VirtualEpoch.Add(time.Second); !b.Now().Equal(want) {
		t.Errorf("expected clock at %v, got %v", want, b.Now())
	}
}

func TestAdvanceBy_AdvancesClockWithoutTimers(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	if err := b.AdvanceBy(750 * time.Millisecond); err != nil {
		t.Fatalf("AdvanceBy: %v", err)
	}
	if want := VirtualEpoch.Add(750 * time.Millisecond); !b.Now().Equal(want) {
		t.Errorf("expected clock at %v, got %v", want, b.Now())
	}
}

func TestAdvanceBy_RealModeFails(t *testing.T) {
	b := NewBridge()
	err := b.AdvanceBy(time.Second)
	if motionerrors.KindOf(err) != motionerrors.KindWrongClockMode {
		t.Fatalf("expected wrong-clock-mode error, got %v", err)
	}
}

func TestAdvanceBy_NegativeFails(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	err := b.AdvanceBy(-time.Second)
	if motionerrors.KindOf(err) != motionerrors.KindInvalidConfig {
		t.Fatalf("expected invalid-config error, got %v", err)
	}
}

func TestAdvanceBy_RunawayDrain(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	var reschedule func()
	reschedule = func() { b.AfterFunc(0, reschedule) }
	b.AfterFunc(0, reschedule)

	err := b.AdvanceBy(time.Second)
	if !errors.Is(err, ErrRunawayDrain) {
		t.Fatalf("expected ErrRunawayDrain, got %v", err)
	}
}

func TestAdvanceBy_IntervalFiresRepeatedly(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	count := 0
	if _, err := b.Every(100*time.Millisecond, func() { count++ }); err != nil {
		t.Fatalf("Every: %v", err)
	}
	if err := b.AdvanceBy(350 * time.Millisecond); err != nil {
		t.Fatalf("AdvanceBy: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 occurrences, got %d", count)
	}
	if want := VirtualEpoch.Add(350 * time.Millisecond); !b.Now().Equal(want) {
		t.Errorf("expected clock at %v, got %v", want, b.Now())
	}
}

func TestAfterFunc_NegativeDelayClampsToZero(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	ran := false
	b.AfterFunc(-5*time.Millisecond, func() { ran = true })
	if err := b.AdvanceBy(0); err != nil {
		t.Fatalf("AdvanceBy: %v", err)
	}
	if !ran {
		t.Error("expected negative-delay callback to run immediately")
	}
}

func TestEvery_RejectsNonPositiveInterval(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	if _, err := b.Every(0, func() {}); motionerrors.KindOf(err) != motionerrors.KindInvalidConfig {
		t.Errorf("expected invalid-config error for zero interval, got %v", err)
	}
	if _, err := b.Every(-time.Second, func() {}); motionerrors.KindOf(err) != motionerrors.KindInvalidConfig {
		t.Errorf("expected invalid-config error for negative interval, got %v", err)
	}
}

func TestEvery_CancelInsideCallbackStopsSeries(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	count := 0
	var id TimerID
	id, err := b.Every(100*time.Millisecond, func() {
		count++
		if count == 2 {
			if !b.Cancel(id) {
				t.Error("expected Cancel inside callback to remove the next occurrence")
			}
		}
	})
	if err != nil {
		t.Fatalf("Every: %v", err)
	}
	if err := b.AdvanceBy(time.Second); err != nil {
		t.Fatalf("AdvanceBy: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 occurrences, got %d", count)
	}
	if b.PendingCount() != 0 {
		t.Errorf("expected 0 pending after cancel, got %d", b.PendingCount())
	}
}

func TestCancel_PendingTimer(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	ran := false
	id := b.AfterFunc(500*time.Millisecond, func() { ran = true })

	if !b.Cancel(id) {
		t.Fatal("expected Cancel to report a removed callback")
	}
	if err := b.AdvanceBy(time.Second); err != nil {
		t.Fatalf("AdvanceBy: %v", err)
	}
	if ran {
		t.Error("cancelled callback must never execute")
	}
}

func TestCancel_AfterFireIsNoOp(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	id := b.AfterFunc(100*time.Millisecond, func() {})
	if err := b.AdvanceBy(200 * time.Millisecond); err != nil {
		t.Fatalf("AdvanceBy: %v", err)
	}
	if b.Cancel(id) {
		t.Error("expected Cancel after execution to report false")
	}
}

func TestCancel_UnknownID(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	if b.Cancel(TimerID(9999)) {
		t.Error("expected Cancel with unknown id to report false")
	}
}

func TestRunAllPending_SnapshotSemantics(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	count := 0
	if _, err := b.Every(100*time.Millisecond, func() { count++ }); err != nil {
		t.Fatalf("Every: %v", err)
	}

	if err := b.RunAllPending(); err != nil {
		t.Fatalf("RunAllPending: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 occurrence per call, got %d", count)
	}

	if err := b.RunAllPending(); err != nil {
		t.Fatalf("RunAllPending: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 occurrences after second call, got %d", count)
	}
}

func TestRunAllPending_AdvancesToDueTimes(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	b.AfterFunc(500*time.Millisecond, func() {})
	if err := b.RunAllPending(); err != nil {
		t.Fatalf("RunAllPending: %v", err)
	}
	if want := VirtualEpoch.Add(500 * time.Millisecond); !b.Now().Equal(want) {
		t.Errorf("expected clock at %v, got %v", want, b.Now())
	}
}

func TestRunAllPending_RealModeFails(t *testing.T) {
	b := NewBridge()
	err := b.RunAllPending()
	if motionerrors.KindOf(err) != motionerrors.KindWrongClockMode {
		t.Fatalf("expected wrong-clock-mode error, got %v", err)
	}
}

func TestRunAllPending_IncludeRescheduled(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{IncludeRescheduled: true})
	count := 0
	var tick func()
	tick = func() {
		count++
		if count < 3 {
			b.AfterFunc(100*time.Millisecond, tick)
		}
	}
	b.AfterFunc(100*time.Millisecond, tick)

	if err := b.RunAllPending(); err != nil {
		t.Fatalf("RunAllPending: %v", err)
	}
	if count != 3 {
		t.Errorf("expected the whole chain to drain, got %d occurrences", count)
	}
}

func TestRunAllPending_IncludeRescheduledPeriodicHitsBudget(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{IncludeRescheduled: true})
	if _, err := b.Every(100*time.Millisecond, func() {}); err != nil {
		t.Fatalf("Every: %v", err)
	}
	err := b.RunAllPending()
	if !errors.Is(err, ErrRunawayDrain) {
		t.Fatalf("expected ErrRunawayDrain for a periodic drain, got %v", err)
	}
}

func TestDispatch_MicrotasksPrecedeTimers(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	var log []string
	b.AfterFunc(0, func() { log = append(log, "timer") })
	b.Dispatch(func() { log = append(log, "micro") })

	if err := b.AdvanceBy(0); err != nil {
		t.Fatalf("AdvanceBy: %v", err)
	}
	if got := strings.Join(log, ","); got != "micro,timer" {
		t.Errorf("expected micro,timer, got %s", got)
	}
}

func TestAdvanceBy_MicrotasksDrainBetweenCallbacks(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	var log []string
	b.AfterFunc(100*time.Millisecond, func() {
		log = append(log, "a")
		b.Dispatch(func() { log = append(log, "micro") })
	})
	b.AfterFunc(200*time.Millisecond, func() { log = append(log, "b") })

	if err := b.AdvanceBy(300 * time.Millisecond); err != nil {
		t.Fatalf("AdvanceBy: %v", err)
	}
	if got := strings.Join(log, ","); got != "a,micro,b" {
		t.Errorf("expected a,micro,b, got %s", got)
	}
}

func TestFlushPendingWork_DrainsMicrotasksAndZeroDelay(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	var log []string
	b.AfterFunc(0, func() { log = append(log, "timer") })
	b.AfterFunc(time.Second, func() { log = append(log, "later") })
	b.Dispatch(func() { log = append(log, "micro") })

	if err := b.FlushPendingWork(); err != nil {
		t.Fatalf("FlushPendingWork: %v", err)
	}
	if got := strings.Join(log, ","); got != "micro,timer" {
		t.Errorf("expected micro,timer, got %s", got)
	}
	if b.PendingCount() != 1 {
		t.Errorf("expected the 1s timer to stay pending, got %d", b.PendingCount())
	}
}

func TestFlushPendingWork_MicrotaskChain(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	var log []string
	b.Dispatch(func() {
		log = append(log, "outer")
		b.Dispatch(func() { log = append(log, "inner") })
	})

	if err := b.FlushPendingWork(); err != nil {
		t.Fatalf("FlushPendingWork: %v", err)
	}
	if got := strings.Join(log, ","); got != "outer,inner" {
		t.Errorf("expected outer,inner, got %s", got)
	}
}

func TestFlushPendingWork_MicrotaskScheduledZeroDelayRuns(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	var log []string
	b.Dispatch(func() {
		log = append(log, "micro")
		b.AfterFunc(0, func() { log = append(log, "timer") })
	})

	if err := b.FlushPendingWork(); err != nil {
		t.Fatalf("FlushPendingWork: %v", err)
	}
	if got := strings.Join(log, ","); got != "micro,timer" {
		t.Errorf("expected micro,timer, got %s", got)
	}
}

func TestFlushPendingWork_TimerScheduledZeroDelayWaits(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	var log []string
	b.AfterFunc(0, func() {
		log = append(log, "first")
		b.AfterFunc(0, func() { log = append(log, "second") })
	})

	if err := b.FlushPendingWork(); err != nil {
		t.Fatalf("FlushPendingWork: %v", err)
	}
	if got := strings.Join(log, ","); got != "first" {
		t.Errorf("expected only first to run, got %s", got)
	}

	if err := b.FlushPendingWork(); err != nil {
		t.Fatalf("FlushPendingWork: %v", err)
	}
	if got := strings.Join(log, ","); got != "first,second" {
		t.Errorf("expected first,second after second flush, got %s", got)
	}
}

func TestWithFlushBoundary_WrapsEachTimerCallback(t *testing.T) {
	var log []string
	b := NewBridge(WithFlushBoundary(func(run func()) {
		log = append(log, "begin")
		run()
		log = append(log, "end")
	}))
	if err := b.UseVirtualClock(VirtualOptions{}); err != nil {
		t.Fatalf("UseVirtualClock: %v", err)
	}
	defer b.Restore()

	b.AfterFunc(100*time.Millisecond, func() { log = append(log, "a") })
	b.AfterFunc(200*time.Millisecond, func() { log = append(log, "b") })
	if err := b.AdvanceBy(250 * time.Millisecond); err != nil {
		t.Fatalf("AdvanceBy: %v", err)
	}
	if got := strings.Join(log, ","); got != "begin,a,end,begin,b,end" {
		t.Errorf("expected begin,a,end,begin,b,end, got %s", got)
	}
}

func TestClockHandle_TracksVirtualTime(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	clk := b.Clock()
	if !clk.Now().Equal(VirtualEpoch) {
		t.Errorf("expected clock handle at epoch, got %v", clk.Now())
	}
	if err := b.AdvanceBy(time.Second); err != nil {
		t.Fatalf("AdvanceBy: %v", err)
	}
	if want := VirtualEpoch.Add(time.Second); !clk.Now().Equal(want) {
		t.Errorf("expected clock handle at %v, got %v", want, clk.Now())
	}
}

func TestPendingCount(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	b.AfterFunc(100*time.Millisecond, func() {})
	if _, err := b.Every(50*time.Millisecond, func() {}); err != nil {
		t.Fatalf("Every: %v", err)
	}
	b.Dispatch(func() {})
	if got := b.PendingCount(); got != 3 {
		t.Errorf("expected 3 pending, got %d", got)
	}
}

func TestRestore_ClearsEverything(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	b.AfterFunc(100*time.Millisecond, func() {})
	b.Dispatch(func() {})

	b.Restore()
	if b.PendingCount() != 0 {
		t.Errorf("expected 0 pending after Restore, got %d", b.PendingCount())
	}
	if b.Mode() != ModeReal {
		t.Errorf("expected real mode after Restore, got %v", b.Mode())
	}

	// Safe to call again and to start a fresh virtual scenario.
	b.Restore()
	if err := b.UseVirtualClock(VirtualOptions{}); err != nil {
		t.Fatalf("expected reuse after Restore, got %v", err)
	}
}

func TestWaitReal_VirtualModeFails(t *testing.T) {
	b := newVirtualBridge(t, VirtualOptions{})
	err := b.WaitReal(context.Background(), time.Millisecond)
	if motionerrors.KindOf(err) != motionerrors.KindWrongClockMode {
		t.Fatalf("expected wrong-clock-mode error, got %v", err)
	}
}

func TestWaitReal_Elapses(t *testing.T) {
	b := NewBridge()
	start := time.Now()
	if err := b.WaitReal(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("WaitReal: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("expected at least 20ms to elapse, got %v", elapsed)
	}
}

func TestWaitReal_ContextCancelled(t *testing.T) {
	b := NewBridge()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := b.WaitReal(ctx, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRealMode_AfterFuncFires(t *testing.T) {
	b := NewBridge()
	defer b.Restore()
	done := make(chan struct{})
	b.AfterFunc(5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("real timer did not fire")
	}
	if b.PendingCount() != 0 {
		t.Errorf("expected 0 pending after fire, got %d", b.PendingCount())
	}
}

func TestRealMode_EveryRepeats(t *testing.T) {
	b := NewBridge()
	defer b.Restore()
	var mu sync.Mutex
	count := 0
	done := make(chan struct{})
	id, err := b.Every(5*time.Millisecond, func() {
		mu.Lock()
		count++
		c := count
		mu.Unlock()
		if c == 3 {
			close(done)
		}
	})
	if err != nil {
		t.Fatalf("Every: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("real interval did not reach 3 occurrences")
	}
	b.Cancel(id)
}
