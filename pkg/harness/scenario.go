package harness

import (
	"fmt"
	"time"

	motionerrors "github.com/go-drift/motiontest/pkg/errors"
	"github.com/go-drift/motiontest/pkg/host"
	"github.com/go-drift/motiontest/pkg/phase"
	"github.com/go-drift/motiontest/pkg/styles"
	"github.com/go-drift/motiontest/pkg/timers"
)

// Scenario owns the shared mutable state of one animation test: the
// timer bridge, the style store, and the host runtime. Timer callbacks
// and simulator syncs all run inside the runtime's batched-update
// boundary, so assertions always observe flushed state.
//
// Scenarios are single-goroutine, like the code they test. Reset is the
// scenario-boundary contract; Close additionally asserts that no
// scheduled callback leaked.
type Scenario struct {
	cfg     scenarioConfig
	bridge  *timers.Bridge
	styles  *styles.Store
	runtime host.Runtime
	t       TestingT

	simulators []*phase.Simulator
	closed     bool
}

type scenarioConfig struct {
	runtime host.Runtime
	virtual timers.VirtualOptions
	real    bool
}

// Option configures a Scenario.
type Option func(*scenarioConfig)

// WithRuntime replaces the default inline host runtime.
func WithRuntime(rt host.Runtime) Option {
	return func(cfg *scenarioConfig) {
		if rt != nil {
			cfg.runtime = rt
		}
	}
}

// WithVirtualClock selects virtual time with explicit options. This is
// the default mode; the zero VirtualOptions start at the fixed epoch.
func WithVirtualClock(opts timers.VirtualOptions) Option {
	return func(cfg *scenarioConfig) {
		cfg.virtual = opts
		cfg.real = false
	}
}

// WithRealClock runs the scenario on wall-clock time.
func WithRealClock() Option {
	return func(cfg *scenarioConfig) {
		cfg.real = true
	}
}

// NewScenario builds a scenario. Callers are responsible for Close;
// tests should prefer NewScenarioWithT.
func NewScenario(opts ...Option) *Scenario {
	cfg := scenarioConfig{runtime: host.NewInline()}
	for _, opt := range opts {
		opt(&cfg)
	}

	sc := &Scenario{cfg: cfg, runtime: cfg.runtime, styles: styles.NewStore()}
	sc.bridge = timers.NewBridge(timers.WithFlushBoundary(func(run func()) {
		sc.runtime.FlushUpdates(run)
	}))
	if err := sc.applyClockMode(); err != nil {
		motionerrors.Report(err)
	}
	return sc
}

// NewScenarioWithT builds a scenario that closes itself via t.Cleanup
// and reports leaks through t. This is the recommended constructor.
func NewScenarioWithT(t TestingT, opts ...Option) *Scenario {
	sc := NewScenario(opts...)
	sc.t = t
	t.Cleanup(sc.Close)
	return sc
}

func (sc *Scenario) applyClockMode() error {
	if sc.cfg.real {
		return nil
	}
	return sc.bridge.UseVirtualClock(sc.cfg.virtual)
}

// Bridge returns the scenario's timer bridge.
func (sc *Scenario) Bridge() *timers.Bridge { return sc.bridge }

// Styles returns the scenario's style store.
func (sc *Scenario) Styles() *styles.Store { return sc.styles }

// Runtime returns the scenario's host runtime.
func (sc *Scenario) Runtime() host.Runtime { return sc.runtime }

// NewSimulator creates a phase simulator on the scenario's clock and
// registers it: Advance/Run/Flush calls sync it automatically, and
// Reset destroys it.
func (sc *Scenario) NewSimulator(cfg phase.Config) (*phase.Simulator, error) {
	sim, err := phase.NewSimulator(cfg, sc.bridge.Clock())
	if err != nil {
		return nil, err
	}
	sc.simulators = append(sc.simulators, sim)
	return sim, nil
}

// AdvanceBy moves virtual time forward, then syncs every registered
// simulator inside the update boundary.
func (sc *Scenario) AdvanceBy(d time.Duration) error {
	if err := sc.bridge.AdvanceBy(d); err != nil {
		return err
	}
	sc.syncAll()
	return nil
}

// RunAllPending drains the callbacks that existed when the call began,
// then syncs registered simulators.
func (sc *Scenario) RunAllPending() error {
	if err := sc.bridge.RunAllPending(); err != nil {
		return err
	}
	sc.syncAll()
	return nil
}

// FlushPendingWork drains microtasks and zero-delay callbacks of the
// current tick, then syncs registered simulators.
func (sc *Scenario) FlushPendingWork() error {
	if err := sc.bridge.FlushPendingWork(); err != nil {
		return err
	}
	sc.syncAll()
	return nil
}

func (sc *Scenario) syncAll() {
	sc.runtime.FlushUpdates(func() {
		for _, sim := range sc.simulators {
			sim.Sync()
		}
	})
}

// Reset returns the scenario to a clean slate: simulators destroyed,
// styles cleared, bridge restored and re-armed in the configured clock
// mode. Calling it between logical scenarios is mandatory, not
// best-effort; state otherwise leaks across them.
func (sc *Scenario) Reset() error {
	sc.teardown()
	return sc.applyClockMode()
}

// Close asserts the scenario wound down cleanly and releases it. A
// non-zero pending-callback count is reported as a leak through the
// scenario's TestingT, or the global error handler when there is none.
// Idempotent; panics from listener teardown are contained and reported.
func (sc *Scenario) Close() {
	if sc.closed {
		return
	}
	sc.closed = true
	defer motionerrors.Recover("harness.Scenario.Close")

	if n := sc.bridge.PendingCount(); n > 0 {
		sc.fail("scenario closed with %d pending timer callbacks; cancel or drain them before teardown", n)
	}
	sc.teardown()
}

func (sc *Scenario) teardown() {
	sims := sc.simulators
	sc.simulators = nil
	for _, sim := range sims {
		sim.Destroy()
	}
	sc.styles.ClearAll()
	sc.bridge.Restore()
}

func (sc *Scenario) fail(format string, args ...any) {
	if sc.t != nil {
		sc.t.Helper()
		sc.t.Errorf(format, args...)
		return
	}
	motionerrors.Report(fmt.Errorf(format, args...))
}
