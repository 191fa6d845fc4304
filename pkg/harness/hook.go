package harness

import (
	motionerrors "github.com/go-drift/motiontest/pkg/errors"
	"github.com/go-drift/motiontest/pkg/host"
	"github.com/go-drift/motiontest/pkg/machine"
	"github.com/go-drift/motiontest/pkg/phase"
	"github.com/go-drift/motiontest/pkg/styles"
)

// AnimationEnv is the environment a hook under evaluation reads from:
// a lifecycle machine, a phase simulator, and the style store. The
// machine and simulator are wired both ways: driving the machine drives
// the simulator, and terminal phases land back in the machine.
type AnimationEnv struct {
	Machine   *machine.Machine[AnimationState]
	Simulator *phase.Simulator
	Styles    *styles.Store
}

// AnimationSnapshot is a point-in-time view of the wired pair.
type AnimationSnapshot struct {
	State      AnimationState
	Phase      phase.Phase
	Percentage float64
}

// HookHandle is a mounted hook evaluation.
type HookHandle[T any] struct {
	sc        *Scenario
	env       *AnimationEnv
	session   host.Session
	unsubs    []func()
	unmounted bool
}

// EvalAnimationHook mounts hook as a host session wired to a fresh
// machine/simulator pair on the scenario's clock. The hook runs once at
// mount and re-runs inside each flush after a transition or phase
// change invalidates it.
//
// Machine transitions drive the simulator: running starts or resumes,
// paused pauses, cancelled cancels. Phase completion and cancellation
// transition the machine to its matching terminal state.
func EvalAnimationHook[T any](sc *Scenario, cfg phase.Config, hook func(*AnimationEnv) T) (*HookHandle[T], error) {
	if hook == nil {
		return nil, &motionerrors.ConfigError{Op: "harness.EvalAnimationHook", Field: "hook", Reason: "must not be nil"}
	}
	sim, err := sc.NewSimulator(cfg)
	if err != nil {
		return nil, err
	}

	m := machine.New(StateIdle,
		machine.WithClock[AnimationState](sc.bridge.Clock()),
		machine.WithRules(AnimationRules()),
	)
	env := &AnimationEnv{Machine: m, Simulator: sim, Styles: sc.styles}

	var session host.Session
	invalidate := func() {
		if session != nil {
			session.Invalidate()
		}
	}

	unobserve := m.Observe(func(tr machine.Transition[AnimationState]) {
		switch tr.To {
		case StateRunning:
			if tr.From == StatePaused {
				if err := sim.Resume(); err != nil {
					motionerrors.Report(err)
				}
			} else if err := sim.Start(); err != nil {
				motionerrors.Report(err)
			}
		case StatePaused:
			if err := sim.Pause(); err != nil {
				motionerrors.Report(err)
			}
		case StateCancelled:
			sim.Cancel()
		}
		invalidate()
	})

	unsubscribe := sim.OnPhaseChange(func(change phase.PhaseChange) {
		switch change.To {
		case phase.PhaseCompleted:
			if m.Current() != StateCompleted {
				if err := m.Transition(StateCompleted, "phase-completed"); err != nil {
					motionerrors.Report(err)
				}
			}
		case phase.PhaseCancelled:
			if m.Current() != StateCancelled {
				if err := m.Transition(StateCancelled, "phase-cancelled"); err != nil {
					motionerrors.Report(err)
				}
			}
		}
		invalidate()
	})

	session, err = sc.runtime.NewSession(func() any { return hook(env) })
	if err != nil {
		unobserve()
		unsubscribe()
		sim.Destroy()
		return nil, err
	}

	return &HookHandle[T]{
		sc:      sc,
		env:     env,
		session: session,
		unsubs:  []func(){unobserve, unsubscribe},
	}, nil
}

// Result returns the hook's most recent product. After Unmount it
// returns a stale-result error; a build failure surfaces as the
// session's captured error.
func (h *HookHandle[T]) Result() (T, error) {
	var zero T
	if h.unmounted {
		return zero, &motionerrors.StaleResultError{Op: "harness.HookHandle.Result"}
	}
	v, err := h.session.Result()
	if err != nil {
		return zero, err
	}
	result, _ := v.(T)
	return result, nil
}

// TriggerTransition drives the machine inside the update boundary, so
// the simulator reacts and the hook re-evaluates before this returns.
func (h *HookHandle[T]) TriggerTransition(to AnimationState, trigger string) error {
	if h.unmounted {
		return &motionerrors.StateError{Op: "harness.HookHandle.TriggerTransition", Expected: "mounted", Actual: "unmounted"}
	}
	var err error
	h.sc.runtime.FlushUpdates(func() {
		err = h.env.Machine.Transition(to, trigger)
	})
	return err
}

// AnimationState reports the machine state, derived phase, and raw
// percentage in one snapshot.
func (h *HookHandle[T]) AnimationState() AnimationSnapshot {
	return AnimationSnapshot{
		State:      h.env.Machine.Current(),
		Phase:      h.env.Simulator.CurrentPhase(),
		Percentage: h.env.Simulator.Percentage(),
	}
}

// Unmount detaches the wiring, destroys the simulator, and closes the
// session. Idempotent.
func (h *HookHandle[T]) Unmount() {
	if h.unmounted {
		return
	}
	h.unmounted = true
	for _, fn := range h.unsubs {
		fn()
	}
	h.unsubs = nil
	h.env.Simulator.Destroy()
	h.session.Close()
}
