// Package harness drives deterministic animation tests. It owns the
// process-wide mutable pieces (timer bridge, style store, host runtime)
// behind a single Scenario object so every test starts clean and tears
// down provably.
//
// # Quick Start
//
// Create a scenario, drive virtual time, and make assertions:
//
//	func TestFadeOut(t *testing.T) {
//	    sc := harness.NewScenarioWithT(t)
//
//	    sim, err := sc.NewSimulator(phase.Config{Name: "fade", Duration: time.Second})
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    sim.Start()
//
//	    sc.AdvanceBy(500 * time.Millisecond)
//	    if sim.CurrentPhase() != phase.PhaseAnimating {
//	        t.Errorf("expected animating, got %v", sim.CurrentPhase())
//	    }
//
//	    sc.AdvanceBy(500 * time.Millisecond)
//	    if sim.CurrentPhase() != phase.PhaseCompleted {
//	        t.Errorf("expected completed, got %v", sim.CurrentPhase())
//	    }
//	}
//
// # State Machines
//
// Validate transition sequences against the animation lifecycle:
//
//	mt := harness.NewTestStateMachine(sc, harness.StateIdle)
//	mt.Machine.Transition(harness.StateRunning, "start")
//	mt.ExpectTransition(harness.StateIdle, harness.StateRunning, "start")
//	if err := mt.ValidateTransitions(); err != nil {
//	    t.Fatal(err)
//	}
//
// # Timeline Snapshots
//
// Record phase changes and compare against a golden file:
//
//	tl := harness.NewTimeline(sc)
//	defer tl.Watch(sim)()
//	// ... drive the scenario ...
//	tl.Snapshot().MatchesFile(t, "testdata/fade.timeline.json")
//
// Update snapshots with:
//
//	MOTIONTEST_UPDATE_SNAPSHOTS=1 go test ./...
//
// Scenarios default to a virtual clock starting at a fixed epoch; no
// wall-clock time passes unless WithRealClock is chosen. Close asserts
// that no scheduled callback leaked past the test.
package harness
