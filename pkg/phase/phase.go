// Package phase derives animation phase and progress from elapsed time
// on a supplied clock, with no rendering engine involved.
//
// A [Simulator] tracks one animation through its lifecycle:
//
//	                 time passes            elapsed >= duration
//	before-start ──────────────► animating ──────────────────► completed
//	                             │       ▲
//	                     Pause() │       │ Resume()
//	                             ▼       │
//	                             paused ─┘
//
// Cancel and Destroy force the terminal cancelled phase from any live
// phase. Progress derives from elapsed = now - startTime, frozen while
// paused; percentage is elapsed/duration clamped to [0, 100]. Phase
// changes are observed by calling [Simulator.Sync] after the clock
// moves, which fires listener notifications for any change.
//
// [SimulatePhases] samples the same lifecycle as evenly spaced keyframe
// steps without driving a clock at all.
package phase

import (
	"fmt"
	"strings"
	"time"

	motionerrors "github.com/go-drift/motiontest/pkg/errors"
)

// Phase is a named segment of an animation's lifecycle.
type Phase int

const (
	// PhaseBeforeStart means no progress has been made yet.
	PhaseBeforeStart Phase = iota
	// PhaseAnimating means the animation is between 0 and 100 percent.
	PhaseAnimating
	// PhasePaused means progress is frozen mid-animation.
	PhasePaused
	// PhaseCompleted means elapsed time reached the full duration.
	PhaseCompleted
	// PhaseCancelled means the animation was cancelled before completing.
	PhaseCancelled
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseBeforeStart:
		return "before-start"
	case PhaseAnimating:
		return "animating"
	case PhasePaused:
		return "paused"
	case PhaseCompleted:
		return "completed"
	case PhaseCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Terminal reports whether the phase ends a simulation. A completed or
// cancelled simulator never changes phase again.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseCancelled
}

// DefaultSteps is the sample count used when Config.Steps is zero.
const DefaultSteps = 10

// Config describes one simulated animation.
type Config struct {
	// Name identifies the animation, mirroring animation-name.
	Name string

	// Duration is the active duration. Must be positive.
	Duration time.Duration

	// Steps is the sample count for SimulatePhases. Zero means
	// DefaultSteps.
	Steps int

	// TimingFunction eases sampled progress. Nil means Linear.
	TimingFunction func(float64) float64
}

// Validate reports the first invalid field, if any.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &motionerrors.ConfigError{Op: "phase.Config", Field: "name", Reason: "must not be empty"}
	}
	if c.Duration <= 0 {
		return &motionerrors.ConfigError{Op: "phase.Config", Field: "duration", Reason: "must be positive", Value: c.Duration}
	}
	if c.Steps < 0 {
		return &motionerrors.ConfigError{Op: "phase.Config", Field: "steps", Reason: "must not be negative", Value: c.Steps}
	}
	return nil
}

// PhaseChange is delivered to listeners when a simulator's derived
// phase moves.
type PhaseChange struct {
	// Name is the animation name from the simulator's config.
	Name string
	// From is the phase the simulator left.
	From Phase
	// To is the phase the simulator entered.
	To Phase
	// Percentage is the progress at the time of the change.
	Percentage float64
	// At is the clock time of the change.
	At time.Time
}
