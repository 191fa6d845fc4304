// Package testbed provides sample view models for harness tests.
package testbed

import (
	"strconv"

	"github.com/go-drift/motiontest/pkg/phase"
	"github.com/go-drift/motiontest/pkg/styles"
)

// FadeModel is what a fade-in renders at one instant: the resolved
// opacity, display, and play state for the animated node.
type FadeModel struct {
	Name      string
	Display   string
	Opacity   float64
	PlayState string
	Settled   bool
}

// NewFadeModel derives the model from resolved style properties plus
// the animation's current phase and eased value. The node is hidden
// until the animation starts, fades toward the styled opacity while
// animating, and is hidden again if cancelled.
func NewFadeModel(props styles.AnimationProps, current phase.Phase, value float64) FadeModel {
	target := 1.0
	if o, err := strconv.ParseFloat(props.Opacity, 64); err == nil {
		target = o
	}
	m := FadeModel{
		Name:      props.AnimationName,
		Display:   props.Display,
		PlayState: props.AnimationPlayState,
		Settled:   current.Terminal(),
	}
	switch current {
	case phase.PhaseBeforeStart, phase.PhaseCancelled:
		m.Opacity = 0
		m.Display = "none"
	case phase.PhaseCompleted:
		m.Opacity = target
	default:
		m.Opacity = value * target
	}
	return m
}
