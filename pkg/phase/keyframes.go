package phase

import "time"

// KeyframeStep is one sampled point of an animation.
type KeyframeStep struct {
	// Percentage is the linear progress at this step, in [0, 100].
	Percentage float64
	// Phase is the lifecycle phase at this step.
	Phase Phase
	// At is the step's offset from the animation start.
	At time.Duration
	// Value is the eased progress at this step, in [0, 1].
	Value float64
	// Properties carries optional style values captured for the step.
	Properties map[string]string
}

// SimulatePhases samples an animation config as evenly spaced keyframe
// steps without driving a clock. For a step count N it returns N+1
// steps at percentage 100*k/N: the first is before-start, the last is
// completed, and everything between is animating. Step values are
// eased through the config's timing function.
func SimulatePhases(cfg Config) ([]KeyframeStep, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	steps := cfg.Steps
	if steps == 0 {
		steps = DefaultSteps
	}
	timing := cfg.TimingFunction
	if timing == nil {
		timing = Linear
	}

	out := make([]KeyframeStep, 0, steps+1)
	for k := 0; k <= steps; k++ {
		progress := float64(k) / float64(steps)
		p := PhaseAnimating
		switch k {
		case 0:
			p = PhaseBeforeStart
		case steps:
			p = PhaseCompleted
		}
		out = append(out, KeyframeStep{
			Percentage: 100 * progress,
			Phase:      p,
			At:         time.Duration(float64(cfg.Duration) * progress),
			Value:      timing(progress),
		})
	}
	return out, nil
}
