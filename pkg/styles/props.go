// Package styles is a deterministic stand-in for computed-style queries.
// No CSS engine runs in the test environment, so animation-related
// property reads are answered from a mock store instead: tests register
// property bags against selectors, application code resolves them
// against element targets, and anything unregistered falls back to the
// CSS initial values.
//
// The store is shared mutable state. Scenarios must call ClearAll in
// teardown; resolution never fails, a miss simply returns defaults.
package styles

// AnimationProps is a bag of computed-style animation properties. All
// fields are strings in their CSS serialization ("2s", "infinite",
// "ease-in-out"); the empty string means unset. Unset fields inherit
// from lower layers during resolution, ultimately from Defaults.
type AnimationProps struct {
	AnimationName           string `yaml:"animationName,omitempty" json:"animationName,omitempty" mapstructure:"animationName"`
	AnimationDuration       string `yaml:"animationDuration,omitempty" json:"animationDuration,omitempty" mapstructure:"animationDuration"`
	AnimationDelay          string `yaml:"animationDelay,omitempty" json:"animationDelay,omitempty" mapstructure:"animationDelay"`
	AnimationIterationCount string `yaml:"animationIterationCount,omitempty" json:"animationIterationCount,omitempty" mapstructure:"animationIterationCount"`
	AnimationDirection      string `yaml:"animationDirection,omitempty" json:"animationDirection,omitempty" mapstructure:"animationDirection"`
	AnimationFillMode       string `yaml:"animationFillMode,omitempty" json:"animationFillMode,omitempty" mapstructure:"animationFillMode"`
	AnimationPlayState      string `yaml:"animationPlayState,omitempty" json:"animationPlayState,omitempty" mapstructure:"animationPlayState"`
	AnimationTimingFunction string `yaml:"animationTimingFunction,omitempty" json:"animationTimingFunction,omitempty" mapstructure:"animationTimingFunction"`

	TransitionProperty string `yaml:"transitionProperty,omitempty" json:"transitionProperty,omitempty" mapstructure:"transitionProperty"`
	TransitionDuration string `yaml:"transitionDuration,omitempty" json:"transitionDuration,omitempty" mapstructure:"transitionDuration"`
	Display            string `yaml:"display,omitempty" json:"display,omitempty" mapstructure:"display"`
	Opacity            string `yaml:"opacity,omitempty" json:"opacity,omitempty" mapstructure:"opacity"`
}

// Defaults returns the CSS initial values every resolution bottoms out
// on: an element with nothing registered animates nothing, plays in the
// running state, and eases.
func Defaults() AnimationProps {
	return AnimationProps{
		AnimationName:           "none",
		AnimationDuration:       "0s",
		AnimationDelay:          "0s",
		AnimationIterationCount: "1",
		AnimationDirection:      "normal",
		AnimationFillMode:       "none",
		AnimationPlayState:      "running",
		AnimationTimingFunction: "ease",
		TransitionProperty:      "all",
		TransitionDuration:      "0s",
		Display:                 "block",
		Opacity:                 "1",
	}
}

// Merge returns a copy of p with every non-empty field of over applied
// on top. Empty fields in over leave p's values untouched, so repeated
// merges behave as last-write-wins per field.
func (p AnimationProps) Merge(over AnimationProps) AnimationProps {
	merged := p
	if over.AnimationName != "" {
		merged.AnimationName = over.AnimationName
	}
	if over.AnimationDuration != "" {
		merged.AnimationDuration = over.AnimationDuration
	}
	if over.AnimationDelay != "" {
		merged.AnimationDelay = over.AnimationDelay
	}
	if over.AnimationIterationCount != "" {
		merged.AnimationIterationCount = over.AnimationIterationCount
	}
	if over.AnimationDirection != "" {
		merged.AnimationDirection = over.AnimationDirection
	}
	if over.AnimationFillMode != "" {
		merged.AnimationFillMode = over.AnimationFillMode
	}
	if over.AnimationPlayState != "" {
		merged.AnimationPlayState = over.AnimationPlayState
	}
	if over.AnimationTimingFunction != "" {
		merged.AnimationTimingFunction = over.AnimationTimingFunction
	}
	if over.TransitionProperty != "" {
		merged.TransitionProperty = over.TransitionProperty
	}
	if over.TransitionDuration != "" {
		merged.TransitionDuration = over.TransitionDuration
	}
	if over.Display != "" {
		merged.Display = over.Display
	}
	if over.Opacity != "" {
		merged.Opacity = over.Opacity
	}
	return merged
}

// IsZero reports whether every field is unset.
func (p AnimationProps) IsZero() bool {
	return p == AnimationProps{}
}
