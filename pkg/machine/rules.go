package machine

import "fmt"

// Rules maps a source state to the target states a machine may move
// to. A nil Rules imposes no restriction; an empty one forbids every
// transition.
type Rules[S comparable] map[S][]S

// Allow creates a rule set permitting transitions from one source
// state to the listed targets. Chain further Allow calls to build a
// full table:
//
//	rules := machine.Allow("idle", "running").
//		Allow("running", "paused", "completed").
//		Allow("paused", "running")
func Allow[S comparable](from S, to ...S) Rules[S] {
	return make(Rules[S]).Allow(from, to...)
}

// Allow adds targets for a source state and returns the same rule set
// for chaining.
func (r Rules[S]) Allow(from S, to ...S) Rules[S] {
	r[from] = append(r[from], to...)
	return r
}

// Allows reports whether a transition between the two states is
// permitted.
func (r Rules[S]) Allows(from, to S) bool {
	for _, t := range r[from] {
		if t == to {
			return true
		}
	}
	return false
}

// allowedFrom renders the permitted targets of a source state for
// error messages, in the order the rule set declares them.
func (r Rules[S]) allowedFrom(from S) []string {
	targets := r[from]
	if len(targets) == 0 {
		return nil
	}
	out := make([]string, 0, len(targets))
	for _, to := range targets {
		out = append(out, fmt.Sprint(to))
	}
	return out
}
