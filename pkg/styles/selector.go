package styles

import (
	"strings"

	motionerrors "github.com/go-drift/motiontest/pkg/errors"
)

// Target is the element stand-in resolution runs against: an optional
// id plus a class list, the two handles the mock selector grammar
// understands.
type Target struct {
	ID      string
	Classes []string
}

// ParseSelector interprets a CSS-flavored selector string: ".name"
// targets a class, "#name" an id, and a bare name is treated as a
// class key. Compound selectors are not supported; the grammar is a
// test convenience, not CSS.
func ParseSelector(sel string) (Target, error) {
	s := strings.TrimSpace(sel)
	if s == "" {
		return Target{}, &motionerrors.ConfigError{Op: "styles.ParseSelector", Field: "selector", Reason: "must not be empty"}
	}
	if strings.ContainsAny(s, " \t") {
		return Target{}, &motionerrors.ConfigError{Op: "styles.ParseSelector", Field: "selector", Reason: "compound selectors are not supported", Value: sel}
	}
	switch {
	case strings.HasPrefix(s, "."):
		name := s[1:]
		if name == "" {
			return Target{}, &motionerrors.ConfigError{Op: "styles.ParseSelector", Field: "selector", Reason: "missing class name", Value: sel}
		}
		return Target{Classes: []string{name}}, nil
	case strings.HasPrefix(s, "#"):
		name := s[1:]
		if name == "" {
			return Target{}, &motionerrors.ConfigError{Op: "styles.ParseSelector", Field: "selector", Reason: "missing id", Value: sel}
		}
		return Target{ID: name}, nil
	default:
		return Target{Classes: []string{s}}, nil
	}
}

// matches reports whether a registered selector applies to t. Selectors
// stored by Set have already passed ParseSelector.
func matches(sel string, t Target) bool {
	parsed, err := ParseSelector(sel)
	if err != nil {
		return false
	}
	if parsed.ID != "" {
		return parsed.ID == t.ID
	}
	for _, class := range t.Classes {
		if class == parsed.Classes[0] {
			return true
		}
	}
	return false
}
