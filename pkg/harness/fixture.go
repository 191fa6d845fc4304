package harness

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	motionerrors "github.com/go-drift/motiontest/pkg/errors"
	"github.com/go-drift/motiontest/pkg/phase"
)

// Fixture declares scenario inputs in YAML: named animations that
// resolve to phase configs, and selectors to register in the style
// store.
//
//	animations:
//	  - name: fade
//	    duration: 300ms
//	    timing: ease-in-out
//	selectors:
//	  - selector: ".card"
//	    props:
//	      animationName: fade
type Fixture struct {
	Animations []AnimationFixture `yaml:"animations"`
	Selectors  []SelectorFixture  `yaml:"selectors"`
}

// AnimationFixture is one named animation declaration. Duration uses
// Go duration syntax; Timing is a CSS timing-function name.
type AnimationFixture struct {
	Name     string `yaml:"name" mapstructure:"name"`
	Duration string `yaml:"duration" mapstructure:"duration"`
	Steps    int    `yaml:"steps,omitempty" mapstructure:"steps"`
	Timing   string `yaml:"timing,omitempty" mapstructure:"timing"`
}

// SelectorFixture is one style-store registration.
type SelectorFixture struct {
	Selector string         `yaml:"selector"`
	Props    map[string]any `yaml:"props"`
}

// LoadFixture reads and parses a YAML fixture from path.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture parses a YAML fixture document.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &f, nil
}

// Apply registers the fixture's selectors in the scenario's style
// store, in declaration order.
func (f *Fixture) Apply(sc *Scenario) error {
	for _, sel := range f.Selectors {
		if err := sc.Styles().SetMap(sel.Selector, sel.Props); err != nil {
			return err
		}
	}
	return nil
}

// Config resolves the named animation, with optional field overrides
// decoded over the declaration (a test can shorten a duration without
// a second fixture file). Unknown override keys are rejected.
func (f *Fixture) Config(name string, overrides map[string]any) (phase.Config, error) {
	for _, af := range f.Animations {
		if af.Name != name {
			continue
		}
		if len(overrides) > 0 {
			decoded, err := overrideAnimation(af, overrides)
			if err != nil {
				return phase.Config{}, err
			}
			af = decoded
		}
		return af.resolve()
	}
	return phase.Config{}, &motionerrors.ConfigError{Op: "harness.Fixture.Config", Field: "name", Reason: "no such animation", Value: name}
}

// Configs resolves every declared animation in order.
func (f *Fixture) Configs() ([]phase.Config, error) {
	configs := make([]phase.Config, 0, len(f.Animations))
	for _, af := range f.Animations {
		cfg, err := af.resolve()
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func (af AnimationFixture) resolve() (phase.Config, error) {
	d, err := time.ParseDuration(strings.TrimSpace(af.Duration))
	if err != nil {
		return phase.Config{}, &motionerrors.ConfigError{Op: "harness.Fixture", Field: "duration", Reason: "invalid duration", Value: af.Duration}
	}
	timing, err := phase.TimingFunction(af.Timing)
	if err != nil {
		return phase.Config{}, err
	}
	cfg := phase.Config{
		Name:           af.Name,
		Duration:       d,
		Steps:          af.Steps,
		TimingFunction: timing,
	}
	if err := cfg.Validate(); err != nil {
		return phase.Config{}, err
	}
	return cfg, nil
}

func overrideAnimation(af AnimationFixture, overrides map[string]any) (AnimationFixture, error) {
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &af,
		Metadata:         &md,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return AnimationFixture{}, &motionerrors.ConfigError{Op: "harness.Fixture.Config", Field: "overrides", Reason: "decoder setup failed", Value: err}
	}
	if err := dec.Decode(overrides); err != nil {
		return AnimationFixture{}, &motionerrors.ConfigError{Op: "harness.Fixture.Config", Field: "overrides", Reason: "not a valid override map", Value: err}
	}
	if len(md.Unused) > 0 {
		sort.Strings(md.Unused)
		return AnimationFixture{}, &motionerrors.ConfigError{Op: "harness.Fixture.Config", Field: strings.Join(md.Unused, ", "), Reason: "not a recognized override"}
	}
	return af, nil
}
