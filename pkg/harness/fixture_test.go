package harness

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	motionerrors "github.com/go-drift/motiontest/pkg/errors"
)

const fixtureYAML = `
animations:
  - name: fade
    duration: 300ms
    steps: 4
    timing: ease-in-out
  - name: slide
    duration: 2s
selectors:
  - selector: ".card"
    props:
      animationName: fade
      opacity: 0.5
  - selector: "#hero"
    props:
      animationName: slide
      animationDuration: 2s
`

func TestParseFixture(t *testing.T) {
	f, err := ParseFixture([]byte(fixtureYAML))
	if err != nil {
		t.Fatalf("ParseFixture failed: %v", err)
	}

	if len(f.Animations) != 2 {
		t.Fatalf("animations = %d, want 2", len(f.Animations))
	}
	fade := f.Animations[0]
	if fade.Name != "fade" || fade.Duration != "300ms" || fade.Steps != 4 || fade.Timing != "ease-in-out" {
		t.Errorf("fade = %+v", fade)
	}
	if len(f.Selectors) != 2 {
		t.Fatalf("selectors = %d, want 2", len(f.Selectors))
	}
	if f.Selectors[0].Selector != ".card" {
		t.Errorf("first selector = %q, want .card", f.Selectors[0].Selector)
	}
}

func TestParseFixture_BadYAML(t *testing.T) {
	_, err := ParseFixture([]byte("animations: [unclosed"))
	if err == nil || !strings.Contains(err.Error(), "failed to parse fixture") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestFixture_Config(t *testing.T) {
	f, err := ParseFixture([]byte(fixtureYAML))
	if err != nil {
		t.Fatalf("ParseFixture failed: %v", err)
	}

	cfg, err := f.Config("fade", nil)
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}
	if cfg.Name != "fade" || cfg.Duration != 300*time.Millisecond || cfg.Steps != 4 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.TimingFunction == nil {
		t.Fatal("timing function not resolved")
	}
	if got := cfg.TimingFunction(0.5); math.Abs(got-0.78) > 0.01 {
		t.Errorf("ease-in-out(0.5) = %v, want about 0.78", got)
	}
}

func TestFixture_Config_Overrides(t *testing.T) {
	f, err := ParseFixture([]byte(fixtureYAML))
	if err != nil {
		t.Fatalf("ParseFixture failed: %v", err)
	}

	cfg, err := f.Config("fade", map[string]any{"duration": "150ms", "steps": "2"})
	if err != nil {
		t.Fatalf("Config with overrides failed: %v", err)
	}
	if cfg.Duration != 150*time.Millisecond {
		t.Errorf("duration = %v, want 150ms", cfg.Duration)
	}
	if cfg.Steps != 2 {
		t.Errorf("steps = %d, want 2", cfg.Steps)
	}

	// The declaration itself is untouched.
	cfg, err = f.Config("fade", nil)
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}
	if cfg.Duration != 300*time.Millisecond || cfg.Steps != 4 {
		t.Errorf("declaration mutated by overrides: %+v", cfg)
	}
}

func TestFixture_Config_UnknownOverride(t *testing.T) {
	f, err := ParseFixture([]byte(fixtureYAML))
	if err != nil {
		t.Fatalf("ParseFixture failed: %v", err)
	}

	_, err = f.Config("fade", map[string]any{"repeat": 3})
	if motionerrors.KindOf(err) != motionerrors.KindInvalidConfig {
		t.Fatalf("kind = %v, want invalid-config", motionerrors.KindOf(err))
	}
	var cerr *motionerrors.ConfigError
	if !errors.As(err, &cerr) || !strings.Contains(cerr.Field, "repeat") {
		t.Errorf("error should name the unknown key: %v", err)
	}
}

func TestFixture_Config_NoSuchAnimation(t *testing.T) {
	f, err := ParseFixture([]byte(fixtureYAML))
	if err != nil {
		t.Fatalf("ParseFixture failed: %v", err)
	}

	_, err = f.Config("bounce", nil)
	if motionerrors.KindOf(err) != motionerrors.KindInvalidConfig {
		t.Fatalf("kind = %v, want invalid-config", motionerrors.KindOf(err))
	}
}

func TestFixture_Config_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero duration", "animations:\n  - name: flash\n    duration: 0s\n"},
		{"bad duration", "animations:\n  - name: flash\n    duration: fast\n"},
		{"missing duration", "animations:\n  - name: flash\n"},
		{"unknown timing", "animations:\n  - name: flash\n    duration: 1s\n    timing: bounce\n"},
	}
	for _, tt := range tests {
		f, err := ParseFixture([]byte(tt.yaml))
		if err != nil {
			t.Fatalf("%s: parse failed: %v", tt.name, err)
		}
		_, err = f.Config("flash", nil)
		if motionerrors.KindOf(err) != motionerrors.KindInvalidConfig {
			t.Errorf("%s: kind = %v, want invalid-config", tt.name, motionerrors.KindOf(err))
		}
	}
}

func TestFixture_Configs(t *testing.T) {
	f, err := ParseFixture([]byte(fixtureYAML))
	if err != nil {
		t.Fatalf("ParseFixture failed: %v", err)
	}

	configs, err := f.Configs()
	if err != nil {
		t.Fatalf("Configs failed: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("configs = %d, want 2", len(configs))
	}
	if configs[0].Name != "fade" || configs[1].Name != "slide" {
		t.Errorf("order = [%s %s], want [fade slide]", configs[0].Name, configs[1].Name)
	}
	if configs[1].Duration != 2*time.Second {
		t.Errorf("slide duration = %v, want 2s", configs[1].Duration)
	}
}

func TestFixture_Configs_PropagatesError(t *testing.T) {
	f, err := ParseFixture([]byte("animations:\n  - name: ok\n    duration: 1s\n  - name: broken\n    duration: 0s\n"))
	if err != nil {
		t.Fatalf("ParseFixture failed: %v", err)
	}

	if _, err := f.Configs(); err == nil {
		t.Fatal("expected error for the broken declaration")
	}
}

func TestFixture_Apply(t *testing.T) {
	sc := NewScenarioWithT(t)
	f, err := ParseFixture([]byte(fixtureYAML))
	if err != nil {
		t.Fatalf("ParseFixture failed: %v", err)
	}

	if err := f.Apply(sc); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	card := sc.Styles().ResolveSelector(".card")
	if card.AnimationName != "fade" {
		t.Errorf("card animation = %q, want fade", card.AnimationName)
	}
	if card.Opacity != "0.5" {
		t.Errorf("card opacity = %q, want 0.5 (unquoted YAML scalar)", card.Opacity)
	}

	hero := sc.Styles().ResolveSelector("#hero")
	if hero.AnimationName != "slide" || hero.AnimationDuration != "2s" {
		t.Errorf("hero = %+v", hero)
	}
}

func TestFixture_Apply_BadSelector(t *testing.T) {
	sc := NewScenarioWithT(t)
	f, err := ParseFixture([]byte("selectors:\n  - selector: \"\"\n    props:\n      opacity: 1\n"))
	if err != nil {
		t.Fatalf("ParseFixture failed: %v", err)
	}

	if err := f.Apply(sc); motionerrors.KindOf(err) != motionerrors.KindInvalidConfig {
		t.Fatalf("kind = %v, want invalid-config", motionerrors.KindOf(err))
	}
}

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(fixtureYAML), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture failed: %v", err)
	}
	if len(f.Animations) != 2 {
		t.Errorf("animations = %d, want 2", len(f.Animations))
	}
}

func TestLoadFixture_MissingFile(t *testing.T) {
	_, err := LoadFixture(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read fixture") {
		t.Fatalf("expected read error, got %v", err)
	}
}
