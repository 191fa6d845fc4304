package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-drift/motiontest/pkg/machine"
	"github.com/go-drift/motiontest/pkg/phase"
)

// Timeline records phase changes, machine transitions, and manual
// marks with their virtual-time offsets, in the order they occurred.
// On a virtual clock the recording is fully deterministic and suits
// golden-file comparison.
type Timeline struct {
	sc     *Scenario
	start  time.Time
	events []TimelineEvent
}

// TimelineEvent is one recorded occurrence.
type TimelineEvent struct {
	At         string  `json:"at"`
	Kind       string  `json:"kind"`
	Name       string  `json:"name,omitempty"`
	From       string  `json:"from,omitempty"`
	To         string  `json:"to,omitempty"`
	Trigger    string  `json:"trigger,omitempty"`
	Percentage float64 `json:"percentage,omitempty"`
	Label      string  `json:"label,omitempty"`
}

// NewTimeline starts an empty recording anchored at the scenario's
// current time.
func NewTimeline(sc *Scenario) *Timeline {
	return &Timeline{sc: sc, start: sc.bridge.Now()}
}

// Watch subscribes to a simulator's phase changes and returns the
// unsubscribe function.
func (tl *Timeline) Watch(sim *phase.Simulator) func() {
	return sim.OnPhaseChange(func(c phase.PhaseChange) {
		tl.events = append(tl.events, TimelineEvent{
			At:         tl.offset(c.At),
			Kind:       "phase",
			Name:       c.Name,
			From:       c.From.String(),
			To:         c.To.String(),
			Percentage: c.Percentage,
		})
	})
}

// WatchMachine subscribes to a machine's transitions and returns the
// unsubscribe function.
func (tl *Timeline) WatchMachine(m *machine.Machine[AnimationState]) func() {
	return m.Observe(func(tr machine.Transition[AnimationState]) {
		tl.events = append(tl.events, TimelineEvent{
			At:      tl.offset(tr.At),
			Kind:    "transition",
			From:    string(tr.From),
			To:      string(tr.To),
			Trigger: tr.Trigger,
		})
	})
}

// Mark records a labelled point at the current time.
func (tl *Timeline) Mark(label string) {
	tl.events = append(tl.events, TimelineEvent{
		At:    tl.offset(tl.sc.bridge.Now()),
		Kind:  "mark",
		Label: label,
	})
}

// Events returns a copy of the recording so far.
func (tl *Timeline) Events() []TimelineEvent {
	out := make([]TimelineEvent, len(tl.events))
	copy(out, tl.events)
	return out
}

// Snapshot freezes the recording for comparison or persistence.
func (tl *Timeline) Snapshot() *Snapshot {
	return &Snapshot{Events: tl.Events()}
}

func (tl *Timeline) offset(at time.Time) string {
	return at.Sub(tl.start).String()
}

// Snapshot is a serialized timeline capture.
type Snapshot struct {
	Events []TimelineEvent `json:"events"`
}

// MatchesFile compares this snapshot against a golden file. On
// mismatch it reports a diff and instructions for updating. When
// MOTIONTEST_UPDATE_SNAPSHOTS=1 is set, the file is silently updated
// instead.
func (s *Snapshot) MatchesFile(t TestingT, path string) {
	t.Helper()

	if os.Getenv("MOTIONTEST_UPDATE_SNAPSHOTS") == "1" {
		if err := s.UpdateFile(path); err != nil {
			t.Fatalf("failed to update snapshot: %v", err)
		}
		return
	}

	expected, err := loadSnapshot(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("snapshot file missing: %s\n\nTo create: MOTIONTEST_UPDATE_SNAPSHOTS=1 go test -run %s", path, t.Name())
			return
		}
		t.Fatalf("failed to load snapshot: %v", err)
		return
	}

	if diff := s.Diff(expected); diff != "" {
		t.Errorf("snapshot mismatch: %s\n%s\n\nTo update: MOTIONTEST_UPDATE_SNAPSHOTS=1 go test -run %s", path, diff, t.Name())
	}
}

// UpdateFile writes this snapshot to the given path, creating
// directories as needed.
func (s *Snapshot) UpdateFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := marshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Diff returns a unified diff between this snapshot and other. Returns
// empty string if equal.
func (s *Snapshot) Diff(other *Snapshot) string {
	a, _ := marshalSnapshot(s)
	b, _ := marshalSnapshot(other)
	if bytes.Equal(a, b) {
		return ""
	}
	return unifiedDiff(string(b), string(a))
}

func loadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot JSON: %w", err)
	}
	return &snap, nil
}

func marshalSnapshot(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unifiedDiff produces a simple line-oriented diff.
func unifiedDiff(expected, actual string) string {
	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")

	var buf strings.Builder
	buf.WriteString("--- expected\n+++ actual\n")

	maxLen := len(expectedLines)
	if len(actualLines) > maxLen {
		maxLen = len(actualLines)
	}

	for i := 0; i < maxLen; i++ {
		var e, a string
		if i < len(expectedLines) {
			e = expectedLines[i]
		}
		if i < len(actualLines) {
			a = actualLines[i]
		}
		if e != a {
			if i < len(expectedLines) {
				fmt.Fprintf(&buf, "-%s\n", e)
			}
			if i < len(actualLines) {
				fmt.Fprintf(&buf, "+%s\n", a)
			}
		}
	}

	return buf.String()
}
