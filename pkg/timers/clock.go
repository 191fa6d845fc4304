package timers

import "time"

// Clock provides time for simulations. The default implementation uses
// system time. A Bridge in virtual mode supplies a controlled clock so
// tests can advance time deterministically.
type Clock interface {
	Now() time.Time
}

// systemClock uses wall-clock time.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall-clock time source.
func SystemClock() Clock { return systemClock{} }

// VirtualEpoch is the default start time of a virtual clock. A fixed
// epoch keeps recorded timestamps stable across runs.
var VirtualEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// bridgeClock exposes a Bridge as a Clock so code under test stays
// agnostic of the active timing discipline.
type bridgeClock struct {
	bridge *Bridge
}

func (c bridgeClock) Now() time.Time { return c.bridge.Now() }
