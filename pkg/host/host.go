// Package host defines the boundary between the harness and the
// framework driving the code under test. The harness never assumes a
// real UI runtime; it only needs two capabilities: a batched-update
// boundary to wrap timer-triggered mutations in, and an isolated
// session that re-evaluates a build function when invalidated.
//
// Inline is the reference implementation used by tests. Embedders with
// a real event loop supply their own Runtime.
package host

import "errors"

// ErrSessionClosed is returned by Session.Result once the session has
// been closed.
var ErrSessionClosed = errors.New("host: session closed")

// Runtime is the host framework surface the harness drives.
type Runtime interface {
	// FlushUpdates runs fn inside the batched-update boundary: fn's
	// state changes land first, then every invalidated session
	// re-evaluates before FlushUpdates returns. A nil fn just flushes.
	FlushUpdates(fn func())

	// NewSession mounts build as an isolated evaluation unit. The
	// build runs once at mount; afterwards it re-runs during a flush
	// whenever the session has been invalidated.
	NewSession(build func() any) (Session, error)
}

// Session is a mounted build function.
type Session interface {
	// Result returns the product of the most recent build, or the
	// build's captured failure. After Close it returns ErrSessionClosed.
	Result() (any, error)

	// Invalidate marks the session dirty. The rebuild is deferred to
	// the next flush; invalidating repeatedly before a flush still
	// yields a single rebuild.
	Invalidate()

	// Close unmounts the session. Idempotent.
	Close()
}
