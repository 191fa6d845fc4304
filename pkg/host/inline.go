package host

import (
	"sync"
	"time"

	motionerrors "github.com/go-drift/motiontest/pkg/errors"
)

// Inline is the in-process reference runtime. FlushUpdates re-evaluates
// dirty sessions in mount order, looping until no session is dirty, so
// a rebuild that invalidates another session settles within the same
// flush.
type Inline struct {
	mu       sync.Mutex
	sessions []*inlineSession
}

// NewInline returns an empty inline runtime.
func NewInline() *Inline {
	return &Inline{}
}

// NewSession mounts build and evaluates it once.
func (r *Inline) NewSession(build func() any) (Session, error) {
	if build == nil {
		return nil, &motionerrors.ConfigError{Op: "host.Inline.NewSession", Field: "build", Reason: "must not be nil"}
	}
	s := &inlineSession{runtime: r, build: build, dirty: true}
	r.mu.Lock()
	r.sessions = append(r.sessions, s)
	r.mu.Unlock()
	s.rebuildIfNeeded()
	return s, nil
}

// FlushUpdates runs fn, then rebuilds dirty sessions until clean.
func (r *Inline) FlushUpdates(fn func()) {
	if fn != nil {
		fn()
	}
	r.flushDirty()
}

func (r *Inline) flushDirty() {
	for {
		r.mu.Lock()
		sessions := make([]*inlineSession, len(r.sessions))
		copy(sessions, r.sessions)
		r.mu.Unlock()

		rebuilt := false
		for _, s := range sessions {
			if s.rebuildIfNeeded() {
				rebuilt = true
			}
		}
		if !rebuilt {
			return
		}
	}
}

func (r *Inline) remove(target *inlineSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.sessions {
		if s == target {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			return
		}
	}
}

type inlineSession struct {
	runtime *Inline
	build   func() any

	mu     sync.Mutex
	result any
	err    error
	dirty  bool
	closed bool
}

// rebuildIfNeeded evaluates the build when the session is dirty and
// reports whether it did. The build runs outside the lock; a panic is
// captured as the session's error rather than unwinding the flush.
func (s *inlineSession) rebuildIfNeeded() bool {
	s.mu.Lock()
	if s.closed || !s.dirty {
		s.mu.Unlock()
		return false
	}
	s.dirty = false
	build := s.build
	s.mu.Unlock()

	result, err := runBuild(build)

	s.mu.Lock()
	if !s.closed {
		s.result = result
		s.err = err
	}
	s.mu.Unlock()
	return true
}

// runBuild evaluates build, converting a panic into a reported error.
func runBuild(build func() any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			perr := &motionerrors.PanicError{
				Op:         "host.Session.build",
				Value:      r,
				StackTrace: motionerrors.CaptureStack(),
				Timestamp:  time.Now(),
			}
			motionerrors.ReportPanic(perr)
			result = nil
			err = perr
		}
	}()
	return build(), nil
}

func (s *inlineSession) Result() (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	return s.result, s.err
}

func (s *inlineSession) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.dirty = true
}

func (s *inlineSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.result = nil
	s.err = nil
	s.mu.Unlock()
	s.runtime.remove(s)
}
