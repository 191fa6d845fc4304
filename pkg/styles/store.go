package styles

import (
	"strings"
	"sync"
)

// Store maps selectors to property bags and answers computed-style
// queries. Entries keep their registration order; re-setting a selector
// merges into its bag and moves it to most-recent, so the newest write
// wins when several entries match the same target.
//
// A Store is safe for concurrent use, though the harness drives it from
// a single goroutine per scenario.
type Store struct {
	mu      sync.Mutex
	entries []*storeEntry
}

type storeEntry struct {
	selector string
	props    AnimationProps
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Set merges props into the bag registered for selector, field by
// field, and marks the selector most-recently-set. The selector must
// parse; the props may be partial.
func (s *Store) Set(selector string, props AnimationProps) error {
	if _, err := ParseSelector(selector); err != nil {
		return err
	}
	key := strings.TrimSpace(selector)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.selector == key {
			e.props = e.props.Merge(props)
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			s.entries = append(s.entries, e)
			return nil
		}
	}
	s.entries = append(s.entries, &storeEntry{selector: key, props: props})
	return nil
}

// SetMap decodes a loosely typed field map (the shape YAML fixtures and
// ad-hoc test tables produce) into AnimationProps and merges it like
// Set. Unknown keys are rejected so typos in property names fail loudly.
func (s *Store) SetMap(selector string, fields map[string]any) error {
	props, err := decodeProps("styles.Store.SetMap", fields)
	if err != nil {
		return err
	}
	return s.Set(selector, props)
}

// Resolve answers a computed-style query for t. Every matching entry is
// layered oldest to newest over Defaults, so the most recently set
// selector wins per conflicting field and unmatched fields fall back to
// CSS initial values. A miss is not an error: with nothing registered
// the result is pure defaults.
func (s *Store) Resolve(t Target) AnimationProps {
	s.mu.Lock()
	defer s.mu.Unlock()
	resolved := Defaults()
	for _, e := range s.entries {
		if matches(e.selector, t) {
			resolved = resolved.Merge(e.props)
		}
	}
	return resolved
}

// ResolveSelector resolves sel as if it were an element carrying that
// class or id. An unparseable selector resolves to pure defaults,
// keeping the no-error contract of style queries.
func (s *Store) ResolveSelector(sel string) AnimationProps {
	t, err := ParseSelector(sel)
	if err != nil {
		return Defaults()
	}
	return s.Resolve(t)
}

// Lookup returns the raw bag registered for selector without any
// defaulting, and whether such an entry exists.
func (s *Store) Lookup(selector string) (AnimationProps, bool) {
	key := strings.TrimSpace(selector)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.selector == key {
			return e.props, true
		}
	}
	return AnimationProps{}, false
}

// ClearAll removes every entry. Scenario teardown must call this; the
// store is shared state and entries otherwise leak into the next test.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

// Len returns the number of registered selectors.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
