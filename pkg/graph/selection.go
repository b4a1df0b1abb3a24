package graph

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrLockedClass is returned by [Selection.Toggle] for classes whose content
// is already downloaded or installed. Owned items render inert and are not
// user-togglable.
var ErrLockedClass = errors.New("class is not togglable")

// ErrUnknownClass is returned by [Selection.Toggle] for class ids the
// selection was not built with.
var ErrUnknownClass = errors.New("unknown dedup class")

// Selection maps every dedup class in a graph to a single shared boolean:
// queued for download or not.
//
// The presentation layer must read node checkboxes through the class, never
// through the node, so one Toggle is instantaneously visible at every
// occurrence of that item in the displayed structure. Toggle has no other
// side effects — no downloads are triggered here.
//
// Selection is safe for concurrent use.
type Selection struct {
	mu      sync.RWMutex
	state   map[ClassID]bool
	locked  map[ClassID]bool
	members map[ClassID][]NodeID
}

// NewSelection builds the initial selection for a resolved graph.
//
// Defaults: every downloadable leaf class starts selected, except leaves
// carrying a diagnostic (a failed expansion or a download already in flight
// elsewhere) which start deselected but togglable; classes whose status is
// downloaded or installed start deselected and locked; off-site classes
// start deselected (they are followed manually, not dispatched) but remain
// togglable so the user can mark them for the summary.
func NewSelection(g *Graph) *Selection {
	s := &Selection{
		state:   make(map[ClassID]bool),
		locked:  make(map[ClassID]bool),
		members: make(map[ClassID][]NodeID),
	}

	for _, n := range g.Nodes() {
		c := n.Class()
		s.members[c] = append(s.members[c], n.ID)
		if _, seen := s.state[c]; !seen {
			s.state[c] = false
		}
		switch {
		case n.Status.Satisfied():
			s.state[c] = false
			s.locked[c] = true
		case n.Kind == KindNexus && n.FileID != 0 && n.Diag == "" && !s.locked[c]:
			s.state[c] = true
		}
	}
	return s
}

// Toggle sets the shared selection state for a dedup class.
// Returns ErrLockedClass for owned (inert) classes and ErrUnknownClass for
// ids outside the graph this selection was built from.
func (s *Selection) Toggle(c ClassID, v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state[c]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownClass, c)
	}
	if s.locked[c] {
		return fmt.Errorf("%w: %s", ErrLockedClass, c)
	}
	s.state[c] = v
	return nil
}

// IsSelected reports the shared state of a class. Every node occurrence of
// the class observes the same value.
func (s *Selection) IsSelected(c ClassID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state[c]
}

// IsLocked reports whether a class is inert (already downloaded/installed).
func (s *Selection) IsLocked(c ClassID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locked[c]
}

// Members returns the node ids mapped to a class, sorted.
// A class usually holds one node, but a file reached both as a direct file
// reference and through its mod's file list holds several.
func (s *Selection) Members(c ClassID) []NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.members[c])
	slices.Sort(out)
	return out
}

// Selected returns the ids of all selected classes, sorted.
func (s *Selection) Selected() []ClassID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ClassID, 0, len(s.state))
	for c, v := range s.state {
		if v {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return out
}
