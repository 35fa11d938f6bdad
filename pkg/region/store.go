// Copy-on-write region store shared between the control path and the
// print-time filter.
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package region

import (
	"sync"
	"sync/atomic"

	"excluderegion-go/pkg/log"
)

// Set is an immutable snapshot of the committed region set, in creation
// order. The filter binds one snapshot per processed line so a containment
// test never races a concurrent edit.
type Set []Region

// Containing returns the regions whose footprint contains the point and
// whose height interval contains z.
func (s Set) Containing(x, y, z float64) []Region {
	var matches []Region
	for _, r := range s {
		if r.InHeightRange(z) && r.ContainsPoint(x, y) {
			matches = append(matches, r)
		}
	}
	return matches
}

// AnyContains reports whether any region contains the point at the given
// height. Overlapping regions are a union: one match is enough.
func (s Set) AnyContains(x, y, z float64) bool {
	for _, r := range s {
		if r.InHeightRange(z) && r.ContainsPoint(x, y) {
			return true
		}
	}
	return false
}

// IDs returns the region ids in creation order.
func (s Set) IDs() []string {
	ids := make([]string, len(s))
	for i, r := range s {
		ids[i] = r.ID()
	}
	return ids
}

// Store holds the committed region set. Mutations come from the control
// path while the filter reads concurrently; every mutation publishes a
// complete replacement snapshot.
type Store struct {
	logger *log.Logger

	snapshot atomic.Pointer[Set]
	printing atomic.Bool

	mu          sync.Mutex
	mayShrink   bool
	subscribers []func(Set)
}

// NewStore returns an empty store.
func NewStore(logger *log.Logger) *Store {
	s := &Store{logger: logger.Component("regions")}
	s.snapshot.Store(&Set{})
	return s
}

// SetMayShrinkWhilePrinting controls whether regions may be shrunk or
// removed while a print is active.
func (s *Store) SetMayShrinkWhilePrinting(allowed bool) {
	s.mu.Lock()
	s.mayShrink = allowed
	s.mu.Unlock()
}

// SetPrinting marks whether a print is currently active.
func (s *Store) SetPrinting(printing bool) {
	s.printing.Store(printing)
}

// Printing reports whether a print is currently active.
func (s *Store) Printing() bool {
	return s.printing.Load()
}

// Snapshot returns the current committed set. The returned slice is never
// mutated after publication.
func (s *Store) Snapshot() Set {
	return *s.snapshot.Load()
}

// Len returns the number of committed regions.
func (s *Store) Len() int {
	return len(s.Snapshot())
}

// Get returns the committed region with the given id.
func (s *Store) Get(id string) (Region, bool) {
	for _, r := range s.Snapshot() {
		if r.ID() == id {
			return r, true
		}
	}
	return nil, false
}

// Subscribe registers a callback invoked with the full new set after every
// committed mutation. Callbacks run on the mutating goroutine.
func (s *Store) Subscribe(fn func(Set)) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

// Add commits a new region. The region is cloned on the way in so the
// caller's copy cannot alias committed geometry.
func (s *Store) Add(r Region) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := *s.snapshot.Load()
	for _, existing := range cur {
		if existing.ID() == r.ID() {
			return &MutationError{Reason: ReasonDuplicateID, ID: r.ID()}
		}
	}

	next := make(Set, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, r.clone())
	s.publishLocked(next)
	s.logger.Info("added %s region %s", r.Kind(), r.ID())
	return nil
}

// Replace commits a new definition for an existing region id. While a
// print is active the replacement must fully contain the old region unless
// shrinking is explicitly allowed.
func (s *Store) Replace(r Region) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := *s.snapshot.Load()
	index := -1
	for i, existing := range cur {
		if existing.ID() == r.ID() {
			index = i
			break
		}
	}
	if index < 0 {
		return &MutationError{Reason: ReasonUnknownID, ID: r.ID()}
	}

	if s.printing.Load() && !s.mayShrink && !covers(r, cur[index]) {
		return &MutationError{Reason: ReasonShrinkForbidden, ID: r.ID(),
			Detail: "replacement must contain the existing region while printing"}
	}

	next := make(Set, len(cur))
	copy(next, cur)
	next[index] = r.clone()
	s.publishLocked(next)
	s.logger.Info("replaced %s region %s", r.Kind(), r.ID())
	return nil
}

// Remove deletes a committed region. Removal is declined while a print is
// active unless shrinking is allowed.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := *s.snapshot.Load()
	index := -1
	for i, existing := range cur {
		if existing.ID() == id {
			index = i
			break
		}
	}
	if index < 0 {
		return &MutationError{Reason: ReasonUnknownID, ID: id}
	}

	if s.printing.Load() && !s.mayShrink {
		return &MutationError{Reason: ReasonDeleteForbidden, ID: id,
			Detail: "regions cannot be deleted while printing"}
	}

	next := make(Set, 0, len(cur)-1)
	next = append(next, cur[:index]...)
	next = append(next, cur[index+1:]...)
	s.publishLocked(next)
	s.logger.Info("removed region %s", id)
	return nil
}

// Clear discards all committed regions.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(*s.snapshot.Load()) == 0 {
		return
	}
	s.publishLocked(Set{})
	s.logger.Info("cleared all regions")
}

func (s *Store) publishLocked(next Set) {
	s.snapshot.Store(&next)
	for _, fn := range s.subscribers {
		fn(next)
	}
}

// GetStatus reports the committed set for the status API.
func (s *Store) GetStatus() map[string]any {
	snap := s.Snapshot()
	regions := make([]map[string]any, 0, len(snap))
	for _, r := range snap {
		entry := map[string]any{
			"id":   r.ID(),
			"kind": r.Kind(),
		}
		minH, maxH := r.HeightRange()
		if minH != nil {
			entry["min_height"] = *minH
		}
		if maxH != nil {
			entry["max_height"] = *maxH
		}
		switch shape := r.(type) {
		case *RectangleRegion:
			entry["x1"], entry["y1"] = shape.Rect.X1, shape.Rect.Y1
			entry["x2"], entry["y2"] = shape.Rect.X2, shape.Rect.Y2
		case *CircleRegion:
			entry["cx"], entry["cy"] = shape.Circle.CX, shape.Circle.CY
			entry["r"] = shape.Circle.R
		}
		regions = append(regions, entry)
	}
	return map[string]any{
		"printing": s.printing.Load(),
		"regions":  regions,
	}
}
