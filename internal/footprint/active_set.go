package footprint

import "sort"

// ActiveSet tracks which ground-truth features remain unmatched during one
// partition's run. It holds arena indices into the immutable ground-truth
// slice rather than copies of the records, so removal is an O(1) set
// operation. An index is removed at most once; a second removal is a no-op
// reported by Remove's return value.
//
// One ActiveSet is created per partition and never shared across
// goroutines.
type ActiveSet struct {
	live map[int]struct{}
}

// NewActiveSet returns an ActiveSet holding the given arena indices.
func NewActiveSet(indices []int) *ActiveSet {
	live := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		live[i] = struct{}{}
	}
	return &ActiveSet{live: live}
}

// Contains reports whether index i is still unmatched.
func (s *ActiveSet) Contains(i int) bool {
	_, ok := s.live[i]
	return ok
}

// Remove marks index i as matched. Returns false if i was already removed
// or was never a member, enforcing at-most-once consumption.
func (s *ActiveSet) Remove(i int) bool {
	if _, ok := s.live[i]; !ok {
		return false
	}
	delete(s.live, i)
	return true
}

// Len returns the number of unmatched indices.
func (s *ActiveSet) Len() int {
	return len(s.live)
}

// Remaining returns the unmatched arena indices in ascending order. These
// are the partition's false negatives once matching has finished.
func (s *ActiveSet) Remaining() []int {
	out := make([]int, 0, len(s.live))
	for i := range s.live {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
