package keyword

import "sort"

// spanSet holds the sorted, non-overlapping byte ranges already claimed by
// keyword nodes.
type spanSet struct {
	spans []span
}

type span struct{ start, end int }

func (s *spanSet) Add(start, end int) {
	i := sort.Search(len(s.spans), func(i int) bool { return s.spans[i].start >= start })
	s.spans = append(s.spans, span{})
	copy(s.spans[i+1:], s.spans[i:])
	s.spans[i] = span{start, end}
}

// Overlaps reports whether [start, end) intersects a claimed range.
func (s *spanSet) Overlaps(start, end int) bool {
	for _, sp := range s.spans {
		if sp.start >= end {
			break
		}
		if sp.end > start && sp.start < end {
			return true
		}
		if start == end && sp.start <= start && start < sp.end {
			return true
		}
	}
	return false
}

// EndsAt reports whether a claimed range ends exactly at offset.
func (s *spanSet) EndsAt(offset int) bool {
	for _, sp := range s.spans {
		if sp.end == offset {
			return true
		}
	}
	return false
}

// containing returns the range covering offset, if any.
func (s *spanSet) containing(offset int) (span, bool) {
	for _, sp := range s.spans {
		if sp.start <= offset && offset < sp.end {
			return sp, true
		}
	}
	return span{}, false
}

// nextStart returns the start of the first range at or after offset, or
// limit when there is none before it.
func (s *spanSet) nextStart(offset, limit int) int {
	for _, sp := range s.spans {
		if sp.start >= offset {
			if sp.start < limit {
				return sp.start
			}
			break
		}
	}
	return limit
}
