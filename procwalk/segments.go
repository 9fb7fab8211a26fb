// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package procwalk

import "sort"

// segmentEnt is one entry of a segmentList: a half-open byte range
// [lo, hi) paired with an opaque value.
type segmentEnt struct {
	lo, hi uint64
	val    interface{}
}

// segmentList stores values associated with disjoint half-open ranges
// of a foreign address space and supports efficient address lookup.
//
// It is a sort-on-read structure, generalized with a Splice operation:
// unlike a simple append-only range list, a segmentList additionally
// supports inserting a freshly fetched segment in place of every
// segment it overlaps, which is what ForeignMemory's cache needs.
type segmentList struct {
	segs   []segmentEnt
	sorted bool
}

// Add inserts val for range [lo, hi). Add is undefined if [lo, hi)
// overlaps a range already present.
func (s *segmentList) Add(lo, hi uint64, val interface{}) {
	s.segs = append(s.segs, segmentEnt{lo, hi, val})
	s.sorted = false
}

func (s *segmentList) ensureSorted() {
	if s.sorted {
		return
	}
	sort.Slice(s.segs, func(i, j int) bool {
		return s.segs[i].lo < s.segs[j].lo
	})
	s.sorted = true
}

// Get returns the range and value of the segment containing addr, if
// any.
func (s *segmentList) Get(addr uint64) (lo, hi uint64, val interface{}, ok bool) {
	if s == nil {
		return 0, 0, nil, false
	}
	s.ensureSorted()

	i := sort.Search(len(s.segs), func(i int) bool {
		return addr < s.segs[i].hi
	})
	if i < len(s.segs) && s.segs[i].lo <= addr && addr < s.segs[i].hi {
		e := s.segs[i]
		return e.lo, e.hi, e.val, true
	}
	return 0, 0, nil, false
}

// Splice inserts val for [lo, hi), replacing any existing segments
// that [lo, hi) fully or partially overlaps. Splice is how a cache
// miss is resolved: the caller fetches a fresh, possibly wider range
// covering the miss and Splice reconciles it against whatever was
// already cached.
func (s *segmentList) Splice(lo, hi uint64, val interface{}) {
	s.ensureSorted()

	kept := s.segs[:0:0]
	for _, e := range s.segs {
		if e.hi <= lo || hi <= e.lo {
			kept = append(kept, e)
		}
	}
	kept = append(kept, segmentEnt{lo, hi, val})
	s.segs = kept
	s.sorted = false
}

// Len reports the number of disjoint segments currently cached.
func (s *segmentList) Len() int {
	if s == nil {
		return 0
	}
	return len(s.segs)
}
