// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package procwalk

import "testing"

func TestSegmentListGet(t *testing.T) {
	var s segmentList
	s.Add(0x1000, 0x2000, "a")
	s.Add(0x3000, 0x4000, "b")

	lo, hi, val, ok := s.Get(0x1500)
	if !ok || lo != 0x1000 || hi != 0x2000 || val != "a" {
		t.Fatalf("Get(0x1500) = %#x, %#x, %v, %v", lo, hi, val, ok)
	}

	if _, _, _, ok := s.Get(0x2500); ok {
		t.Fatalf("Get(0x2500) unexpectedly found a segment")
	}
}

func TestSegmentListSpliceReplacesOverlap(t *testing.T) {
	var s segmentList
	s.Add(0x1000, 0x1800, "stale-a")
	s.Add(0x1900, 0x2000, "stale-b")

	s.Splice(0x1000, 0x2000, "fresh")

	if got := s.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
	lo, hi, val, ok := s.Get(0x1850)
	if !ok || lo != 0x1000 || hi != 0x2000 || val != "fresh" {
		t.Fatalf("Get(0x1850) = %#x, %#x, %v, %v", lo, hi, val, ok)
	}
}

func TestSegmentListSpliceKeepsDisjointRanges(t *testing.T) {
	var s segmentList
	s.Add(0x5000, 0x6000, "far")
	s.Splice(0x1000, 0x2000, "near")

	if got := s.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
	if _, _, val, ok := s.Get(0x5500); !ok || val != "far" {
		t.Fatalf("Get(0x5500) = %v, %v, want \"far\", true", val, ok)
	}
}

func TestSegmentListNilGet(t *testing.T) {
	var s *segmentList
	if _, _, _, ok := s.Get(0x1000); ok {
		t.Fatalf("nil segmentList.Get should report a miss")
	}
}
