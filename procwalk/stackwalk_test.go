// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package procwalk

import (
	"encoding/binary"
	"testing"
)

func TestWalkFramePointersThreeFrames(t *testing.T) {
	base := uint64(0x7f0000000000)
	image := make([]byte, 0x200)
	put := func(off int, v uint64) { binary.LittleEndian.PutUint64(image[off:], v) }

	// Stack grows down; build frame2 -> frame1 -> frame0(rbp=0).
	const frame0, frame1, frame2 = 0x100, 0x80, 0x40
	put(frame0, 0) // caller frame ptr (terminator)
	put(frame0+8, 0)

	put(frame1, base+frame0)  // saved rbp
	put(frame1+8, 0xcafe0001) // return address into frame0's function

	put(frame2, base+frame1)
	put(frame2+8, 0xcafe0002)

	m := fakeForeignMemory(base, image)

	got := walkFramePointers(0xcafe0003, base+frame2, m)
	want := []uint64{0xcafe0003, 0xcafe0002, 0xcafe0001}
	if len(got) != len(want) {
		t.Fatalf("walkFramePointers = %#x, want %#x", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("walkFramePointers[%d] = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestWalkFramePointersStopsOnNonMonotonic(t *testing.T) {
	base := uint64(0x7f0000000000)
	image := make([]byte, 0x200)
	// Caller frame pointer points backward (lower address): a
	// corrupted chain that must not be followed.
	binary.LittleEndian.PutUint64(image[0x40:], base+0x10)
	binary.LittleEndian.PutUint64(image[0x48:], 0xbad)

	m := fakeForeignMemory(base, image)
	got := walkFramePointers(0x1000, base+0x40, m)
	if len(got) != 1 {
		t.Fatalf("walkFramePointers = %#x, want just the rip", got)
	}
}

func TestWalkFramePointersStopsAtZero(t *testing.T) {
	m := fakeForeignMemory(0, nil)
	got := walkFramePointers(0x1000, 0, m)
	if len(got) != 1 || got[0] != 0x1000 {
		t.Fatalf("walkFramePointers = %#x, want [0x1000]", got)
	}
}
