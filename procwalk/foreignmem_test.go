// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package procwalk

import (
	"encoding/binary"
	"testing"
)

// fakeForeignMemory returns a ForeignMemory whose reads are served
// from an in-memory image instead of a real process, starting at base.
func fakeForeignMemory(base uint64, image []byte) *ForeignMemory {
	m := &ForeignMemory{pid: 0, pageSize: 0x1000}
	m.readFunc = func(lo, hi uint64) ([]byte, error) {
		return image[lo-base : hi-base], nil
	}
	return m
}

func TestForeignMemoryGetSliceCaches(t *testing.T) {
	base := uint64(0x10000)
	image := make([]byte, 0x4000)
	for i := range image {
		image[i] = byte(i)
	}

	reads := 0
	m := fakeForeignMemory(base, image)
	inner := m.readFunc
	m.readFunc = func(lo, hi uint64) ([]byte, error) {
		reads++
		return inner(lo, hi)
	}

	got, err := m.GetSlice(base+0x10, base+0x18)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 8 {
		t.Fatalf("len(got) = %d, want 8", len(got))
	}

	// A second read inside the same page should not trigger another
	// fetch.
	if _, err := m.GetSlice(base+0x20, base+0x28); err != nil {
		t.Fatal(err)
	}
	if reads != 1 {
		t.Fatalf("readFunc called %d times, want 1", reads)
	}
}

func TestForeignMemoryReadUint64(t *testing.T) {
	base := uint64(0x20000)
	image := make([]byte, 0x1000)
	binary.LittleEndian.PutUint64(image[0x40:], 0xdeadbeefcafef00d)

	m := fakeForeignMemory(base, image)
	got, err := m.ReadUint64(base + 0x40)
	if err != nil {
		t.Fatal(err)
	}
	if want := uint64(0xdeadbeefcafef00d); got != want {
		t.Fatalf("ReadUint64 = %#x, want %#x", got, want)
	}
}

func TestForeignMemoryRejectsEmptyRange(t *testing.T) {
	m := fakeForeignMemory(0, nil)
	if _, err := m.GetSlice(10, 10); err == nil {
		t.Fatal("GetSlice(10, 10) should fail on an empty range")
	}
}
