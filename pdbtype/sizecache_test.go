// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdbtype

import "testing"

func TestSizeCacheIgnoresForwardRefs(t *testing.T) {
	c := newSizeCache(exampleStream)

	if got, want := c.lookup("A", 0), uint64(8); got != want {
		t.Errorf("lookup(A) = %d, want %d", got, want)
	}
	if got, want := c.lookup("B", 0), uint64(12); got != want {
		t.Errorf("lookup(B) = %d, want %d", got, want)
	}
	if got, want := c.lookup("C", 99), uint64(99); got != want {
		t.Errorf("lookup(missing) = %d, want default %d", got, want)
	}
}

func TestSizeCacheNilReceiver(t *testing.T) {
	var c *sizeCache
	if got, want := c.lookup("A", 5), uint64(5); got != want {
		t.Errorf("nil cache lookup = %d, want %d", got, want)
	}
}

func exampleStream(yield func(TypeIndex, TypeData) bool) {
	records := []struct {
		idx TypeIndex
		t   TypeData
	}{
		{1, Class{Name: "A", Size: 4, ForwardRef: true}},
		{2, Class{Name: "A", Size: 8, ForwardRef: false}},
		{3, Union{Name: "B", Size: 0, ForwardRef: true}},
		{4, Union{Name: "B", Size: 12, ForwardRef: false}},
		{5, Primitive{Kind_: PrimitiveI32}},
	}
	for _, r := range records {
		if !yield(r.idx, r.t) {
			return
		}
	}
}
