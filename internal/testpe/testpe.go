// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package testpe provides a tiny literal in-memory implementation of
// pdbtype.StreamFinder, used by tests and by cmd/typedump, standing in
// for a real PDB type-information stream decoder.
package testpe

import (
	"fmt"

	"github.com/aclements/profkit/pdbtype"
)

// Finder is a fixed table of type records keyed by index, built with
// Set and consulted with Find/ForEach.
type Finder struct {
	byIndex map[pdbtype.TypeIndex]pdbtype.TypeData
	order   []pdbtype.TypeIndex
}

// New returns an empty Finder.
func New() *Finder {
	return &Finder{byIndex: make(map[pdbtype.TypeIndex]pdbtype.TypeData)}
}

// Set records t under index, in the order Set was called across the
// Finder's lifetime. Calling Set twice for the same index replaces the
// record but keeps its original position, matching how a real type
// stream never repeats an index.
func (f *Finder) Set(index pdbtype.TypeIndex, t pdbtype.TypeData) *Finder {
	if _, ok := f.byIndex[index]; !ok {
		f.order = append(f.order, index)
	}
	f.byIndex[index] = t
	return f
}

// Find implements pdbtype.Finder.
func (f *Finder) Find(index pdbtype.TypeIndex) (pdbtype.TypeData, error) {
	t, ok := f.byIndex[index]
	if !ok {
		return nil, fmt.Errorf("%w: %d", pdbtype.ErrTypeNotFound, index)
	}
	return t, nil
}

// ForEach implements pdbtype.StreamFinder.
func (f *Finder) ForEach(yield func(pdbtype.TypeIndex, pdbtype.TypeData) bool) {
	for _, idx := range f.order {
		if !yield(idx, f.byIndex[idx]) {
			return
		}
	}
}
