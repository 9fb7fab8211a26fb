// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdbtype

// sizeCache maps a class/union's unique (or source) name to the byte
// size taken from its definition record, so that a later forward
// reference to the same name can still report a size.
//
// It is populated once, in a single linear pass over the type stream,
// during Printer construction. Lookups never mutate it afterward, so a
// *sizeCache is safe to share by read-only reference once built.
type sizeCache struct {
	byName map[string]uint64
}

// newSizeCache runs the single defining pass described in spec: for
// every class or union record whose forward-reference flag is clear,
// record its declared size under its unique (or source) name. Records
// are expected in declaration order; a later definition with the same
// name wins over an earlier one.
func newSizeCache(types func(yield func(TypeIndex, TypeData) bool)) *sizeCache {
	c := &sizeCache{byName: make(map[string]uint64)}
	types(func(_ TypeIndex, t TypeData) bool {
		switch t := t.(type) {
		case Class:
			if !t.ForwardRef {
				c.byName[t.uniqueOrName()] = t.Size
			}
		case Union:
			if !t.ForwardRef {
				c.byName[t.uniqueOrName()] = t.Size
			}
		}
		return true
	})
	return c
}

// lookup returns the cached definition size for name, or def if no
// definition has been seen (e.g. a self-referential empty forward
// declaration).
func (c *sizeCache) lookup(name string, def uint64) uint64 {
	if c == nil {
		return def
	}
	if size, ok := c.byName[name]; ok {
		return size
	}
	return def
}
