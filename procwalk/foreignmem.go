// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package procwalk

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

// Reader reads a range of a foreign process's address space. It is
// satisfied by *ForeignMemory.
type Reader interface {
	ReadRange(lo, hi uint64) ([]byte, error)
}

// ForeignMemory is a page-aligned, read-through cache over a foreign
// process's address space, backed by process_vm_readv.
//
// Reads are serviced from a list of disjoint, page-aligned segments.
// On a miss, ForeignMemory reads a page-aligned superset of the
// requested range and splices it into the segment list, merging over
// (replacing) whatever partial segments the new read subsumes. Linux
// has no zero-copy way to remap another process's pages into ours, so
// a miss always costs an explicit process_vm_readv copy into a fresh
// buffer.
type ForeignMemory struct {
	pid      int
	pageSize uint64
	segs     segmentList
	readFunc func(lo, hi uint64) ([]byte, error)
}

// NewForeignMemory returns a cache reading from pid.
func NewForeignMemory(pid int) *ForeignMemory {
	m := &ForeignMemory{
		pid:      pid,
		pageSize: uint64(unix.Getpagesize()),
	}
	m.readFunc = m.readRangeViaPtrace
	return m
}

// Clear drops every cached segment, releasing their buffers to the
// garbage collector. Call this between uses that don't expect to
// revisit the same addresses, to bound memory growth.
func (m *ForeignMemory) Clear() {
	m.segs = segmentList{}
}

func (m *ForeignMemory) truncPage(addr uint64) uint64 {
	return addr &^ (m.pageSize - 1)
}

// GetSlice returns the bytes in [lo, hi) of the foreign process,
// fetching and caching a page-aligned superset on a cache miss.
func (m *ForeignMemory) GetSlice(lo, hi uint64) ([]byte, error) {
	if hi <= lo {
		return nil, fmt.Errorf("procwalk: empty or invalid range [%#x, %#x)", lo, hi)
	}

	segLo, _, val, ok := m.segs.Get(lo)
	if ok {
		if seg := val.([]byte); lo-segLo+uint64(hi-lo) <= uint64(len(seg)) {
			off := lo - segLo
			return seg[off : off+(hi-lo)], nil
		}
	}

	startAddr := m.truncPage(lo)
	endAddr := m.truncPage(hi-1) + m.pageSize
	buf, err := m.readFunc(startAddr, endAddr)
	if err != nil {
		return nil, err
	}
	m.segs.Splice(startAddr, endAddr, buf)

	off := lo - startAddr
	return buf[off : off+(hi-lo)], nil
}

// ReadRange reads [lo, hi) directly from the foreign process via
// process_vm_readv, bypassing the cache. It implements Reader.
func (m *ForeignMemory) ReadRange(lo, hi uint64) ([]byte, error) {
	return m.readFunc(lo, hi)
}

// readRangeViaPtrace is the production readFunc: an actual
// process_vm_readv syscall against m.pid.
func (m *ForeignMemory) readRangeViaPtrace(lo, hi uint64) ([]byte, error) {
	buf := make([]byte, hi-lo)
	local := []unix.Iovec{{Base: &buf[0], Len: uint64(len(buf))}}
	remote := []unix.RemoteIovec{{Base: uintptr(lo), Len: len(buf)}}

	n, err := unix.ProcessVMReadv(m.pid, local, remote, 0)
	if err != nil {
		return nil, &KernelError{Op: "process_vm_readv", Pid: m.pid, Err: err}
	}
	if n != len(buf) {
		return nil, &KernelError{
			Op:  "process_vm_readv",
			Pid: m.pid,
			Err: fmt.Errorf("short read: got %d of %d bytes at %#x", n, len(buf), lo),
		}
	}
	return buf, nil
}

// ReadUint64 reads a little-endian uint64 at addr, e.g. a saved frame
// pointer or return address on a foreign stack.
func (m *ForeignMemory) ReadUint64(addr uint64) (uint64, error) {
	b, err := m.GetSlice(addr, addr+8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}
