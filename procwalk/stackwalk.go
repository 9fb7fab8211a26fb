// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package procwalk

import "golang.org/x/sys/unix"

// maxStackDepth bounds a single walk so that corrupted or
// adversarially crafted frame-pointer chains can't loop forever; the
// monotonicity check below already prevents cycles, but a very long
// chain of strictly-increasing bogus values is still possible against
// a hostile target.
const maxStackDepth = 4096

// Backtrace walks tid's call stack using the frame-pointer convention
// (each frame begins with a pushed caller frame pointer immediately
// followed by a return address) and returns addresses in caller-first
// order, so the thread's current instruction pointer is the last one.
//
// The thread is suspended for the duration of the walk via
// WithSuspendedThread, so the register and stack reads it makes
// together describe one consistent point in the thread's execution.
func Backtrace(pid, tid int, mem *ForeignMemory) ([]uint64, error) {
	var frames []uint64

	err := WithSuspendedThread(tid, func() error {
		var regs unix.PtraceRegs
		if err := unix.PtraceGetRegs(tid, &regs); err != nil {
			return &KernelError{Op: "ptrace getregs", Pid: tid, Err: err}
		}
		frames = walkFramePointers(regs.Rip, regs.Rbp, mem)
		return nil
	})
	if err != nil {
		return nil, err
	}

	reverse(frames)
	return frames, nil
}

// walkFramePointers performs the frame-pointer chain walk given a
// starting instruction pointer and frame pointer, returning addresses
// callee-first (the reverse of the order Backtrace ultimately
// returns). It is split out from Backtrace so the walk algorithm can
// be tested without a real suspended thread.
func walkFramePointers(rip, rbp uint64, mem *ForeignMemory) []uint64 {
	frames := []uint64{rip}

	framePtr := rbp
	for framePtr != 0 && framePtr%8 == 0 && len(frames) < maxStackDepth {
		callerFramePtr, err := mem.ReadUint64(framePtr)
		if err != nil {
			break // usually an unmapped or unreadable address
		}
		// The stack grows toward lower addresses, so the caller's
		// frame is always at a higher address than this one.
		// Enforce that to avoid looping on a corrupted chain.
		if callerFramePtr <= framePtr {
			break
		}
		returnAddr, err := mem.ReadUint64(framePtr + 8)
		if err != nil {
			break
		}
		frames = append(frames, returnAddr)
		framePtr = callerFramePtr
	}
	return frames
}

func reverse(s []uint64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
