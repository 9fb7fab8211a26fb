// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package procwalk

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// WithSuspendedProcess attaches to pid via ptrace, which stops the
// task pid (the thread-group leader), runs fn, and guarantees that
// task is resumed before returning regardless of how fn exits. Other
// threads of the process are not attached and keep running.
//
// A platform without ptrace's attach/detach pairing (e.g. one using
// thread_suspend/thread_resume) would need the resume call repeated on
// every return path by hand; a defer is the idiomatic Go collapse of
// that pattern.
func WithSuspendedProcess(pid int, fn func() error) (err error) {
	if err := unix.PtraceAttach(pid); err != nil {
		return &KernelError{Op: "ptrace attach", Pid: pid, Err: err}
	}

	var ws unix.WaitStatus
	if _, err := unix.Wait4(pid, &ws, 0, nil); err != nil {
		_ = unix.PtraceDetach(pid)
		return &KernelError{Op: "wait for stop", Pid: pid, Err: err}
	}

	defer func() {
		if derr := unix.PtraceDetach(pid); derr != nil && err == nil {
			err = &KernelError{Op: "ptrace detach", Pid: pid, Err: derr}
		}
	}()

	return fn()
}

// WithSuspendedThread stops a single thread (a Linux task, addressed
// by its tid) for the duration of fn. Unlike WithSuspendedProcess, it
// does not stop the rest of the process.
func WithSuspendedThread(tid int, fn func() error) (err error) {
	if err := unix.PtraceAttach(tid); err != nil {
		return &KernelError{Op: "ptrace attach thread", Pid: tid, Err: err}
	}
	var ws unix.WaitStatus
	if _, err := unix.Wait4(tid, &ws, 0, nil); err != nil {
		_ = unix.PtraceDetach(tid)
		return &KernelError{Op: "wait for thread stop", Pid: tid, Err: err}
	}
	defer func() {
		if derr := unix.PtraceDetach(tid); derr != nil && err == nil {
			err = &KernelError{Op: "ptrace detach thread", Pid: tid, Err: derr}
		}
	}()
	return fn()
}

// KernelError reports a failed interaction with a foreign process
// through ptrace or process_vm_readv, naming the pid and the
// operation that failed so callers can log something actionable.
type KernelError struct {
	Op  string
	Pid int
	Err error
}

func (e *KernelError) Error() string {
	return fmt.Sprintf("procwalk: %s on pid %d: %v", e.Op, e.Pid, e.Err)
}

func (e *KernelError) Unwrap() error { return e.Err }
