// Copyright 2026 The Kozos Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package kernel

import "errors"

// System calls never unwind a user stack (§7, §9): every service returns
// its status as one of these sentinel errors in the syscall's parameter
// block, not as a panic. Callers compare with errors.Is.
var (
	// ErrOutOfMemory is returned by Run when the TCB-stack arena is
	// exhausted.
	ErrOutOfMemory = errors.New("kernel: stack arena exhausted")

	// ErrBadHandle is returned by Wakeup (and similar calls) when the
	// identity given was never issued to any thread.
	ErrBadHandle = errors.New("kernel: unknown thread handle")

	// ErrExiting is returned by Wakeup when the target has already
	// called Exit. The upstream specification leaves Wakeup-of-Exiting
	// unspecified; this implementation's choice (failure) is recorded in
	// DESIGN.md.
	ErrExiting = errors.New("kernel: thread is exiting")

	// ErrBadPriority is returned by Run when the requested priority is
	// outside [0, numPriorities).
	ErrBadPriority = errors.New("kernel: priority out of range")
)

// FatalError is the payload passed to a Sysdown handler when the kernel
// reaches an unrecoverable state (§7's FatalInvariantViolated): a
// SoftError trap, a syscall trap from an unknown thread, an unknown
// syscall kind, a vector with no handler, or an explicit Sysdown call.
// The scheduler does not raise it when no thread is runnable: it idles
// in Gate.Wait instead, even when no sleeping thread can ever be woken.
type FatalError struct {
	Reason string
}

func (e *FatalError) Error() string {
	return "kernel: fatal invariant violated: " + e.Reason
}
