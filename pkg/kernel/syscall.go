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

// SyscallKind names a kernel service a thread may request.
type SyscallKind int

const (
	// SysRun creates a new thread.
	SysRun SyscallKind = iota
	// SysExit detaches the calling thread for good.
	SysExit
	// SysWait voluntarily yields to the tail of the caller's ready queue.
	SysWait
	// SysSleep deschedules the caller until a matching Wakeup.
	SysSleep
	// SysWakeup makes a Sleeping thread Runnable again.
	SysWakeup
	// SysChpri changes the caller's priority.
	SysChpri
	// SysGetID returns the caller's identity.
	SysGetID
)

func (k SyscallKind) String() string {
	switch k {
	case SysRun:
		return "run"
	case SysExit:
		return "exit"
	case SysWait:
		return "wait"
	case SysSleep:
		return "sleep"
	case SysWakeup:
		return "wakeup"
	case SysChpri:
		return "chpri"
	case SysGetID:
		return "getid"
	default:
		return "syscall(invalid)"
	}
}

// runParams is the parameter block for SysRun.
type runParams struct {
	entry     func(t *Thread, argc int, argv []string)
	name      string
	priority  int
	stackSize int
	argc      int
	argv      []string
}

// syscallRequest is the per-thread system-call request slot (§4.5):
// populated by a thread before it traps into the kernel, and by the
// installed syscall handler with the service's result before the trap
// wrapper resumes a thread.
type syscallRequest struct {
	kind SyscallKind

	run      runParams
	wakeupID ID
	chpri    int

	retID       ID
	retPriority int
	err         error
}
