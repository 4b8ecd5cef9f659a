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

import "github.com/kozos-go/kozos/pkg/arch"

// ID is a thread's stable identity handle.
type ID int

// State is a thread's wait reason.
type State int

const (
	// Runnable threads are eligible to be dispatched; a Runnable thread
	// is either current or on exactly one ready queue.
	Runnable State = iota
	// Sleeping threads wait for an explicit Wakeup and are on no queue.
	Sleeping
	// Exiting marks a thread that has called Exit; it is on no queue and
	// will never run again.
	Exiting
)

func (s State) String() string {
	switch s {
	case Runnable:
		return "Runnable"
	case Sleeping:
		return "Sleeping"
	case Exiting:
		return "Exiting"
	default:
		return "State(invalid)"
	}
}

// NoPriority is the reserved sentinel meaning "no priority" (used by
// Chpri to mean "leave priority unchanged"). An exited thread keeps the
// priority it last had.
const NoPriority = -1

// TCB is a thread control block: the kernel's per-thread record. At any
// instant a TCB is a member of at most one queue (§5): a per-priority
// ready queue, the sleep set, or none (when it is the current thread, or
// when it has exited).
type TCB struct {
	id       ID
	name     string
	priority int
	state    State
	ctx      *arch.Context

	// next links this TCB into whichever queue it currently belongs to.
	// Go's garbage collector owns TCB lifetime, so a bare pointer is
	// sufficient here without the arena-index indirection the governing
	// design notes call for in languages that would otherwise need a
	// shared-ownership wrapper for queue linkage (see DESIGN.md).
	next *TCB

	// req is the in-flight syscall request slot, populated by a thread
	// before it traps into the kernel and read by the installed syscall
	// handler.
	req syscallRequest

	stackSize int
}

// ID returns the thread's identity handle.
func (t *TCB) ID() ID { return t.id }

// Name returns the thread's printable label.
func (t *TCB) Name() string { return t.name }

// Priority returns the thread's current priority.
func (t *TCB) Priority() int { return t.priority }

// State returns the thread's current wait reason.
func (t *TCB) State() State { return t.state }
