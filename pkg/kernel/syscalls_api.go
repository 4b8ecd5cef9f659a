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

// Thread is the handle a running thread uses to issue system calls. It
// is the only interface thread entry functions are given: there is no
// way to reach a Kernel's internals except through a syscall trap, the
// same way user code on the target can only reach kernel services
// through the trap instruction.
type Thread struct {
	k   *Kernel
	tcb *TCB
}

// GetID returns the calling thread's own identity (the getid syscall).
func (t *Thread) GetID() ID {
	resp := t.k.trap(t.tcb, syscallRequest{kind: SysGetID})
	return resp.retID
}

// Run creates a new thread at the given priority with its own stack, and
// returns its identity (the run syscall).
func (t *Thread) Run(entry Entry, name string, priority, stackSize, argc int, argv []string) (ID, error) {
	resp := t.k.trap(t.tcb, syscallRequest{
		kind: SysRun,
		run: runParams{
			entry:     entry,
			name:      name,
			priority:  priority,
			stackSize: stackSize,
			argc:      argc,
			argv:      argv,
		},
	})
	return resp.retID, resp.err
}

// Wait voluntarily yields the CPU, rejoining the tail of its own
// priority's ready queue (the wait syscall). At equal priority among N
// threads that only ever call Wait, this produces strict round-robin.
func (t *Thread) Wait() {
	t.k.trap(t.tcb, syscallRequest{kind: SysWait})
}

// Sleep deschedules the calling thread until some other thread calls
// Wakeup naming its ID (the sleep syscall).
func (t *Thread) Sleep() {
	t.k.trap(t.tcb, syscallRequest{kind: SysSleep})
}

// Wakeup makes the Sleeping thread named by id Runnable again (the
// wakeup syscall). Waking a Runnable thread is a no-op; waking a thread
// that has already Exited returns ErrExiting; naming an unknown ID
// returns ErrBadHandle.
func (t *Thread) Wakeup(id ID) error {
	resp := t.k.trap(t.tcb, syscallRequest{kind: SysWakeup, wakeupID: id})
	return resp.err
}

// Chpri changes the calling thread's priority and returns its previous
// one (the chpri syscall). Passing NoPriority only reports the current
// priority without changing it or forcing a reschedule.
func (t *Thread) Chpri(priority int) int {
	resp := t.k.trap(t.tcb, syscallRequest{kind: SysChpri, chpri: priority})
	return resp.retPriority
}

// Exit detaches the calling thread for good (the exit syscall). It never
// returns: trap blocks forever once the kernel has marked this thread
// Exiting (its record stays in the thread table) and nothing will ever
// switch back to it.
func (t *Thread) Exit() {
	t.k.trap(t.tcb, syscallRequest{kind: SysExit})
}
