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

// Package arch isolates the handful of operations that are inherently
// architecture-specific and cannot be expressed portably: saving a
// thread's CPU register frame onto its own stack, and resuming execution
// from a previously saved frame. Real target firmware implements these
// two operations in assembly; this package gives them a Go-expressible
// contract (see the design notes in the governing specification) backed
// by a single runtime goroutine per saved context and a hand-off
// channel standing in for the hardware stack pointer.
//
// Only one Context is ever runnable at a time: control passes from one
// to another exclusively via Switch, which blocks the caller until it is
// itself switched back to. This mirrors the single-core, non-reentrant
// nature of the hardware this package models.
package arch

// Context is an architecture-dependent saved CPU register frame, parked
// on a stack until resumed. The saved-context-pointer field of a thread
// control block (see pkg/kernel) is a *Context.
type Context struct {
	resume chan struct{}
	// name is used only for diagnostics (panics, logging); it has no
	// effect on scheduling.
	name string
}

// NewDispatcherContext returns a Context that is not backed by its own
// goroutine. It represents whichever goroutine calls Switch naming it as
// the "from" context — the kernel's scheduling loop, or a test's calling
// goroutine during kernel_start. Exactly one such context exists per
// kernel instance.
func NewDispatcherContext(name string) *Context {
	return &Context{resume: make(chan struct{}), name: name}
}

// Init constructs a new saved context on top of a fresh goroutine: the
// first time this context is switched to, execution resumes at a
// trampoline that calls entry(argc, argv) and then, should entry return,
// calls exitTrampoline. exitTrampoline must not return (it is expected to
// deschedule the thread for good, e.g. by invoking the kernel's exit
// syscall) — if it does return, Init's goroutine simply exits, which
// would leave the kernel still holding a saved-context pointer to a dead
// goroutine; callers must treat exitTrampoline as a diverging call.
//
// The stack parameter is accepted for fidelity with the specification's
// contract (context_init(stack, entry, argc, argv, exit_trampoline)) but
// is otherwise unused: the Go runtime manages the goroutine's stack
// itself, so there is no separate stack region for this implementation
// to place a register frame on.
func Init(stack []byte, name string, entry func(argc int, argv []string), argc int, argv []string, exitTrampoline func()) *Context {
	ctx := &Context{resume: make(chan struct{}), name: name}
	go func() {
		<-ctx.resume
		entry(argc, argv)
		exitTrampoline()
		// exitTrampoline must not return; if it does, this goroutine
		// simply ends here. The TCB's saved-context pointer now names a
		// goroutine that will never run again, the same way a bump
		// allocator never reclaims a retired thread's stack region.
	}()
	return ctx
}

// Switch transfers control from the calling context to to, and blocks
// the caller until some later Switch names from as its destination
// again. Precondition: the caller is executing "as" from (from is either
// the dispatcher context, or the context most recently switched to).
func Switch(from, to *Context) {
	to.resume <- struct{}{}
	<-from.resume
}
