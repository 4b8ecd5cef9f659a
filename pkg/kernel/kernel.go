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

// Package kernel implements the thread model, priority run-queues,
// scheduler, and system-call services that multiplex a single CPU among
// cooperating threads: run, exit, wait, sleep, wakeup, chpri and getid.
//
// A Kernel owns the ready set, the thread table and the current-thread
// pointer as a single instance, the way the governing specification
// describes them as process-wide singletons "init once at kernel start,
// mutate only with interrupts masked" (see pkg/arch.Gate, which stands
// in for that masking discipline here).
package kernel

import (
	"github.com/google/btree"
	"github.com/sirupsen/logrus"

	"github.com/kozos-go/kozos/pkg/arch"
	"github.com/kozos-go/kozos/pkg/vector"
)

// Config controls the fixed sizing decisions a real target would bake in
// at link time: the number of priority levels and the size of the
// TCB-stack arena.
type Config struct {
	// NumPriorities is the number of priority levels, 0 (highest) through
	// NumPriorities-1 (lowest).
	NumPriorities int
	// ArenaSize is the total size in bytes of the TCB-stack arena that
	// Run carves thread stacks from.
	ArenaSize int
	// Log receives kernel diagnostics. If nil, logrus.StandardLogger is
	// used.
	Log *logrus.Logger
	// OnFatal is invoked (in addition to logging) when the scheduler
	// invokes sysdown. May be nil.
	OnFatal func(error)
}

// Kernel is the scheduler core: the ready set, the thread table, and the
// current-thread pointer, plus the installed software-interrupt vectors.
type Kernel struct {
	gate       *arch.Gate
	vectors    *vector.Table
	dispatcher *arch.Context

	numPriorities int
	ready         []readyQueue
	sleeping      map[ID]*TCB
	table         map[ID]*TCB
	order         *btree.BTree
	nextID        ID
	current       *TCB
	arena         *stackArena
	log           *logrus.Logger
	onFatal       func(error)
	halted        bool
}

// New returns a Kernel ready to have Start called on it.
func New(cfg Config) *Kernel {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Kernel{
		gate:          arch.NewGate(),
		vectors:       vector.NewTable(),
		dispatcher:    arch.NewDispatcherContext("dispatcher"),
		numPriorities: cfg.NumPriorities,
		ready:         make([]readyQueue, cfg.NumPriorities),
		sleeping:      make(map[ID]*TCB),
		table:         make(map[ID]*TCB),
		order:         btree.New(4),
		arena:         newStackArena(cfg.ArenaSize),
		log:           log,
		onFatal:       cfg.OnFatal,
	}
}

// Entry is a thread's main function: it receives a handle for issuing
// further system calls, plus its argc/argv snapshot from Run.
type Entry func(self *Thread, argc int, argv []string)

// Start installs the SoftError and Syscall vector handlers, creates the
// first thread via Run, and transfers control to the scheduler (§4.7).
// It does not return under normal operation: the calling goroutine
// becomes the scheduler's dispatcher loop for the lifetime of the
// kernel. It returns only if the first thread cannot be created, or
// after a fatal invariant violation invokes sysdown.
func (k *Kernel) Start(entry Entry, name string, priority, stackSize, argc int, argv []string) error {
	k.vectors.Set(vector.SoftError, k.handleSoftError)
	k.vectors.Set(vector.Syscall, k.handleSyscallTrap)

	k.gate.Mask()
	_, err := k.doRun(runParams{
		entry: entry, name: name, priority: priority,
		stackSize: stackSize, argc: argc, argv: argv,
	})
	k.gate.Unmask()
	if err != nil {
		k.log.Errorf("kernel_start: could not create first thread: %v", err)
		return err
	}
	k.log.Infof("kernel_start: %q running, entering scheduler", name)
	k.loop()
	return nil
}

// Sysdown masks interrupts and halts the kernel, the way a fatal,
// unrecoverable condition is handled (§7). It is exported so external
// collaborators (e.g. a SoftError raised by architecture-specific trap
// code outside this module's scope) can invoke it directly.
func (k *Kernel) Sysdown(reason string) {
	k.gate.Mask()
	defer k.gate.Unmask()
	k.invokeSysdownLocked(&FatalError{Reason: reason})
}

func (k *Kernel) invokeSysdownLocked(err error) {
	if k.halted {
		return
	}
	k.halted = true
	k.log.Errorf("sysdown: %v", err)
	if k.onFatal != nil {
		k.onFatal(err)
	}
	k.gate.Broadcast()
}

// handleSoftError is installed against vector.SoftError. A software
// error trap is, by definition, the unrecoverable path: it always
// invokes sysdown.
func (k *Kernel) handleSoftError(_ vector.Kind, sp uintptr) {
	k.gate.Mask()
	defer k.gate.Unmask()
	k.invokeSysdownLocked(&FatalError{Reason: "software error trap"})
}

// fatalVectorHandler is passed to vector.Table.Dispatch as the fallback
// invoked when no handler is installed, or an invalid kind is named.
// Under normal operation this is unreachable: Start installs both
// vectors Dispatch is ever invoked against from within this package.
func (k *Kernel) fatalVectorHandler(kind vector.Kind, sp uintptr) {
	k.gate.Mask()
	defer k.gate.Unmask()
	k.invokeSysdownLocked(&FatalError{Reason: "no handler installed for " + kind.String()})
}

// loop is the scheduler's dispatcher: after every system call, the
// highest-priority non-empty ready queue's head becomes the current
// thread (§4.4, invariant 3 in §8). If all ready queues are empty, it
// enters the CPU-sleep primitive (Gate.Wait, standing in for "wait for
// interrupt") with interrupts enabled, and loops.
func (k *Kernel) loop() {
	k.gate.Mask()
	for {
		if k.halted {
			k.gate.Unmask()
			return
		}
		next := k.pickNext()
		if next == nil {
			k.current = nil
			k.gate.Wait()
			continue
		}
		next.state = Runnable
		k.current = next
		k.gate.Unmask()
		arch.Switch(k.dispatcher, next.ctx)
		k.gate.Mask()
	}
}

// pickNext removes and returns the head of the highest-priority
// non-empty ready queue, or nil if all are empty. Caller must hold gate.
func (k *Kernel) pickNext() *TCB {
	for p := 0; p < k.numPriorities; p++ {
		if t := k.ready[p].popFront(); t != nil {
			return t
		}
	}
	return nil
}

// higherPriorityReady reports whether some ready queue strictly higher
// priority (numerically lower) than priority is non-empty. Caller must
// hold gate.
func (k *Kernel) higherPriorityReady(priority int) bool {
	for p := 0; p < priority && p < k.numPriorities; p++ {
		if !k.ready[p].empty() {
			return true
		}
	}
	return false
}

// yieldToDispatcher hands control back to the scheduler loop and blocks
// tcb's goroutine until it is dispatched again (if ever). Caller must
// hold gate; gate is released while parked and re-acquired before
// returning.
func (k *Kernel) yieldToDispatcher(tcb *TCB) {
	k.gate.Unmask()
	arch.Switch(tcb.ctx, k.dispatcher)
	k.gate.Mask()
}

// maybePreempt forces tcb back onto its own ready queue and yields if a
// strictly higher-priority thread has become ready. This is what makes
// run- and wakeup-driven priority preemption (S3 in §8) observable at
// the next syscall boundary rather than only at an explicit Wait/Sleep.
// Chpri does not use it: it always yields (see serviceSyscall).
func (k *Kernel) maybePreempt(tcb *TCB) {
	if k.higherPriorityReady(tcb.priority) {
		k.ready[tcb.priority].pushBack(tcb)
		k.yieldToDispatcher(tcb)
	}
}

// trap populates tcb's syscall request slot and raises the synchronous
// software trap (§4.5), returning the request slot once the installed
// handler has serviced it (or, for Exit, never — the call blocks
// forever, since the trampoline goroutine is retired for good).
func (k *Kernel) trap(tcb *TCB, req syscallRequest) syscallRequest {
	tcb.req = req
	k.vectors.Dispatch(vector.Syscall, uintptr(tcb.id), k.fatalVectorHandler)
	return tcb.req
}

// handleSyscallTrap is installed against vector.Syscall at Start. It
// recovers which thread trapped from the saved "stack pointer" — in
// this implementation, the thread's own ID, since there is no real
// hardware stack to inspect — and services its request with interrupts
// masked (§4.5).
func (k *Kernel) handleSyscallTrap(_ vector.Kind, sp uintptr) {
	k.gate.Mask()
	tcb, ok := k.table[ID(sp)]
	if !ok {
		k.invokeSysdownLocked(&FatalError{Reason: "syscall trap from unknown thread"})
		k.gate.Unmask()
		return
	}
	k.serviceSyscall(tcb)
	k.gate.Unmask()
}

// serviceSyscall performs the requested service and writes its result
// into tcb.req. Caller must hold gate. Wait, Sleep and Exit hand control
// back to the dispatcher and do not return to the caller in the normal
// sense (they return here, but only once rescheduled — for Exit, never).
func (k *Kernel) serviceSyscall(tcb *TCB) {
	req := &tcb.req
	switch req.kind {
	case SysGetID:
		req.retID = tcb.id
		k.maybePreempt(tcb)

	case SysRun:
		id, err := k.doRun(req.run)
		req.retID, req.err = id, err
		k.maybePreempt(tcb)

	case SysWakeup:
		k.serviceWakeup(tcb, req)
		k.maybePreempt(tcb)

	case SysChpri:
		old := tcb.priority
		req.retPriority = old
		if req.chpri == NoPriority {
			return
		}
		tcb.priority = req.chpri
		// chpri while running forces a fresh dispatch decision
		// regardless of whether a higher-priority thread is ready,
		// per §4.4.
		k.ready[tcb.priority].pushBack(tcb)
		k.yieldToDispatcher(tcb)

	case SysWait:
		k.ready[tcb.priority].pushBack(tcb)
		k.yieldToDispatcher(tcb)

	case SysSleep:
		tcb.state = Sleeping
		k.sleeping[tcb.id] = tcb
		k.yieldToDispatcher(tcb)

	case SysExit:
		tcb.state = Exiting
		k.removeThread(tcb)
		k.yieldToDispatcher(tcb)

	default:
		k.invokeSysdownLocked(&FatalError{Reason: "unknown syscall kind"})
	}
}

// serviceWakeup implements the open question resolution recorded in
// DESIGN.md: waking a Sleeping thread makes it Runnable; waking a
// Runnable thread is a no-op; waking an Exiting thread fails.
func (k *Kernel) serviceWakeup(tcb *TCB, req *syscallRequest) {
	target, ok := k.table[req.wakeupID]
	if !ok {
		req.err = ErrBadHandle
		return
	}
	switch target.state {
	case Sleeping:
		delete(k.sleeping, target.id)
		target.state = Runnable
		k.ready[target.priority].pushBack(target)
		k.gate.Broadcast()
	case Exiting:
		req.err = ErrExiting
	case Runnable:
		// no-op, no error.
	}
}

// doRun allocates a stack, constructs the new thread's saved context and
// makes it Runnable (§4.3). Caller must hold gate.
func (k *Kernel) doRun(p runParams) (ID, error) {
	if p.priority < 0 || p.priority >= k.numPriorities {
		return 0, ErrBadPriority
	}
	stack, err := k.arena.alloc(p.stackSize)
	if err != nil {
		return 0, err
	}
	id := k.nextID
	k.nextID++
	tcb := &TCB{
		id:        id,
		name:      p.name,
		priority:  p.priority,
		state:     Runnable,
		stackSize: p.stackSize,
	}
	entryFn := func(argc int, argv []string) {
		p.entry(k.threadHandle(tcb), argc, argv)
	}
	tcb.ctx = arch.Init(stack, p.name, entryFn, p.argc, p.argv, func() {
		k.threadHandle(tcb).Exit()
	})
	k.table[id] = tcb
	k.order.ReplaceOrInsert(ThreadInfo{ID: id, Name: p.name, Priority: p.priority, State: Runnable})
	k.ready[p.priority].pushBack(tcb)
	k.gate.Broadcast()
	k.log.Debugf("run: created thread %d (%q) at priority %d", id, p.name, p.priority)
	return id, nil
}

// removeThread detaches tcb from the sleep set. It deliberately does not
// delete tcb from k.table or k.order: an exited thread's record stays
// visible (state Exiting) for the lifetime of the kernel, the same way
// the stack arena never reclaims an exited thread's stack region. This
// is what lets Wakeup tell "this ID belonged to a thread that already
// exited" (ErrExiting) apart from "this ID was never issued"
// (ErrBadHandle) — see serviceWakeup. Caller must hold gate.
func (k *Kernel) removeThread(tcb *TCB) {
	delete(k.sleeping, tcb.id)
}

// threadHandle returns the Thread API bound to tcb.
func (k *Kernel) threadHandle(tcb *TCB) *Thread {
	return &Thread{k: k, tcb: tcb}
}
