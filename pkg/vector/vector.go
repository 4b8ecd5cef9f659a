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

// Package vector implements the software-interrupt vector table that
// decouples the architecture's fixed hardware trap entry points from the
// handlers the kernel wishes to install. The low-level assembly trap
// wrappers (outside this module's scope; see pkg/arch) dispatch through
// this table rather than calling kernel code directly, so the kernel can
// override interrupt handling without the boot monitor being rebuilt.
package vector

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Kind identifies a software-interrupt vector slot.
type Kind int

const (
	// SoftError is raised when a fatal, unrecoverable condition is
	// detected outside the normal syscall path.
	SoftError Kind = iota
	// Syscall is raised by the architecture's software-trap instruction
	// when user code requests a kernel service.
	Syscall
	// SerialInterrupt is raised on receipt of a byte on the serial port.
	SerialInterrupt

	// numKinds must stay last; it is the size of the vector table.
	numKinds
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case SoftError:
		return "SoftError"
	case Syscall:
		return "Syscall"
	case SerialInterrupt:
		return "SerialInterrupt"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) valid() bool {
	return k >= 0 && k < numKinds
}

// Handler is invoked by Dispatch with the vector kind and the stack
// pointer the trap wrappers saved the caller's context to. Handlers are
// expected to be brief and run with interrupts masked; if a handler
// returns, control resumes at the point the trap wrappers restore.
type Handler func(kind Kind, savedSP uintptr)

// Table is the software-interrupt vector table. The zero value is an
// empty table, the same state NewTable and Init produce.
//
// A Table is process-wide state in a real kernel: one lives at a fixed
// address agreed upon by the boot monitor and the kernel. This
// implementation keeps that contract as a regular (but singleton-used)
// Go value so it can be exercised directly by tests.
type Table struct {
	mu       sync.Mutex
	handlers [numKinds]Handler
}

// NewTable returns an initialized, empty Table.
func NewTable() *Table {
	t := &Table{}
	t.Init()
	return t
}

// Init clears all slots. It is idempotent.
func (t *Table) Init() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.handlers {
		t.handlers[i] = nil
	}
}

// ErrBadVectorKind is returned when an operation references a Kind
// outside the valid enumeration.
var ErrBadVectorKind = fmt.Errorf("vector: kind out of range")

// Set installs or replaces the handler for kind. It fails with
// ErrBadVectorKind if kind is out of range.
func (t *Table) Set(kind Kind, handler Handler) error {
	if !kind.valid() {
		return ErrBadVectorKind
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[kind] = handler
	return nil
}

// Get returns the handler installed for kind, or nil if none is
// installed. It fails with ErrBadVectorKind if kind is out of range.
func (t *Table) Get(kind Kind) (Handler, error) {
	if !kind.valid() {
		return nil, ErrBadVectorKind
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handlers[kind], nil
}

// FatalFunc is called by Dispatch when no handler is installed for kind,
// or kind is out of range. There is no default: the caller of Dispatch
// supplies it (pkg/kernel passes one that invokes sysdown), and Dispatch
// returns once it returns.
type FatalFunc func(kind Kind, savedSP uintptr)

// Dispatch is invoked from the low-level trap wrappers. It calls the
// installed handler for kind, or invokes fatal if none is installed.
func (t *Table) Dispatch(kind Kind, savedSP uintptr, fatal FatalFunc) {
	h, err := t.Get(kind)
	if err != nil {
		logrus.Errorf("vector: dispatch with invalid kind %d", int(kind))
		fatal(kind, savedSP)
		return
	}
	if h == nil {
		logrus.Errorf("vector: no handler installed for %s", kind)
		fatal(kind, savedSP)
		return
	}
	h(kind, savedSP)
}
