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

package arch

import "sync"

// Gate models the CPU's global interrupt enable/disable primitive
// (INTR_ENABLE/INTR_DISABLE on the target this package was built for).
// Kernel code masks interrupts for the duration of any access to shared
// scheduler state; a Gate is the mutual-exclusion primitive that
// provides that guarantee in this simulated environment.
type Gate struct {
	mu   sync.Mutex
	cond *sync.Cond
}

// NewGate returns a ready-to-use Gate with interrupts enabled.
func NewGate() *Gate {
	g := &Gate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Mask disables interrupts: shared scheduler state may only be touched
// while masked. Pairs with Unmask.
func (g *Gate) Mask() {
	g.mu.Lock()
}

// Unmask re-enables interrupts.
func (g *Gate) Unmask() {
	g.mu.Unlock()
}

// Wait releases the gate and blocks the calling goroutine until Broadcast
// is called, the way the hardware's "wait for interrupt" instruction
// blocks the CPU with interrupts enabled until one arrives. The gate must
// be held (masked) when Wait is called; it is held again when Wait
// returns.
func (g *Gate) Wait() {
	g.cond.Wait()
}

// Broadcast wakes any goroutine blocked in Wait. The gate must be held
// when Broadcast is called.
func (g *Gate) Broadcast() {
	g.cond.Broadcast()
}
