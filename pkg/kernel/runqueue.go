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

// readyQueue is a FIFO of Runnable TCBs at a single priority level.
// Arrival order is preserved exactly, which is what makes Wait-driven
// round-robin at equal priority emerge naturally (§4.4).
type readyQueue struct {
	head, tail *TCB
}

func (q *readyQueue) empty() bool {
	return q.head == nil
}

// pushBack appends t to the tail of the queue. t.next is overwritten.
func (q *readyQueue) pushBack(t *TCB) {
	t.next = nil
	if q.tail == nil {
		q.head, q.tail = t, t
		return
	}
	q.tail.next = t
	q.tail = t
}

// popFront removes and returns the head of the queue, or nil if empty.
func (q *readyQueue) popFront() *TCB {
	t := q.head
	if t == nil {
		return nil
	}
	q.head = t.next
	if q.head == nil {
		q.tail = nil
	}
	t.next = nil
	return t
}
