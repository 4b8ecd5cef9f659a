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

package serial

import "github.com/kozos-go/kozos/pkg/vector"

// defaultLineBufSize is the fixed buffer size a real target reserves for
// one in-progress line. There is no dynamic growth: overflow drops bytes
// and truncates the line instead (§4.2), consistent with the "no dynamic
// memory beyond a bump allocator" non-goal.
const defaultLineBufSize = 128

// Line is one complete, newline-terminated line delivered to a consumer
// (the boot-monitor command parser, or a kernel thread via wakeup in
// later revisions). Truncated is set when the accumulation buffer
// overflowed before the terminating newline arrived.
type Line struct {
	Text      string
	Truncated bool
}

// LineReceiver accumulates bytes delivered one at a time — exactly as a
// receive-interrupt handler registered against vector.SerialInterrupt
// would — into complete lines. It owns its buffer exclusively: nothing
// but Handle and the accumulation logic it drives ever touches it, per
// the "serial line buffer is exclusively owned by the receive handler"
// shared-resource policy in §9.
type LineReceiver struct {
	buf       []byte
	truncated bool
	lines     chan Line
}

// NewLineReceiver returns a receiver ready to be installed as a
// vector.Handler for vector.SerialInterrupt. Completed lines are sent to
// the returned channel; callers should drain it (a boot-monitor command
// loop, or a test): once its buffer (capacity 16) is full, each newly
// completed line displaces the oldest queued one.
func NewLineReceiver() (*LineReceiver, <-chan Line) {
	r := &LineReceiver{
		buf:   make([]byte, 0, defaultLineBufSize),
		lines: make(chan Line, 16),
	}
	return r, r.lines
}

// Handle is the vector.Handler entry point: it is registered against
// vector.SerialInterrupt and called once per received byte, with the
// byte itself packed into savedSP the way the real trap wrapper would
// hand off the UART's data register content.
func (r *LineReceiver) Handle(_ vector.Kind, savedSP uintptr) {
	r.PutByte(byte(savedSP))
}

// PutByte feeds one received byte into the accumulator. On newline, the
// accumulated line (stripped of the newline) is delivered and the
// buffer resets, whether or not this line was truncated.
func (r *LineReceiver) PutByte(b byte) {
	if b == '\n' {
		r.deliver()
		return
	}
	if len(r.buf) == cap(r.buf) {
		// Buffer overflow: the byte is dropped and the line is marked
		// truncated; the next newline still completes it (§4.2).
		r.truncated = true
		return
	}
	r.buf = append(r.buf, b)
}

func (r *LineReceiver) deliver() {
	line := Line{Text: string(r.buf), Truncated: r.truncated}
	r.buf = r.buf[:0]
	r.truncated = false
	select {
	case r.lines <- line:
	default:
		// Consumer fell behind; drop the oldest queued line rather than
		// block the interrupt handler indefinitely.
		select {
		case <-r.lines:
		default:
		}
		r.lines <- line
	}
}
