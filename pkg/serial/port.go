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

// Package serial provides the byte-oriented transport both halves of
// the boot-monitor link run over: a Port abstraction usable by the
// host-side transfer tool (pkg/xmodem.Sender) and a line receiver
// modelling the target's interrupt-driven line accumulation (§4.2).
package serial

import (
	"errors"
	"io"
	"time"
)

// ErrTimeout is returned by ReadByte when no byte arrives within the
// requested deadline. Unlike a hard I/O error, it is an expected,
// routine outcome: both the boot-monitor NAK loop and the host
// transmitter's polling reads treat it as "nothing yet", not failure.
var ErrTimeout = errors.New("serial: read timeout")

// Port is the minimal byte-oriented transport the transfer protocol and
// line receiver need: write a buffer, read one byte with a deadline,
// and close. Real hardware exposes this through UART registers (out of
// scope per the governing specification); this interface is the stand-in
// both the target firmware and the host tool are built against.
type Port interface {
	io.Closer
	Write(p []byte) (int, error)
	// ReadByte blocks for at most timeout waiting for one byte. It
	// returns ErrTimeout, not an error wrapping it, so callers can
	// compare with == as well as errors.Is.
	ReadByte(timeout time.Duration) (byte, error)
}

// Drain reads and discards bytes from p until timeout elapses without a
// new byte arriving. It is used to flush echo/prompt bytes the target's
// command shell may have emitted (§4.6 flush discipline), and never
// treats ErrTimeout as failure.
func Drain(p Port, timeout time.Duration) {
	for {
		_, err := p.ReadByte(timeout)
		if err != nil {
			return
		}
	}
}
