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

package xmodem

import (
	"time"

	"github.com/kozos-go/kozos/pkg/serial"
)

// Sink receives each accepted block's payload, in order, the way the
// boot monitor writes a block to the next destination address in RAM.
// The last block's payload may contain EOF padding beyond the file's
// true length; Sink does not need to know where the true end is, since
// ELF loading (out of scope) re-parses the image afterward.
type Sink interface {
	WriteBlock(payload [PayloadSize]byte) error
}

// Receiver drives the target half of the transfer protocol (§4.6). It
// is a small state machine: emit a periodic NAK until a SOH arrives,
// verify and either ACK or NAK each block, and end the session on EOT.
type Receiver struct {
	port     serial.Port
	sink     Sink
	expected byte
}

// NewReceiver returns a Receiver that will write accepted payloads to
// sink, starting from block number 1.
func NewReceiver(port serial.Port, sink Sink) *Receiver {
	return &Receiver{port: port, sink: sink, expected: 1}
}

// Run drives one complete session: NAK until SOH, accept/reject blocks,
// end on EOT. It returns only once the session ends (EOT acknowledged):
// malformed, out-of-sequence or unwritable blocks are NAKed and the
// session continues, so the returned error is always nil.
func (r *Receiver) Run() error {
	if err := r.awaitFirstByte(); err != nil {
		return err
	}
	for {
		soh, err := r.port.ReadByte(longTimeout)
		if err != nil {
			// No byte within the long timeout while mid-session: the
			// target keeps NAKing and waiting, per the "target
			// periodically emits NAK" readiness loop.
			r.nak()
			continue
		}
		switch soh {
		case SOH:
			if err := r.handleBlock(); err != nil {
				return err
			}
		case EOT:
			r.ack()
			return nil
		default:
			r.nak()
		}
	}
}

// awaitFirstByte emits NAK about once a second until a SOH (or EOT, for
// a zero-length transfer) is observed, per the readiness loop in §4.6.
func (r *Receiver) awaitFirstByte() error {
	for {
		r.nak()
		b, err := r.port.ReadByte(time.Second)
		if err != nil {
			continue
		}
		if b == SOH {
			return r.handleBlock()
		}
		if b == EOT {
			r.ack()
			return nil
		}
	}
}

func (r *Receiver) handleBlock() error {
	body := make([]byte, FrameSize-1)
	for i := range body {
		b, err := r.port.ReadByte(longTimeout)
		if err != nil {
			r.nak()
			return nil
		}
		body[i] = b
	}
	block, err := Decode(body)
	if err != nil {
		r.nak()
		return nil
	}
	if block.Number != r.expected {
		// A retransmit of the previous block (host didn't see our ACK)
		// is re-acknowledged without rewriting; anything else is a
		// framing error.
		if block.Number == r.expected-1 {
			r.ack()
			return nil
		}
		r.nak()
		return nil
	}
	if err := r.sink.WriteBlock(block.Payload); err != nil {
		r.nak()
		return nil
	}
	r.expected++
	r.ack()
	return nil
}

func (r *Receiver) ack() { r.port.Write([]byte{ACK}) }
func (r *Receiver) nak() { r.port.Write([]byte{NAK}) }
