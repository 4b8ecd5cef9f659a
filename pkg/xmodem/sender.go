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
	"context"
	"errors"
	"io"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/kozos-go/kozos/pkg/serial"
)

const (
	shortTimeout = 10 * time.Millisecond
	longTimeout  = 1 * time.Second
	nakWait      = 20 * time.Second
)

// Progress reports one event during a transfer, for a CLI to render as
// the dot/x progress the host tool writes to stderr (§9). One event is
// reported per transmission attempt of a block, so a block that is
// retried once yields two events: false, then true.
type Progress struct {
	// Acked is true when the target ACKed this attempt ('.'), false when
	// it NAKed it or replied with anything else or nothing ('x').
	Acked bool
}

// Sender drives the host half of the transfer protocol (§4.6) over a
// serial.Port.
type Sender struct {
	port     serial.Port
	progress func(Progress)
}

// NewSender returns a Sender writing to port. onProgress may be nil.
func NewSender(port serial.Port, onProgress func(Progress)) *Sender {
	if onProgress == nil {
		onProgress = func(Progress) {}
	}
	return &Sender{port: port, progress: onProgress}
}

// Prime flushes stale bytes, issues the boot monitor's "load" command,
// and waits for the target's readiness NAK, exactly in the sequence the
// original host tool follows: flush, settle, "load\n", wait for NAK.
func (s *Sender) Prime(ctx context.Context) error {
	if err := s.flush(); err != nil {
		return err
	}
	select {
	case <-time.After(1 * time.Second):
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := s.write([]byte("load\n")); err != nil {
		return err
	}
	serial.Drain(s.port, shortTimeout)
	return s.waitNAK(ctx)
}

func (s *Sender) flush() error {
	if err := s.write([]byte("\n")); err != nil {
		return err
	}
	serial.Drain(s.port, shortTimeout)
	return nil
}

// waitNAK polls for the target's readiness NAK using a constant
// short-timeout backoff, capped at nakWait (~20s), mirroring the
// original tool's fixed retry budget (§4.6's "polled up to 20s").
func (s *Sender) waitNAK(ctx context.Context) error {
	bctx, cancel := context.WithTimeout(ctx, nakWait)
	defer cancel()

	op := func() error {
		b, err := s.port.ReadByte(shortTimeout)
		if err != nil {
			return err // any error (including ErrTimeout) retries
		}
		if b == NAK {
			return nil
		}
		return errNotYetReady
	}

	bo := backoff.WithContext(backoff.NewConstantBackOff(shortTimeout), bctx)
	if err := backoff.Retry(op, bo); err != nil {
		return ErrTargetIllegalState
	}
	return nil
}

var errNotYetReady = errors.New("xmodem: target not ready yet")

// Send transmits the entirety of r as a sequence of 128-byte blocks,
// padding the final short block with EOF bytes, followed by EOT.
func (s *Sender) Send(r io.Reader) error {
	blockNumber := byte(1)
	buf := make([]byte, PayloadSize)
	for {
		n, err := io.ReadFull(r, buf)
		if n == 0 && (err == io.EOF || err == io.ErrUnexpectedEOF) {
			break
		}
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return ErrFileRead
		}
		var payload [PayloadSize]byte
		copy(payload[:], buf[:n])
		for i := n; i < PayloadSize; i++ {
			payload[i] = EOF
		}
		if err := s.sendBlock(blockNumber, payload); err != nil {
			return err
		}
		blockNumber++
		if n < PayloadSize {
			break
		}
	}
	return s.sendEOT()
}

func (s *Sender) sendBlock(number byte, payload [PayloadSize]byte) error {
	frame := Encode(number, payload)
	for {
		if err := s.write(frame); err != nil {
			return err
		}
		reply, err := s.port.ReadByte(longTimeout)
		if err != nil {
			s.progress(Progress{Acked: false})
			return ErrTargetIllegalResponse
		}
		switch reply {
		case ACK:
			s.progress(Progress{Acked: true})
			return nil
		case NAK:
			s.progress(Progress{Acked: false})
			continue
		default:
			s.progress(Progress{Acked: false})
			return ErrTargetIllegalResponse
		}
	}
}

func (s *Sender) sendEOT() error {
	if err := s.write([]byte{EOT}); err != nil {
		return err
	}
	reply, err := s.port.ReadByte(longTimeout)
	if err != nil || reply != ACK {
		return ErrTargetIllegalResponse
	}
	return nil
}

func (s *Sender) write(p []byte) error {
	if _, err := s.port.Write(p); err != nil {
		return ErrSerialWrite
	}
	return nil
}
