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
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kozos-go/kozos/pkg/serial"
)

// recordingSink accumulates every accepted block's payload in order.
type recordingSink struct {
	mu      sync.Mutex
	written [][PayloadSize]byte
}

func (s *recordingSink) WriteBlock(payload [PayloadSize]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written = append(s.written, payload)
	return nil
}

func (s *recordingSink) bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	var buf bytes.Buffer
	for _, b := range s.written {
		buf.Write(b[:])
	}
	return buf.Bytes()
}

// S4 — transfer happy path: a 300-byte file becomes two full blocks plus
// one EOF-padded block, then EOT; target ACKs each.
func TestScenarioS4HappyPath(t *testing.T) {
	hostPort, targetPort := serial.NewLoopback()
	defer hostPort.Close()
	defer targetPort.Close()

	sink := &recordingSink{}
	recv := NewReceiver(targetPort, sink)
	recvErr := make(chan error, 1)
	go func() { recvErr <- recv.Run() }()

	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(i)
	}

	var acked, retried int
	sender := NewSender(hostPort, func(p Progress) {
		if p.Acked {
			acked++
		} else {
			retried++
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sender.Prime(ctx); err != nil {
		t.Fatalf("Prime: %v", err)
	}
	if err := sender.Send(bytes.NewReader(data)); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case err := <-recvErr:
		if err != nil {
			t.Fatalf("receiver: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("receiver did not finish")
	}

	if acked != 3 {
		t.Errorf("acked blocks = %d, want 3", acked)
	}
	if retried != 0 {
		t.Errorf("retried blocks = %d, want 0", retried)
	}

	got := sink.bytes()
	if len(got) != 3*PayloadSize {
		t.Fatalf("received %d bytes, want %d", len(got), 3*PayloadSize)
	}
	if !bytes.Equal(got[:300], data) {
		t.Errorf("payload mismatch in first 300 bytes")
	}
	for _, b := range got[300:] {
		if b != EOF {
			t.Errorf("pad byte = %#x, want EOF", b)
		}
	}
}

// flippingPort corrupts exactly one byte written during the Nth write
// it observes, simulating a single-byte flip on the wire for S5.
type flippingPort struct {
	serial.Port
	mu      sync.Mutex
	nth     int
	flipped bool
}

func (p *flippingPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(b) == FrameSize {
		p.nth--
		if p.nth == 0 && !p.flipped {
			cp := append([]byte(nil), b...)
			cp[4] ^= 0xFF // corrupt a payload byte, not the header or checksum trailer
			p.flipped = true
			return p.Port.Write(cp)
		}
	}
	return p.Port.Write(b)
}

// S5 — transfer with one corrupted block: target NAKs, host retransmits,
// then ACKs; final exit is success.
func TestScenarioS5OneCorruptedBlock(t *testing.T) {
	hostPort, targetPort := serial.NewLoopback()
	defer hostPort.Close()
	defer targetPort.Close()

	corrupting := &flippingPort{Port: hostPort, nth: 2} // corrupt the 2nd data block written

	sink := &recordingSink{}
	recv := NewReceiver(targetPort, sink)
	recvErr := make(chan error, 1)
	go func() { recvErr <- recv.Run() }()

	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(i)
	}

	var events []bool
	sender := NewSender(corrupting, func(p Progress) { events = append(events, p.Acked) })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sender.Prime(ctx); err != nil {
		t.Fatalf("Prime: %v", err)
	}
	if err := sender.Send(bytes.NewReader(data)); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case err := <-recvErr:
		if err != nil {
			t.Fatalf("receiver: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("receiver did not finish")
	}

	want := []bool{true, false, true, true}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want 4 entries ending in success", events)
	}
	for i, w := range want {
		if events[i] != w {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
}

// S6 — transfer with no target: the host never sees a NAK and fails
// with TargetIllegalState.
func TestScenarioS6NoTarget(t *testing.T) {
	hostPort, _ := serial.NewLoopback() // nothing reads the other end

	sender := NewSender(hostPort, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := sender.Prime(ctx)
	if err != ErrTargetIllegalState {
		t.Fatalf("Prime = %v, want ErrTargetIllegalState", err)
	}
}
