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

// Package harness wires a host tool to a target process through a real
// pseudo-terminal pair instead of the in-memory loopback pkg/serial.Port
// tests use, so the full boot-monitor/host-transfer flow can be
// exercised end to end without real hardware. It exists for demos and
// integration tests; no production binary imports it.
package harness

import (
	"os"
	"time"

	"github.com/kr/pty"
	"golang.org/x/sync/errgroup"

	"github.com/kozos-go/kozos/pkg/serial"
)

// Loopback is a connected host/target pair, each end a serial.Port
// backed by one side of a pty.
type Loopback struct {
	Host, Target serial.Port

	master, slave *os.File
}

// NewLoopback opens a pty pair. The master end plays the host; the
// slave end plays the target, the way a real target's UART would be a
// tty device node the host opens as its serial interface.
func NewLoopback() (*Loopback, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, err
	}
	return &Loopback{
		Host:   &filePort{f: master},
		Target: &filePort{f: slave},
		master: master,
		slave:  slave,
	}, nil
}

// Close releases both ends of the pty.
func (l *Loopback) Close() error {
	err1 := l.master.Close()
	err2 := l.slave.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// Run starts host and target as two goroutines under an errgroup,
// returning once both have returned, with the first non-nil error
// either of them produced. A failure in one does not stop the other. It
// is the harness
// equivalent of a host tool and a target boot monitor running
// concurrently, connected by the pty pair.
func Run(host, target func() error) error {
	var g errgroup.Group
	g.Go(host)
	g.Go(target)
	return g.Wait()
}

// filePort adapts an *os.File (one end of a pty) to serial.Port.
type filePort struct {
	f *os.File
}

func (p *filePort) Write(b []byte) (int, error) {
	return p.f.Write(b)
}

func (p *filePort) ReadByte(timeout time.Duration) (byte, error) {
	if err := p.f.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, err
	}
	var buf [1]byte
	n, err := p.f.Read(buf[:])
	if err != nil {
		if os.IsTimeout(err) {
			return 0, serial.ErrTimeout
		}
		return 0, err
	}
	if n == 0 {
		return 0, serial.ErrTimeout
	}
	return buf[0], nil
}

func (p *filePort) Close() error {
	return p.f.Close()
}
