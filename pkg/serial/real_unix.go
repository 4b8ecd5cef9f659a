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

//go:build unix

package serial

import (
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"
)

// realPort is a Port backed by an actual tty device, programmed to
// 8N1 raw mode at a fixed baud rate the way the boot monitor's default
// serial parameters are fixed at build (§9 "Serial line parameters").
type realPort struct {
	f    *os.File
	lock *flock.Flock
}

// baudRates maps the handful of rates the target firmware and host tool
// agree on to their termios constants. 9600 8N1 is the build default.
var baudRates = map[int]uint32{
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
}

// Open opens device at the given baud rate, 8N1, no flow control, and
// takes an advisory lock on a sibling ".lock" file so two host tools
// cannot drive the same port concurrently.
func Open(device string, baud int) (Port, error) {
	rate, ok := baudRates[baud]
	if !ok {
		return nil, fmt.Errorf("serial: unsupported baud rate %d", baud)
	}

	lock := flock.New(device + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("serial: lock %s: %w", device, err)
	}
	if !locked {
		return nil, fmt.Errorf("serial: %s is already in use", device)
	}

	f, err := os.OpenFile(device, os.O_RDWR|os.O_NOCTTY, 0)
	if err != nil {
		lock.Unlock()
		return nil, err
	}

	t := unix.Termios{
		Iflag:  0,
		Oflag:  0,
		Cflag:  unix.CS8 | unix.CREAD | unix.CLOCAL,
		Lflag:  0,
		Ispeed: rate,
		Ospeed: rate,
	}
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(int(f.Fd()), unix.TCSETS, &t); err != nil {
		f.Close()
		lock.Unlock()
		return nil, fmt.Errorf("serial: set termios: %w", err)
	}

	return &realPort{f: f, lock: lock}, nil
}

func (p *realPort) Write(b []byte) (int, error) {
	return p.f.Write(b)
}

func (p *realPort) ReadByte(timeout time.Duration) (byte, error) {
	if err := p.f.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, err
	}
	var buf [1]byte
	n, err := p.f.Read(buf[:])
	if err != nil {
		if os.IsTimeout(err) {
			return 0, ErrTimeout
		}
		return 0, err
	}
	if n == 0 {
		return 0, ErrTimeout
	}
	return buf[0], nil
}

func (p *realPort) Close() error {
	err := p.f.Close()
	p.lock.Unlock()
	return err
}
