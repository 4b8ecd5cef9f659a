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

// Package bootmon implements the boot monitor's interactive command
// shell (§9): the resident program that initializes one serial port,
// prompts, and on the "load" command receives an image via pkg/xmodem
// before handing it to an ELF loader (an external collaborator, out of
// scope per the governing specification's Non-goals).
package bootmon

import (
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/kozos-go/kozos/pkg/serial"
	"github.com/kozos-go/kozos/pkg/xmodem"
)

// Prompt is the boot monitor's fixed command prompt.
const Prompt = "> "

// Loader relocates a received image into RAM and transfers control to
// it. It is an external collaborator: the ELF parsing and relocation
// logic themselves are out of scope (§2's Non-goals), but the boot
// monitor needs an interface to hand a completed transfer to.
type Loader interface {
	// WriteBlock is called once per accepted transfer block, in order.
	WriteBlock(payload [xmodem.PayloadSize]byte) error
	// Boot is called once the transfer session ends successfully; it
	// jumps to the received image and, on a real target, never returns.
	Boot() error
}

// Shell is the boot monitor's command loop. It consumes complete lines
// from a serial.LineReceiver and writes responses to a serial.Port,
// exactly the ownership split §9's shared-resource policy describes:
// the line buffer belongs to the receive handler, the shell only
// consumes finished lines.
type Shell struct {
	port    serial.Port
	lines   <-chan serial.Line
	loader  Loader
	log     *logrus.Logger
	done    bool
	loading int32
}

// NewShell returns a Shell reading lines from lines and writing prompts
// and responses to port.
func NewShell(port serial.Port, lines <-chan serial.Line, loader Loader, log *logrus.Logger) *Shell {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Shell{port: port, lines: lines, loader: loader, log: log}
}

// Run drives the command loop until the "exit" command is received or
// lines is closed. It blocks on each line in turn, the way the target's
// main loop blocks the CPU between received lines.
func (s *Shell) Run() {
	s.writePrompt()
	for line := range s.lines {
		s.dispatch(line)
		if s.done {
			return
		}
		s.writePrompt()
	}
}

func (s *Shell) writePrompt() {
	s.port.Write([]byte(Prompt))
}

func (s *Shell) writeLine(text string) {
	s.port.Write([]byte(text + "\n"))
}

func (s *Shell) dispatch(line serial.Line) {
	text := line.Text
	switch {
	case text == "exit":
		s.done = true
	case text == "load":
		s.runLoad()
	case strings.HasPrefix(text, "echo "):
		s.writeLine(strings.TrimPrefix(text, "echo "))
	case text == "echo":
		s.writeLine("")
	default:
		s.writeLine("unknown command.")
	}
}

func (s *Shell) runLoad() {
	atomic.StoreInt32(&s.loading, 1)
	defer atomic.StoreInt32(&s.loading, 0)

	recv := xmodem.NewReceiver(s.port, loaderSink{s.loader})
	if err := recv.Run(); err != nil {
		s.log.Errorf("load: transfer failed: %v", err)
		return
	}
	if err := s.loader.Boot(); err != nil {
		s.log.Errorf("load: boot failed: %v", err)
	}
}

// Loading reports whether a transfer session (triggered by "load") is in
// progress. A byte pump feeding this Shell's line receiver from the same
// underlying Port must consult this before each read and back off while
// it is true, since during a transfer the Receiver reads the port's
// bytes directly (§4.6's block frames, not command lines) — on real
// hardware this is a single interrupt vector rebound to a different
// handler for the duration, which this flag approximates for a
// Go-process byte pump (see cmd/kzboot, cmd/kzsim).
func (s *Shell) Loading() bool {
	return atomic.LoadInt32(&s.loading) != 0
}

// loaderSink adapts a Loader to xmodem.Sink.
type loaderSink struct{ l Loader }

func (s loaderSink) WriteBlock(payload [xmodem.PayloadSize]byte) error {
	return s.l.WriteBlock(payload)
}
