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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/kozos-go/kozos/pkg/serial"
	"github.com/kozos-go/kozos/pkg/xmodem"
)

// sendCommand implements subcommands.Command for "send", the binary's
// sole operational command: `kzxmodem send <elf-file> <serial-device>`.
type sendCommand struct {
	baud int
}

func (*sendCommand) Name() string     { return "send" }
func (*sendCommand) Synopsis() string { return "transmit an image to a target's boot monitor" }
func (*sendCommand) Usage() string {
	return "send [flags] <elf-file> <serial-device> - transmit an image over the block-framed protocol\n"
}

func (c *sendCommand) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.baud, "baud", 9600, "baud rate")
}

func (c *sendCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		// 1, not subcommands.ExitUsageError (2), which is SerialOpen's code.
		return subcommands.ExitFailure
	}
	imagePath, device := f.Arg(0), f.Arg(1)

	file, err := os.Open(imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kzxmodem: %v\n", err)
		return subcommands.ExitStatus(xmodem.ErrFileOpen.ExitCode())
	}
	defer file.Close()

	port, err := serial.Open(device, c.baud)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kzxmodem: opening %s: %v\n", device, err)
		return subcommands.ExitStatus(xmodem.ErrSerialOpen.ExitCode())
	}
	defer port.Close()

	blocks, retries := 0, 0
	sender := xmodem.NewSender(port, func(p xmodem.Progress) {
		if p.Acked {
			blocks++
			fmt.Fprint(os.Stderr, ".")
		} else {
			retries++
			fmt.Fprint(os.Stderr, "x")
		}
	})

	fmt.Fprintf(os.Stderr, "kzxmodem: sending %s to %s at %d baud\n", imagePath, device, c.baud)

	if err := sender.Prime(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "\nkzxmodem: target did not enter the receive state: %v\n", err)
		return exitCodeFor(err)
	}
	if err := sender.Send(file); err != nil {
		fmt.Fprintf(os.Stderr, "\nkzxmodem: transfer failed after %d block(s): %v\n", blocks, err)
		return exitCodeFor(err)
	}

	fmt.Fprintf(os.Stderr, "\nkzxmodem: transfer complete: %d block(s), %d retried\n", blocks, retries)
	return subcommands.ExitSuccess
}

func exitCodeFor(err error) subcommands.ExitStatus {
	var te *xmodem.TransferError
	if errors.As(err, &te) {
		return subcommands.ExitStatus(te.ExitCode())
	}
	return subcommands.ExitFailure
}
