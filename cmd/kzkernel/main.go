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

// Command kzkernel is the kernel image entrypoint: it builds a Kernel
// from the build configuration, starts a small fixed set of demonstration
// threads exercising run/wait/sleep/wakeup/chpri/getid, and calls
// kernel_start. On real hardware this would be the program the boot
// monitor relocates and jumps to after a completed transfer (§4.6); here
// it runs standalone against the in-process scheduler.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kozos-go/kozos/internal/config"
	"github.com/kozos-go/kozos/internal/kzlog"
	"github.com/kozos-go/kozos/pkg/kernel"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file (optional; build defaults used if empty)")
	debug := flag.Bool("debug", false, "enable debug-level logging")
	logFormat := flag.String("log-format", "text", "log output format: text or json")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "kzkernel: loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	format := kzlog.FormatText
	if *logFormat == "json" {
		format = kzlog.FormatJSON
	}
	log := kzlog.New(kzlog.Options{Format: format, Debug: *debug})

	k := kernel.New(kernel.Config{
		NumPriorities: cfg.Kernel.NumPriorities,
		ArenaSize:     cfg.Kernel.ArenaSize,
		Log:           log,
		OnFatal: func(err error) {
			log.Errorf("sysdown: %v", err)
		},
	})

	d := &demo{log: log, stackSize: cfg.Kernel.DefaultStack}
	if err := k.Start(d.init, "init", 0, cfg.Kernel.DefaultStack, 0, nil); err != nil {
		log.Fatalf("kernel start: %v", err)
	}
}
