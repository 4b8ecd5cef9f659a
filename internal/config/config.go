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

// Package config loads the handful of settings §9 fixes "at build" on
// the real target (serial device, baud rate, priority count, stack
// sizes) from a TOML file, so the host-side binaries in cmd/ do not
// need to be recompiled to point at a different port or arena size.
package config

import (
	"github.com/BurntSushi/toml"
)

// Config is the boot monitor/kernel's build-time configuration surface.
type Config struct {
	Serial SerialConfig `toml:"serial"`
	Kernel KernelConfig `toml:"kernel"`
	Boot   BootConfig   `toml:"boot"`
}

// SerialConfig names the serial line parameters (§9: "default device
// identifier fixed at build; default baud 9600, 8N1").
type SerialConfig struct {
	Device string `toml:"device"`
	Baud   int    `toml:"baud"`
}

// KernelConfig sizes the scheduler's fixed resources.
type KernelConfig struct {
	NumPriorities int `toml:"num_priorities"`
	ArenaSize     int `toml:"arena_size"`
	DefaultStack  int `toml:"default_stack_size"`
}

// BootConfig holds the boot monitor's shell settings. Prompt is loaded
// but nothing passes it to bootmon.Shell, which always writes the fixed
// bootmon.Prompt.
type BootConfig struct {
	Prompt string `toml:"prompt"`
}

// Default returns the build's baseline configuration, used when no
// config file is given.
func Default() Config {
	return Config{
		Serial: SerialConfig{Device: "/dev/ttyUSB0", Baud: 9600},
		Kernel: KernelConfig{NumPriorities: 16, ArenaSize: 64 * 1024, DefaultStack: 4096},
		Boot:   BootConfig{Prompt: "> "},
	}
}

// Load reads and parses a TOML config file, starting from Default and
// overriding only the fields the file sets.
func Load(path string) (Config, error) {
	cfg := Default()
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}
