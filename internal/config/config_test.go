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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kozos.toml")
	contents := `
[serial]
device = "/dev/ttyS1"
baud = 19200

[kernel]
num_priorities = 8
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Serial.Device != "/dev/ttyS1" {
		t.Errorf("Serial.Device = %q, want /dev/ttyS1", cfg.Serial.Device)
	}
	if cfg.Serial.Baud != 19200 {
		t.Errorf("Serial.Baud = %d, want 19200", cfg.Serial.Baud)
	}
	if cfg.Kernel.NumPriorities != 8 {
		t.Errorf("Kernel.NumPriorities = %d, want 8", cfg.Kernel.NumPriorities)
	}
	// Fields the file didn't set keep their Default() values.
	if cfg.Kernel.ArenaSize != Default().Kernel.ArenaSize {
		t.Errorf("Kernel.ArenaSize = %d, want default %d", cfg.Kernel.ArenaSize, Default().Kernel.ArenaSize)
	}
	if cfg.Boot.Prompt != "> " {
		t.Errorf("Boot.Prompt = %q, want %q", cfg.Boot.Prompt, "> ")
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
