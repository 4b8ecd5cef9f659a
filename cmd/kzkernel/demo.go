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
	"github.com/sirupsen/logrus"

	"github.com/kozos-go/kozos/pkg/kernel"
)

// demo bundles the fixed set of threads kzkernel starts for a resident
// image: three siblings interleaving at one priority, and a fourth
// thread demonstrating sleep/wakeup across priorities.
type demo struct {
	log       *logrus.Logger
	stackSize int
}

// init is kzkernel's first thread (§4.7's kernel_start entry). It spawns
// the demonstration threads, then yields in a loop like an idle resident
// monitor until it has woken the sleeper, and exits.
func (d *demo) init(self *kernel.Thread, argc int, argv []string) {
	for _, name := range []string{"A", "B", "C"} {
		if _, err := self.Run(d.worker, name, 1, d.stackSize, 1, []string{name}); err != nil {
			d.log.Errorf("init: spawning %s: %v", name, err)
		}
	}

	sleeperID, err := self.Run(d.sleeper, "sleeper", 2, d.stackSize, 0, nil)
	if err != nil {
		d.log.Errorf("init: spawning sleeper: %v", err)
	}

	// Drop below the workers and the sleeper so they run (and the
	// sleeper reaches Sleep) before init's yields and wakeup below.
	self.Chpri(3)

	for i := 0; i < 6; i++ {
		self.Wait()
	}

	if err := self.Wakeup(sleeperID); err != nil {
		d.log.Errorf("init: waking sleeper: %v", err)
	}

	self.Wait()
	self.Wait()

	d.log.Infof("init: demo threads dispatched, exiting")
}

// worker logs once per lap and yields, three laps, the way S2 exercises
// equal-priority round robin.
func (d *demo) worker(self *kernel.Thread, argc int, argv []string) {
	name := argv[0]
	for i := 0; i < 3; i++ {
		d.log.Infof("%s: lap %d (id=%d)", name, i, self.GetID())
		self.Wait()
	}
	d.log.Infof("%s: done", name)
}

// sleeper blocks on Sleep until init wakes it, the way S3 exercises
// wakeup across priorities.
func (d *demo) sleeper(self *kernel.Thread, argc int, argv []string) {
	d.log.Infof("sleeper: sleeping (id=%d)", self.GetID())
	self.Sleep()
	d.log.Infof("sleeper: woken")
}
