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

package kernel

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newTestKernel() *Kernel {
	return New(Config{NumPriorities: 4, ArenaSize: 1 << 16})
}

// await blocks on ch for up to one second, failing the test on timeout.
func await(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for result")
	}
}

// S1: a single thread calls getid, observes its own identity, and exits;
// the system then reaches idle with no Runnable threads.
func TestScenarioS1SingleThreadGetIDAndExit(t *testing.T) {
	k := newTestKernel()
	done := make(chan struct{})
	var gotID ID

	go k.Start(func(self *Thread, argc int, argv []string) {
		gotID = self.GetID()
		close(done)
	}, "s1", 1, 4096, 0, nil)

	await(t, done)

	if gotID != 0 {
		t.Errorf("first thread's ID = %d, want 0", gotID)
	}
}

// TestScenarioS2ThreeSiblingsInterleave is S2: a bootstrap thread Runs
// three equal-priority worker threads and then exits; the workers
// round-robin via Wait, producing strict token order A B C A B C A B C.
func TestScenarioS2ThreeSiblingsInterleave(t *testing.T) {
	k := newTestKernel()
	tokens := make(chan string, 32)
	finished := make(chan struct{}, 3)

	worker := func(self *Thread, argc int, argv []string) {
		name := argv[0]
		for i := 0; i < 3; i++ {
			tokens <- name
			self.Wait()
		}
		finished <- struct{}{}
	}

	bootstrap := func(self *Thread, argc int, argv []string) {
		for _, name := range []string{"A", "B", "C"} {
			if _, err := self.Run(worker, name, self.Chpri(NoPriority), 4096, 1, []string{name}); err != nil {
				t.Errorf("run(%s): %v", name, err)
			}
		}
	}

	go k.Start(bootstrap, "bootstrap", 1, 4096, 0, nil)

	for i := 0; i < 3; i++ {
		await(t, finished)
	}

	got := make([]string, 0, 9)
	for len(got) < 9 {
		select {
		case tok := <-tokens:
			got = append(got, tok)
		case <-time.After(time.Second):
			t.Fatalf("timed out collecting tokens, got %v so far", got)
		}
	}

	want := []string{"A", "B", "C", "A", "B", "C", "A", "B", "C"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("token order mismatch (-want +got):\n%s", diff)
	}
}

// S3: the thread named "low" (priority 0) sleeps; the thread named
// "high" (priority 1) wakes it and then waits. Because the woken thread
// outranks the waker, the wakeup itself preempts "high", so "low" runs
// to completion before "high" is dispatched again.
func TestScenarioS3WakeupAcrossPriorities(t *testing.T) {
	k := newTestKernel()
	order := make(chan string, 8)
	done := make(chan struct{})

	var lowID ID
	lowIDSet := make(chan struct{})

	low := func(self *Thread, argc int, argv []string) {
		lowID = self.GetID()
		close(lowIDSet)
		self.Sleep()
		order <- "low-woken"
	}

	high := func(self *Thread, argc int, argv []string) {
		order <- "high-start"
		<-lowIDSet
		if err := self.Wakeup(lowID); err != nil {
			t.Errorf("wakeup: %v", err)
		}
		self.Wait()
		order <- "high-resumed"
		close(done)
	}

	bootstrap := func(self *Thread, argc int, argv []string) {
		// low outranks bootstrap and high, so running it preempts
		// bootstrap at once and low reaches Sleep before high is even
		// created; high's later Wakeup preempts high in turn, letting
		// low run to completion first.
		if _, err := self.Run(low, "low", 0, 4096, 0, nil); err != nil {
			t.Fatalf("run(low): %v", err)
		}
		if _, err := self.Run(high, "high", 1, 4096, 0, nil); err != nil {
			t.Fatalf("run(high): %v", err)
		}
	}

	go k.Start(bootstrap, "bootstrap", 1, 4096, 0, nil)

	await(t, done)

	got := make([]string, 0, 3)
	for len(got) < 3 {
		select {
		case ev := <-order:
			got = append(got, ev)
		case <-time.After(time.Second):
			t.Fatalf("timed out, got %v so far", got)
		}
	}

	if got[0] != "high-start" {
		t.Fatalf("order = %v, want high-start first", got)
	}
	if got[1] != "low-woken" || got[2] != "high-resumed" {
		t.Fatalf("order = %v, want [high-start low-woken high-resumed]", got)
	}
}

func TestWakeupUnknownHandleFails(t *testing.T) {
	k := newTestKernel()
	done := make(chan struct{})
	var gotErr error

	go k.Start(func(self *Thread, argc int, argv []string) {
		gotErr = self.Wakeup(ID(999))
		close(done)
	}, "w", 1, 4096, 0, nil)

	await(t, done)

	if !errors.Is(gotErr, ErrBadHandle) {
		t.Errorf("wakeup(unknown) = %v, want ErrBadHandle", gotErr)
	}
}

func TestWakeupExitingFails(t *testing.T) {
	k := newTestKernel()
	done := make(chan struct{})
	exited := make(chan ID, 1)

	victim := func(self *Thread, argc int, argv []string) {
		exited <- self.GetID()
	}

	bootstrap := func(self *Thread, argc int, argv []string) {
		// victim outranks bootstrap, so Run itself preempts bootstrap
		// and victim runs to completion before control returns here.
		id, err := self.Run(victim, "victim", 0, 4096, 0, nil)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		self.Wait()
		gotErr := self.Wakeup(id)
		if !errors.Is(gotErr, ErrExiting) {
			t.Errorf("wakeup(exited) = %v, want ErrExiting", gotErr)
		}
		close(done)
	}

	go k.Start(bootstrap, "bootstrap", 1, 4096, 0, nil)
	await(t, done)
	<-exited
}

func TestChpriForcesReschedule(t *testing.T) {
	k := newTestKernel()
	order := make(chan string, 8)
	done := make(chan struct{})

	low := func(self *Thread, argc int, argv []string) {
		order <- "low-start"
		self.Wait()
		order <- "low-resumed"
		close(done)
	}

	bootstrap := func(self *Thread, argc int, argv []string) {
		if _, err := self.Run(low, "low", 1, 4096, 0, nil); err != nil {
			t.Fatalf("run: %v", err)
		}
		self.Wait()
		prev := self.Chpri(3)
		if prev != 1 {
			t.Errorf("chpri prev = %d, want 1", prev)
		}
		order <- "bootstrap-demoted"
	}

	go k.Start(bootstrap, "bootstrap", 1, 4096, 0, nil)
	await(t, done)

	got := []string{<-order, <-order}
	if got[0] != "low-start" {
		t.Fatalf("order = %v, want low-start first", got)
	}
	if got[1] != "low-resumed" {
		t.Fatalf("order = %v, want low-resumed before bootstrap-demoted", got)
	}
}

func TestRunRejectsBadPriority(t *testing.T) {
	k := newTestKernel()
	done := make(chan struct{})
	var gotErr error

	go k.Start(func(self *Thread, argc int, argv []string) {
		_, gotErr = self.Run(func(*Thread, int, []string) {}, "bad", 99, 4096, 0, nil)
		close(done)
	}, "bootstrap", 1, 4096, 0, nil)

	await(t, done)

	if !errors.Is(gotErr, ErrBadPriority) {
		t.Errorf("run(bad priority) = %v, want ErrBadPriority", gotErr)
	}
}

func TestRunRejectsOversizedStack(t *testing.T) {
	k := New(Config{NumPriorities: 2, ArenaSize: 64})
	done := make(chan struct{})
	var gotErr error

	go k.Start(func(self *Thread, argc int, argv []string) {
		_, gotErr = self.Run(func(*Thread, int, []string) {}, "big", 0, 4096, 0, nil)
		close(done)
	}, "bootstrap", 0, 32, 0, nil)

	await(t, done)

	if !errors.Is(gotErr, ErrOutOfMemory) {
		t.Errorf("run(oversized stack) = %v, want ErrOutOfMemory", gotErr)
	}
}

// TestThreadsSnapshotOrderedByID exercises the btree-backed debug view.
func TestThreadsSnapshotOrderedByID(t *testing.T) {
	k := newTestKernel()
	done := make(chan struct{})
	var infos []ThreadInfo

	child := func(self *Thread, argc int, argv []string) {
		self.Sleep()
	}

	bootstrap := func(self *Thread, argc int, argv []string) {
		for i := 0; i < 3; i++ {
			if _, err := self.Run(child, "child", 2, 4096, 0, nil); err != nil {
				t.Fatalf("run: %v", err)
			}
		}
		infos = k.Threads()
		close(done)
	}

	go k.Start(bootstrap, "bootstrap", 1, 4096, 0, nil)
	await(t, done)

	if len(infos) < 4 {
		t.Fatalf("Threads() returned %d entries, want at least 4", len(infos))
	}
	for i := 1; i < len(infos); i++ {
		if infos[i-1].ID >= infos[i].ID {
			t.Fatalf("Threads() not ordered by ID: %v", infos)
		}
	}
}
