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

import "github.com/google/btree"

// ThreadInfo is a read-only snapshot of one thread, returned by the
// ordered debug listing Kernel.Threads. It implements btree.Item,
// ordered by ID, so the kernel's
// id-ordered view can be produced with a single in-order walk rather
// than a sort on every query.
type ThreadInfo struct {
	ID       ID
	Name     string
	Priority int
	State    State
}

// Less implements btree.Item.
func (a ThreadInfo) Less(than btree.Item) bool {
	return a.ID < than.(ThreadInfo).ID
}

// Threads returns a snapshot of every thread ever created, ordered by
// ID, the way a boot monitor debug command would list them. Exited
// threads are included, with state Exiting.
func (k *Kernel) Threads() []ThreadInfo {
	k.gate.Mask()
	defer k.gate.Unmask()
	out := make([]ThreadInfo, 0, k.order.Len())
	k.order.Ascend(func(item btree.Item) bool {
		ti := item.(ThreadInfo)
		if tcb, ok := k.table[ti.ID]; ok {
			ti.Priority = tcb.priority
			ti.State = tcb.state
		}
		out = append(out, ti)
		return true
	})
	return out
}
