// Copyright 2024 TiKV Project Authors.
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

package btree

import (
	"runtime"

	"github.com/tikv/btree/pkg/syncutil"
)

// snapshotRegistry is shared by a Tree and every descendant produced by
// its Clone lineage. It exists purely for diagnostics: spec.md never
// requires a tree to know how many snapshots of itself are alive, but
// a long-lived service holding onto an old Clone() can silently pin an
// entire COW generation in memory, so this gives operators something
// to look at (via Tree.LiveSnapshots) instead of guessing from heap
// profiles. Guarded by a plain Mutex rather than atomic.Int64 because
// registries are touched at Clone/finalize rates, not per-operation
// rates, and syncutil.Mutex is the ambient lock primitive the rest of
// this module's lineage uses.
type snapshotRegistry struct {
	mu   syncutil.Mutex
	live int
}

func newSnapshotRegistry() *snapshotRegistry {
	return &snapshotRegistry{live: 1}
}

func (r *snapshotRegistry) track() {
	r.mu.Lock()
	r.live++
	r.mu.Unlock()
}

func (r *snapshotRegistry) untrack() {
	r.mu.Lock()
	r.live--
	r.mu.Unlock()
}

func (r *snapshotRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

// attachFinalizer arranges for reg's live count to be decremented when
// t becomes unreachable, so LiveSnapshots reflects trees the caller has
// actually dropped rather than every Clone ever produced. SetFinalizer,
// not runtime.AddCleanup, since this module targets go1.21.
func attachFinalizer[T any](t *Tree[T], reg *snapshotRegistry) {
	runtime.SetFinalizer(t, func(t *Tree[T]) {
		reg.untrack()
	})
}

// LiveSnapshots reports how many Tree handles -- this one plus every
// clone reachable from the same Clone lineage that the garbage
// collector has not yet finalized -- are currently alive. It is a
// diagnostic, not a correctness primitive: a snapshot can still be
// collected at any time between this call returning and the caller
// acting on it.
func (t *Tree[T]) LiveSnapshots() int {
	return t.snapshots.count()
}
