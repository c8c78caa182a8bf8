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

// Package btree implements an in-memory, ordered, copy-on-write B-tree
// keyed by a caller-supplied three-way comparator. It is a Go-generic
// reimplementation of the tidwall/btree.c design: nodes carry an
// atomic refcount so Clone is O(1) and mutations only ever deep-copy
// the shared spine they actually touch (see cow.go).
package btree

import (
	"go.uber.org/zap"

	"github.com/tikv/btree/pkg/errs"
)

const (
	minMaxItems     = 2
	maxMaxItemsCap  = 2045
	defaultMaxItems = 255 // degree 128
)

// Tree is an ordered collection of T, deduplicated and ordered by cmp.
// The zero Tree is not usable; construct one with New. A Tree is not
// safe for concurrent use by multiple goroutines unless every access
// is externally synchronized -- Clone is the supported way to hand a
// consistent read-only view to another goroutine without locking.
type Tree[T any] struct {
	root     *node[T]
	cmp      CompareFunc[T]
	maxItems int
	minItems int
	alloc    allocator[T]
	clone    func(T) (T, error)
	free     func(T)
	log      *zap.Logger
	metrics  *treeMetrics
	count    int
	oom      bool

	// generation increments on every call that can change the tree's
	// contents or shape. An Iter captures it when positioned and
	// refuses to keep walking once it no longer matches (see
	// iterator.go) -- unlike the C original, where mutating mid-walk
	// is undefined behavior, since an exclusively-owned (rc == 0) node
	// is mutated in place rather than copied and an outstanding Iter's
	// stack frames would otherwise silently observe the edit.
	generation uint64

	snapshots *snapshotRegistry
}

// New constructs an empty Tree ordered by cmp. cmp must not be nil.
func New[T any](cmp CompareFunc[T], opts ...Option[T]) (*Tree[T], error) {
	if cmp == nil {
		return nil, errs.ErrNilComparator.GenWithStackByArgs()
	}
	o := &options[T]{name: "default"}
	for _, opt := range opts {
		opt(o)
	}
	maxItems := o.maxItems
	if !o.degreeGiven {
		maxItems = normalizeMaxItems(maxItems)
	}

	t := &Tree[T]{
		cmp:      cmp,
		maxItems: maxItems,
		minItems: maxItems / 2,
		clone:    o.clone,
		free:     o.free,
		log:      o.logger,
		metrics:  newTreeMetrics(o.name),
	}
	if o.alloc != nil {
		t.alloc = allocator[T]{a: o.alloc, maxItems: maxItems}
	} else {
		t.alloc = allocator[T]{a: defaultAllocator[T]{}, maxItems: maxItems}
	}
	t.snapshots = newSnapshotRegistry()
	attachFinalizer(t, t.snapshots)
	return t, nil
}

// normalizeMaxItems mirrors btree_new_with_allocator's degree
// normalization: deg 0 falls back to the library default, deg 1 is
// raised to 2 (max_items 3), and the result is clamped to the format's hard cap so a single node's
// item count always fits the encoding the rest of the package assumes.
func normalizeMaxItems(requested int) int {
	deg := requested / 2
	switch {
	case deg == 0:
		return defaultMaxItems
	case deg == 1:
		deg = 2
	}
	maxItems := deg*2 - 1
	if maxItems > maxMaxItemsCap {
		maxItems = maxMaxItemsCap
	}
	if maxItems < minMaxItems {
		maxItems = minMaxItems
	}
	return maxItems
}

// Len reports the number of items currently stored.
func (t *Tree[T]) Len() int { return t.count }

// Height reports the number of node levels from root to leaf
// inclusive; an empty tree has height 0.
func (t *Tree[T]) Height() int {
	h := 0
	for n := t.root; n != nil; {
		h++
		if n.leaf {
			break
		}
		n = n.children[0]
	}
	return h
}

// OOM reports whether this tree has entered the sticky out-of-memory
// state. Once true it never clears. Set, SetHint and Load then return
// ErrTreeOutOfMemory without touching the tree; Delete, DeleteHint,
// PopMin, PopMax, Clear and the action walks do not check the flag and
// still run.
func (t *Tree[T]) OOM() bool { return t.oom }

func (t *Tree[T]) setOOM() {
	if !t.oom {
		t.oom = true
		t.metrics.oomTransitions.Inc()
		t.logger().Warn("btree: entering sticky out-of-memory state", zap.Int("count", t.count))
	}
}

// Clone returns a new Tree sharing the current root with t. The call
// is O(1): no node is copied until one side of the split next writes
// to it, at which point copy-on-write takes over (see cow.go). Both
// the receiver and the returned tree remain independently mutable.
func (t *Tree[T]) Clone() *Tree[T] {
	cp := &Tree[T]{
		root:       t.root,
		cmp:        t.cmp,
		maxItems:   t.maxItems,
		minItems:   t.minItems,
		alloc:      t.alloc,
		clone:      t.clone,
		free:       t.free,
		log:        t.log,
		metrics:    t.metrics,
		count:      t.count,
		oom:        t.oom,
		generation: t.generation,
		snapshots:  t.snapshots,
	}
	if cp.root != nil {
		cp.root.rc.Add(1)
	}
	t.snapshots.track()
	attachFinalizer(cp, cp.snapshots)
	t.metrics.clones.Inc()
	return cp
}

// setWith is the Set family's shared entry point: it grows the root if
// the existing one signals MustSplit, using kind to pick the split
// policy (balanced for ordinary Set calls, lean-left for Load's
// fallback), exactly as btree_set0 grows the root in its own retry
// loop.
func (t *Tree[T]) setWith(item T, hint *Hint, kind splitKind) (prev T, replaced bool, err error) {
	if t.oom {
		var zero T
		return zero, false, errs.ErrTreeOutOfMemory.GenWithStackByArgs()
	}
	if t.root == nil {
		root, err := t.alloc.newNode(true)
		if err != nil {
			t.setOOM()
			var zero T
			return zero, false, errs.ErrTreeOutOfMemory.GenWithStackByArgs()
		}
		t.root = root
	}
	for {
		if err := t.cowEnsure(&t.root); err != nil {
			t.setOOM()
			var zero T
			return zero, false, errs.ErrTreeOutOfMemory.GenWithStackByArgs()
		}
		p, res := t.root.set(t, item, hint, 0, kind)
		switch res {
		case resInserted:
			t.count++
			t.generation++
			var zero T
			return zero, false, nil
		case resReplaced:
			t.generation++
			return p, true, nil
		case resNoMemory:
			t.setOOM()
			var zero T
			return zero, false, errs.ErrTreeOutOfMemory.GenWithStackByArgs()
		case resMustSplit:
			newRoot, err := t.alloc.newNode(false)
			if err != nil {
				t.setOOM()
				var zero T
				return zero, false, errs.ErrTreeOutOfMemory.GenWithStackByArgs()
			}
			newRoot.children = append(newRoot.children, t.root)
			oldRoot := t.root
			t.root = newRoot
			if err := t.root.splitChild(t, 0, kind); err != nil {
				t.setOOM()
				t.root = oldRoot
				var zero T
				return zero, false, errs.ErrTreeOutOfMemory.GenWithStackByArgs()
			}
			// Loop again: item still needs placing, now under a taller
			// root with two children instead of the one full node.
		}
	}
}

// Set inserts item, or replaces the existing item comparing equal
// under the tree's comparator and returns it as prev with replaced
// true.
func (t *Tree[T]) Set(item T) (prev T, replaced bool, err error) {
	return t.setWith(item, nil, splitBalanced)
}

// SetHint is Set with caller-owned search-position caching across
// repeated calls at nearby keys.
func (t *Tree[T]) SetHint(item T, hint *Hint) (prev T, replaced bool, err error) {
	return t.setWith(item, hint, splitBalanced)
}

// Load is the bulk-insert fast path: callers appending strictly
// ascending items (relative to the tree's current maximum) get O(1)
// amortized insertion per call instead of paying for a full rebalance
// walk every time. Items that are not both ascending and destined for
// the rightmost leaf transparently fall back to Set's general path, so
// Load is always safe to call, just not always fast.
func (t *Tree[T]) Load(item T) (prev T, replaced bool, err error) {
	if t.oom {
		var zero T
		return zero, false, errs.ErrTreeOutOfMemory.GenWithStackByArgs()
	}
	prev, replaced, err = t.load(item)
	if err != nil {
		t.setOOM()
		var zero T
		return zero, false, errs.ErrTreeOutOfMemory.GenWithStackByArgs()
	}
	return prev, replaced, nil
}

// Get looks up the item comparing equal to key.
func (t *Tree[T]) Get(key T) (item T, ok bool) {
	return t.GetHint(key, nil)
}

// GetHint is Get with caller-owned search-position caching.
func (t *Tree[T]) GetHint(key T, hint *Hint) (item T, ok bool) {
	n := t.root
	depth := 0
	for n != nil {
		i, found := search(n, t.cmp, key, hint, depth)
		if found {
			return n.get(i), true
		}
		if n.leaf {
			break
		}
		n = n.children[i]
		depth++
	}
	var zero T
	return zero, false
}

// Min returns the smallest item in the tree.
func (t *Tree[T]) Min() (item T, ok bool) {
	n := t.root
	if n == nil {
		var zero T
		return zero, false
	}
	for !n.leaf {
		n = n.children[0]
	}
	if n.nitems() == 0 {
		var zero T
		return zero, false
	}
	return n.get(0), true
}

// Max returns the largest item in the tree.
func (t *Tree[T]) Max() (item T, ok bool) {
	n := t.root
	if n == nil {
		var zero T
		return zero, false
	}
	for !n.leaf {
		n = n.children[n.nitems()]
	}
	if n.nitems() == 0 {
		var zero T
		return zero, false
	}
	return n.get(n.nitems() - 1), true
}

// deleteWith is the shared entry point for the pop/action families: it
// runs the recursive delete, collapses the root when it has gone
// empty (shrinking the tree's height by one, exactly as btree_delete0
// does), and updates the item count. err is non-nil only on the
// sticky OOM transition, mirroring setWith/Load's own reporting so a
// caller checking err need not also special-case ok==false as "empty."
func (t *Tree[T]) deleteWith(act toRemove, key T) (out T, ok bool, err error) {
	if t.root == nil {
		var zero T
		return zero, false, nil
	}
	if err := t.cowEnsure(&t.root); err != nil {
		t.setOOM()
		var zero T
		return zero, false, errs.ErrTreeOutOfMemory.GenWithStackByArgs()
	}
	out, res := t.root.delete(t, act, key, nil, 0)
	if res == resNoMemory {
		t.setOOM()
		var zero T
		return zero, false, errs.ErrTreeOutOfMemory.GenWithStackByArgs()
	}
	if res != resDeleted {
		var zero T
		return zero, false, nil
	}
	t.count--
	t.generation++
	if !t.root.leaf && t.root.nitems() == 0 {
		// old root's sole child is being promoted; old root carried no
		// items of its own so there is nothing to free and its one
		// child's ownership passes to t.root unchanged.
		t.root = t.root.children[0]
	}
	if t.root.nitems() == 0 && t.root.leaf {
		t.root = nil
	}
	return out, true, nil
}

// Delete removes the item comparing equal to key, if present.
func (t *Tree[T]) Delete(key T) (removed T, ok bool) {
	return t.DeleteHint(key, nil)
}

// DeleteHint is Delete with caller-owned search-position caching.
func (t *Tree[T]) DeleteHint(key T, hint *Hint) (removed T, ok bool) {
	if t.root == nil {
		var zero T
		return zero, false
	}
	if err := t.cowEnsure(&t.root); err != nil {
		t.setOOM()
		var zero T
		return zero, false
	}
	out, res := t.root.delete(t, removeKey, key, hint, 0)
	if res == resNoMemory {
		t.setOOM()
		var zero T
		return zero, false
	}
	if res != resDeleted {
		var zero T
		return zero, false
	}
	t.count--
	t.generation++
	if !t.root.leaf && t.root.nitems() == 0 {
		t.root = t.root.children[0]
	}
	if t.root != nil && t.root.nitems() == 0 && t.root.leaf {
		t.root = nil
	}
	return out, true
}

// PopMin removes and returns the smallest item.
func (t *Tree[T]) PopMin() (item T, ok bool, err error) {
	item, ok, err = t.fastPopFront()
	if err != nil {
		t.setOOM()
		var zero T
		return zero, false, errs.ErrTreeOutOfMemory.GenWithStackByArgs()
	}
	if ok {
		return item, true, nil
	}
	var zero T
	min, has := t.Min()
	if !has {
		return zero, false, nil
	}
	return t.deleteWith(removeFront, min)
}

// PopMax removes and returns the largest item.
func (t *Tree[T]) PopMax() (item T, ok bool, err error) {
	item, ok, err = t.fastPopBack()
	if err != nil {
		t.setOOM()
		var zero T
		return zero, false, errs.ErrTreeOutOfMemory.GenWithStackByArgs()
	}
	if ok {
		return item, true, nil
	}
	var zero T
	max, has := t.Max()
	if !has {
		return zero, false, nil
	}
	return t.deleteWith(removeBack, max)
}

// Clear empties the tree by dropping the root reference. Nodes this
// tree owns exclusively are released recursively (running the free
// hook over their items), so the cost is linear in their number; nodes
// still shared with some other Clone are left to that Clone.
func (t *Tree[T]) Clear() {
	if t.root != nil {
		t.root.drop(t)
	}
	t.root = nil
	t.count = 0
	t.generation++
}

// Ascend calls iter for every item >= pivot, in ascending order, until
// iter returns false or the tree is exhausted. A nil pivot starts from
// the smallest item.
func (t *Tree[T]) Ascend(pivot *T, iter IterFunc[T]) {
	t.AscendHint(pivot, nil, iter)
}

// AscendHint is Ascend with caller-owned search-position caching for
// locating pivot.
func (t *Tree[T]) AscendHint(pivot *T, hint *Hint, iter IterFunc[T]) {
	if t.root == nil {
		return
	}
	if pivot == nil {
		scan(t.root, iter)
		return
	}
	ascendFrom(t, t.root, *pivot, hint, 0, iter)
}

// Descend calls iter for every item <= pivot, in descending order,
// until iter returns false or the tree is exhausted. A nil pivot
// starts from the largest item.
func (t *Tree[T]) Descend(pivot *T, iter IterFunc[T]) {
	t.DescendHint(pivot, nil, iter)
}

// DescendHint is Descend with caller-owned search-position caching for
// locating pivot.
func (t *Tree[T]) DescendHint(pivot *T, hint *Hint, iter IterFunc[T]) {
	if t.root == nil {
		return
	}
	if pivot == nil {
		reverse(t.root, iter)
		return
	}
	descendFrom(t, t.root, *pivot, hint, 0, iter)
}

// ActionAscend walks from pivot (or the smallest item, if pivot is
// nil) in ascending order, applying fn to each item and acting on its
// verdict. See Action for the available verdicts and traverse.go for
// the pivot-restart protocol a mid-walk delete requires.
func (t *Tree[T]) ActionAscend(pivot *T, fn ActionFunc[T]) {
	actionWalk(t, true, pivot, fn)
}

// ActionDescend is ActionAscend walking in descending order.
func (t *Tree[T]) ActionDescend(pivot *T, fn ActionFunc[T]) {
	actionWalk(t, false, pivot, fn)
}
