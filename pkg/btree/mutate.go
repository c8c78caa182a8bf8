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

import "go.uber.org/zap"

// mutResult is the shared result enum for the recursive set/delete/pop
// machinery.
type mutResult int

const (
	resNoChange mutResult = iota
	resInserted
	resReplaced
	resMustSplit
	resDeleted
	resNoMemory
)

// splitKind selects which of the two split policies a call uses.
// Set and Delete's internal rebalancing always use balanced splits;
// Load and its generic-set fallback use lean-left splits so that an
// ascending bulk load fills every leaf to maxItems-minItems instead of
// maxItems/2 (spec.md section 4.3, section 9 "do not unify them").
type splitKind int

const (
	splitBalanced splitKind = iota
	splitLeanLeft
)

func splitPivot(maxItems, minItems int, kind splitKind) int {
	if kind == splitLeanLeft {
		return maxItems - minItems - 1
	}
	return maxItems / 2
}

// splitChild splits n.children[i] in place, promoting the median into
// n at position i and planting the new right sibling at i+1. The
// caller does not open a slot in n first: the shiftRight that makes
// room for the median happens here.
func (n *node[T]) splitChild(t *Tree[T], i int, kind splitKind) error {
	child := n.children[i]
	mid := splitPivot(t.maxItems, t.minItems, kind)
	median, right, err := child.split(mid, t.alloc)
	if err != nil {
		return err
	}
	n.shiftRight(i)
	n.setItem(i, median)
	n.children[i+1] = right
	if kind == splitLeanLeft {
		t.metrics.splitsLeanLeft.Inc()
	} else {
		t.metrics.splitsBalanced.Inc()
	}
	t.logger().Debug("btree: split child",
		zap.Int("index", i), zap.Bool("lean_left", kind == splitLeanLeft),
		zapItem("median", median))
	return nil
}

// set is the Mutation Core's recursive insert/replace, exactly as
// spec.md section 4.3 describes it: search this node; if full leaf,
// signal MustSplit upward; otherwise recurse into the COW-ensured
// child, and on a child MustSplit, split it here with kind's policy (or
// propagate MustSplit further up if this node is itself full) and retry
// at the same depth.
func (n *node[T]) set(t *Tree[T], item T, hint *Hint, depth int, kind splitKind) (prev T, res mutResult) {
	for {
		i, found := search(n, t.cmp, item, hint, depth)
		if found {
			prev = n.swap(i, item)
			return prev, resReplaced
		}
		if n.leaf {
			if n.nitems() == t.maxItems {
				var zero T
				return zero, resMustSplit
			}
			n.shiftRight(i)
			n.setItem(i, item)
			return prev, resInserted
		}
		child, err := n.cowEnsureChild(t, i)
		if err != nil {
			var zero T
			return zero, resNoMemory
		}
		cprev, cres := child.set(t, item, hint, depth+1, kind)
		switch cres {
		case resInserted, resReplaced, resNoMemory:
			return cprev, cres
		}
		if n.nitems() == t.maxItems {
			var zero T
			return zero, resMustSplit
		}
		if err := n.splitChild(t, i, kind); err != nil {
			var zero T
			return zero, resNoMemory
		}
		// Loop again at this node/depth: the item now belongs in one
		// of the two freshly split children.
	}
}

// toRemove selects which item a delete call targets.
type toRemove int

const (
	removeKey toRemove = iota
	removeFront
	removeBack
	removeMax
)

// delete is the Mutation Core's recursive delete/pop, grounded on the
// original btree_node_delete: locate the target (by key, or
// structurally for the pop variants), remove it directly in a leaf,
// or -- in a branch -- copy it out, recurse PopMax down the
// predecessor subtree to refill the vacated slot, and rebalance the
// child that shrank.
func (n *node[T]) delete(t *Tree[T], act toRemove, key T, hint *Hint, depth int) (out T, res mutResult) {
	var i int
	var found bool
	switch act {
	case removeKey:
		i, found = search(n, t.cmp, key, hint, depth)
	case removeMax:
		i, found = n.nitems()-1, true
	case removeFront:
		i, found = 0, n.leaf
	case removeBack:
		if n.leaf {
			i, found = n.nitems()-1, true
		} else {
			i, found = n.nitems(), false
		}
	}

	if n.leaf {
		if found {
			out = n.get(i)
			n.shiftLeft(i, false)
			return out, resDeleted
		}
		var zero T
		return zero, resNoChange
	}

	var cres mutResult
	if found {
		if act == removeMax {
			i++
			if _, err := n.cowEnsureChild(t, i); err != nil {
				var zero T
				return zero, resNoMemory
			}
			if _, err := n.cowEnsureChild(t, neighborIndex(i, n.nitems())); err != nil {
				var zero T
				return zero, resNoMemory
			}
			var popped T
			popped, cres = n.children[i].delete(t, removeMax, key, hint, depth+1)
			if cres == resNoMemory {
				var zero T
				return zero, resNoMemory
			}
			out = popped
			cres = resDeleted
		} else {
			out = n.get(i)
			if _, err := n.cowEnsureChild(t, i); err != nil {
				var zero T
				return zero, resNoMemory
			}
			if _, err := n.cowEnsureChild(t, neighborIndex(i, n.nitems())); err != nil {
				var zero T
				return zero, resNoMemory
			}
			var zeroKey T
			predecessor, pres := n.children[i].delete(t, removeMax, zeroKey, hint, depth+1)
			if pres == resNoMemory {
				var zero T
				return zero, resNoMemory
			}
			n.setItem(i, predecessor)
			cres = resDeleted
		}
	} else {
		if _, err := n.cowEnsureChild(t, i); err != nil {
			var zero T
			return zero, resNoMemory
		}
		if _, err := n.cowEnsureChild(t, neighborIndex(i, n.nitems())); err != nil {
			var zero T
			return zero, resNoMemory
		}
		out, cres = n.children[i].delete(t, act, key, hint, depth+1)
	}
	if cres != resDeleted {
		return out, cres
	}
	if n.children[i].nitems() < t.minItems {
		n.rebalance(t, i)
	}
	return out, resDeleted
}

// neighborIndex returns the sibling index rebalance will pair with
// children[i]: i+1 unless i is the last child, in which case i-1.
func neighborIndex(i, nitems int) int {
	if i < nitems {
		return i + 1
	}
	return i - 1
}

// rebalance restores children[i]'s minimum-occupancy invariant after a
// delete shrank it, by merging it with a neighbor or stealing one item
// from whichever neighbor has one to spare. Grounded on
// btree_node_rebalance.
func (n *node[T]) rebalance(t *Tree[T], i int) {
	if i == n.nitems() {
		i--
	}
	left, right := n.children[i], n.children[i+1]

	switch {
	case left.nitems()+right.nitems() < t.maxItems:
		left.items = append(left.items, n.get(i))
		// right's items and children are transplanted into left by
		// join, not duplicated, so right is discarded as a bare node
		// shell: no item-free call and no child rc adjustment, since
		// ownership of its children passes to left unchanged. right's
		// own rc is guaranteed 0 here -- it was COW-ensured by the
		// caller just like left -- so there is nobody else to notify.
		left.join(right)
		n.shiftLeft(i, true)
		t.metrics.merges.Inc()
		t.metrics.nodesFreed.Inc()
		t.logger().Debug("btree: merge children", zap.Int("index", i))
	case left.nitems() > right.nitems():
		right.shiftRight(0)
		right.setItem(0, n.get(i))
		if !left.leaf {
			right.children[0] = left.children[left.nitems()]
		}
		n.setItem(i, left.get(left.nitems()-1))
		if !left.leaf {
			left.children[left.nitems()] = nil
			left.children = left.children[:left.nitems()]
		}
		left.items = left.items[:left.nitems()-1]
		t.metrics.rotations.Inc()
		t.logger().Debug("btree: rotate", zap.Int("index", i), zap.String("direction", "left_to_right"))
	default:
		left.items = append(left.items, n.get(i))
		if !left.leaf {
			left.children = append(left.children, right.children[0])
		}
		n.setItem(i, right.get(0))
		right.shiftLeft(0, false)
		t.metrics.rotations.Inc()
		t.logger().Debug("btree: rotate", zap.Int("index", i), zap.String("direction", "right_to_left"))
	}
}

// fastPopFront/fastPopBack implement the dedicated descent spec.md
// section 4.3 describes: walk straight down the first/last-child spine
// while the target leaf still has slack above minItems, and remove in
// place without ever invoking the general rebalance machinery. They
// fall back to the generic delete path as soon as the leaf they land
// on would drop below minItems.
func (t *Tree[T]) fastPopFront() (item T, ok bool, err error) {
	return t.fastPop(true)
}

func (t *Tree[T]) fastPopBack() (item T, ok bool, err error) {
	return t.fastPop(false)
}

func (t *Tree[T]) fastPop(front bool) (item T, ok bool, err error) {
	if t.root == nil {
		return item, false, nil
	}
	if err := t.cowEnsure(&t.root); err != nil {
		return item, false, err
	}
	n := t.root
	for {
		if n.leaf {
			if n.nitems() <= t.minItems {
				return item, false, nil
			}
			if front {
				item = n.get(0)
				n.shiftLeft(0, false)
			} else {
				item = n.get(n.nitems() - 1)
				n.items = n.items[:n.nitems()-1]
			}
			t.count--
			t.generation++
			return item, true, nil
		}
		idx := 0
		if !front {
			idx = n.nitems()
		}
		child, cerr := n.cowEnsureChild(t, idx)
		if cerr != nil {
			return item, false, cerr
		}
		n = child
	}
}

// load implements the bulk-append fast path: walk the rightmost spine,
// COW-ensuring as we go, and if the rightmost leaf has room and the new
// item is strictly greater than its current tail, append in place.
// Anything else -- a full leaf, an item that is not strictly greater,
// an empty tree -- falls back to the generic set using a lean-left
// split.
func (t *Tree[T]) load(item T) (prev T, replaced bool, err error) {
	if t.root == nil {
		return t.setWith(item, nil, splitLeanLeft)
	}
	if err := t.cowEnsure(&t.root); err != nil {
		var zero T
		return zero, false, err
	}
	n := t.root
	for {
		if n.leaf {
			if n.nitems() == t.maxItems {
				break
			}
			last := n.get(n.nitems() - 1)
			if t.cmp(item, last) <= 0 {
				break
			}
			n.items = append(n.items, item)
			t.count++
			t.generation++
			var zero T
			return zero, false, nil
		}
		child, cerr := n.cowEnsureChild(t, n.nitems())
		if cerr != nil {
			var zero T
			return zero, false, cerr
		}
		n = child
	}
	return t.setWith(item, nil, splitLeanLeft)
}
