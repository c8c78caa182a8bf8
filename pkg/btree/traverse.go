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

// IterFunc is the callback for read-only traversals. Returning false
// stops the walk early; the stop propagates out of the Ascend/Descend
// call that started it.
type IterFunc[T any] func(item T) bool

func scan[T any](n *node[T], iter IterFunc[T]) bool {
	if n.leaf {
		for _, it := range n.items {
			if !iter(it) {
				return false
			}
		}
		return true
	}
	for i, it := range n.items {
		if !scan(n.children[i], iter) {
			return false
		}
		if !iter(it) {
			return false
		}
	}
	return scan(n.children[n.nitems()], iter)
}

func reverse[T any](n *node[T], iter IterFunc[T]) bool {
	if n.leaf {
		for i := n.nitems() - 1; i >= 0; i-- {
			if !iter(n.get(i)) {
				return false
			}
		}
		return true
	}
	if !reverse(n.children[n.nitems()], iter) {
		return false
	}
	for i := n.nitems() - 1; i >= 0; i-- {
		if !iter(n.get(i)) {
			return false
		}
		if !reverse(n.children[i], iter) {
			return false
		}
	}
	return true
}

// ascendFrom walks everything >= pivot, in order.
func ascendFrom[T any](t *Tree[T], n *node[T], pivot T, hint *Hint, depth int, iter IterFunc[T]) bool {
	i, found := search(n, t.cmp, pivot, hint, depth)
	if !found && !n.leaf {
		if !ascendFrom(t, n.children[i], pivot, hint, depth+1, iter) {
			return false
		}
	}
	for ; i < n.nitems(); i++ {
		if !iter(n.get(i)) {
			return false
		}
		if !n.leaf {
			if !scan(n.children[i+1], iter) {
				return false
			}
		}
	}
	return true
}

// descendFrom walks everything <= pivot, in reverse order.
func descendFrom[T any](t *Tree[T], n *node[T], pivot T, hint *Hint, depth int, iter IterFunc[T]) bool {
	i, found := search(n, t.cmp, pivot, hint, depth)
	if !found {
		if !n.leaf {
			if !descendFrom(t, n.children[i], pivot, hint, depth+1, iter) {
				return false
			}
		}
		if i == 0 {
			return true
		}
		i--
	}
	for {
		if !iter(n.get(i)) {
			return false
		}
		if !n.leaf {
			if !reverse(n.children[i], iter) {
				return false
			}
		}
		if i == 0 {
			break
		}
		i--
	}
	return true
}

// Action is the action-iteration callback's verdict for the item it
// was just handed.
type Action int

const (
	// ActionNone continues the walk without modifying the tree.
	ActionNone Action = iota
	// ActionDelete removes the current item and continues.
	ActionDelete
	// ActionUpdate writes the (possibly edited) item back in place,
	// provided it still compares equal to the original under the
	// tree's comparator, and continues.
	ActionUpdate
	// ActionStop ends the walk immediately.
	ActionStop
)

// ActionFunc is the callback for action-iteration: it receives a
// mutable copy of the current item and returns what should happen to
// it.
type ActionFunc[T any] func(item *T) Action

// actionWalk drives ascend or descend action-iteration over the tree,
// restarting from a pivot whenever a mid-walk delete forces a
// rebalance that could invalidate the walk's position. Each restart
// strictly shrinks the tree, so the number of restarts is bounded by
// the item count (spec.md section 4.5, section 9).
func actionWalk[T any](t *Tree[T], ascending bool, pivot *T, fn ActionFunc[T]) {
	var havePivot bool
	var pivotVal T
	if pivot != nil {
		havePivot, pivotVal = true, *pivot
	}
	for {
		restartAt, didRestart := t.actionPass(ascending, havePivot, pivotVal, fn)
		if !didRestart {
			return
		}
		havePivot, pivotVal = true, restartAt
	}
}

// actionPass performs one full action-iteration pass. It returns
// (pivot, true) if a mid-walk delete forced a restart, or (_, false)
// if the pass ran to completion or the callback requested Stop.
func (t *Tree[T]) actionPass(ascending bool, havePivot bool, pivot T, fn ActionFunc[T]) (restartAt T, restart bool) {
	if t.root == nil {
		return restartAt, false
	}
	var walkErr error

	// visit returns, in addition to stop/restart, fastDeleted: true when
	// the delete was handled by shifting items within n directly rather
	// than by restarting the whole walk. An ascending caller must not
	// advance its index afterward -- shiftLeft has already slid the
	// next item down into the slot just visited.
	visit := func(n *node[T], i int) (stop, didRestart, fastDeleted bool, pivotOut T) {
		item := n.get(i)
		switch fn(&item) {
		case ActionNone:
			return false, false, false, pivotOut
		case ActionUpdate:
			if t.cmp(item, n.get(i)) == 0 {
				n.setItem(i, item)
				t.generation++
			}
			return false, false, false, pivotOut
		case ActionStop:
			return true, false, false, pivotOut
		case ActionDelete:
			key := n.get(i)
			if n.leaf && n.nitems() > t.minItems {
				n.shiftLeft(i, false)
				t.count--
				t.generation++
				return false, false, true, pivotOut
			}
			if _, _, err := t.deleteWith(removeKey, key); err != nil {
				walkErr = err
				return true, false, false, pivotOut
			}
			return false, true, false, key
		}
		return false, false, false, pivotOut
	}

	var stopped, restarted bool
	var restartKey T
	failed := func() bool { return walkErr != nil || stopped || restarted }

	if err := t.cowEnsure(&t.root); err != nil {
		t.setOOM()
		return restartAt, false
	}

	// full walks n's entire subtree with no pivot constraint, in the
	// traversal order scan/reverse use, applying visit at each item.
	var full func(n *node[T]) bool
	full = func(n *node[T]) bool {
		if ascending {
			i := 0
			for i < n.nitems() {
				if !n.leaf {
					if _, err := n.cowEnsureChild(t, i); err != nil {
						walkErr = err
						return false
					}
					if !full(n.children[i]) {
						return false
					}
					if failed() {
						return false
					}
				}
				stop, didRestart, fastDeleted, key := visit(n, i)
				if stop {
					stopped = true
					return false
				}
				if didRestart {
					restarted = true
					restartKey = key
					return false
				}
				if !fastDeleted {
					i++
				}
			}
			if !n.leaf {
				if _, err := n.cowEnsureChild(t, n.nitems()); err != nil {
					walkErr = err
					return false
				}
				if !full(n.children[n.nitems()]) {
					return false
				}
			}
			return true
		}
		// descending: rightmost subtree, then items and subtrees right
		// to left, matching reverse()'s order exactly.
		if !n.leaf {
			if _, err := n.cowEnsureChild(t, n.nitems()); err != nil {
				walkErr = err
				return false
			}
			if !full(n.children[n.nitems()]) {
				return false
			}
			if failed() {
				return false
			}
		}
		for i := n.nitems() - 1; i >= 0; i-- {
			stop, didRestart, _, key := visit(n, i)
			if stop {
				stopped = true
				return false
			}
			if didRestart {
				restarted = true
				restartKey = key
				return false
			}
			if !n.leaf {
				if _, err := n.cowEnsureChild(t, i); err != nil {
					walkErr = err
					return false
				}
				if !full(n.children[i]) {
					return false
				}
				if failed() {
					return false
				}
			}
		}
		return true
	}

	// fromPivot descends along the path to pivot, exactly as
	// ascendFrom/descendFrom do for the read-only traversals, switching
	// to an unconstrained full walk for every subtree once the pivot
	// boundary has been crossed.
	var fromPivot func(n *node[T], depth int) bool
	fromPivot = func(n *node[T], depth int) bool {
		i, found := search(n, t.cmp, pivot, nil, depth)
		if ascending {
			if !found && !n.leaf {
				if _, err := n.cowEnsureChild(t, i); err != nil {
					walkErr = err
					return false
				}
				if !fromPivot(n.children[i], depth+1) {
					return false
				}
				if failed() {
					return false
				}
			}
			for i < n.nitems() {
				stop, didRestart, fastDeleted, key := visit(n, i)
				if stop {
					stopped = true
					return false
				}
				if didRestart {
					restarted = true
					restartKey = key
					return false
				}
				if !n.leaf {
					if _, err := n.cowEnsureChild(t, i+1); err != nil {
						walkErr = err
						return false
					}
					if !full(n.children[i+1]) {
						return false
					}
					if failed() {
						return false
					}
				}
				if !fastDeleted {
					i++
				}
			}
			return true
		}
		// descending
		if !found {
			if !n.leaf {
				if _, err := n.cowEnsureChild(t, i); err != nil {
					walkErr = err
					return false
				}
				if !fromPivot(n.children[i], depth+1) {
					return false
				}
				if failed() {
					return false
				}
			}
			if i == 0 {
				return true
			}
			i--
		}
		for {
			stop, didRestart, _, key := visit(n, i)
			if stop {
				stopped = true
				return false
			}
			if didRestart {
				restarted = true
				restartKey = key
				return false
			}
			if !n.leaf {
				if _, err := n.cowEnsureChild(t, i); err != nil {
					walkErr = err
					return false
				}
				if !full(n.children[i]) {
					return false
				}
				if failed() {
					return false
				}
			}
			if i == 0 {
				break
			}
			i--
		}
		return true
	}

	if havePivot {
		fromPivot(t.root, 0)
	} else {
		full(t.root)
	}
	if walkErr != nil {
		t.setOOM()
		return restartAt, false
	}
	if restarted {
		return restartKey, true
	}
	return restartAt, false
}
