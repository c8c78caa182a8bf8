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

import "github.com/tikv/btree/pkg/errs"

// frame is one level of an Iter's descent: the node at that level and
// the index into it the iterator is currently positioned at.
type frame[T any] struct {
	n *node[T]
	i int
}

// Iter is a stateful, positional cursor over a Tree, grounded on the
// original library's btree_iter_t: a stack of (node, index) frames
// that can step forward or backward one item at a time without
// re-searching from the root each call, and that can re-seek to an
// arbitrary key in O(log n). An Iter captures the tree's generation
// when positioned; a Set/Delete/Load/Clear (or an action-walk edit) on
// the same Tree afterward invalidates it, since an exclusively-owned
// node is mutated in place rather than copied and the iterator's
// stack frames would otherwise silently observe the edit -- this is
// undefined behavior in the C original, which tracks no such
// generation. Next/Prev report false once invalidated; call Err to
// tell that apart from simple exhaustion. An Iter must not be shared
// across goroutines with concurrent writers to the same Tree without
// external synchronization.
type Iter[T any] struct {
	t       *Tree[T]
	stack   []frame[T]
	seeded  bool
	gen     uint64
	invalid bool
}

// NewIter returns an Iter positioned before the first item; call First,
// Last, or Seek before Item.
func (t *Tree[T]) NewIter() *Iter[T] {
	return &Iter[T]{t: t, stack: make([]frame[T], 0, 8)}
}

func (it *Iter[T]) reset() {
	it.stack = it.stack[:0]
	it.seeded = true
	it.gen = it.t.generation
	it.invalid = false
}

// Err reports the iterator-invalidated error if the tree the iterator
// was positioned against has since been mutated, and nil otherwise --
// including when a preceding Next/Prev simply reached the end.
func (it *Iter[T]) Err() error {
	if it.invalid {
		return errs.ErrIteratorInvalidated.GenWithStackByArgs()
	}
	return nil
}

// First positions the iterator at the smallest item.
func (it *Iter[T]) First() bool {
	it.reset()
	n := it.t.root
	if n == nil {
		return false
	}
	for {
		it.stack = append(it.stack, frame[T]{n: n, i: 0})
		if n.leaf {
			break
		}
		n = n.children[0]
	}
	return it.top().n.nitems() > 0
}

// Last positions the iterator at the largest item.
func (it *Iter[T]) Last() bool {
	it.reset()
	n := it.t.root
	if n == nil {
		return false
	}
	for {
		i := n.nitems()
		if n.leaf {
			i--
		}
		it.stack = append(it.stack, frame[T]{n: n, i: i})
		if n.leaf {
			break
		}
		n = n.children[i]
	}
	return it.top().i >= 0
}

// Seek positions the iterator at the smallest item >= key.
func (it *Iter[T]) Seek(key T) bool {
	it.reset()
	n := it.t.root
	for n != nil {
		i, found := bsearch(n.items, it.t.cmp, key)
		it.stack = append(it.stack, frame[T]{n: n, i: i})
		if found {
			return true
		}
		if n.leaf {
			break
		}
		n = n.children[i]
	}
	return it.fixAfterSeek()
}

// fixAfterSeek repairs the stack after a Seek lands on an
// index past the end of a leaf (key is greater than everything in that
// leaf): it pops back up to the nearest ancestor whose frame index,
// the child it descended into, still names an item -- the separator
// to the right of that child, which is the next greater item.
func (it *Iter[T]) fixAfterSeek() bool {
	for len(it.stack) > 0 {
		top := it.top()
		if top.i < top.n.nitems() {
			return true
		}
		it.stack = it.stack[:len(it.stack)-1]
	}
	return false
}

func (it *Iter[T]) top() frame[T] { return it.stack[len(it.stack)-1] }

// Item returns the item at the iterator's current position. Valid
// only after a First/Last/Seek/Next/Prev call returned true.
func (it *Iter[T]) Item() T {
	f := it.top()
	return f.n.get(f.i)
}

// Next advances the iterator to the next item in ascending order,
// reporting whether one exists.
func (it *Iter[T]) Next() bool {
	if len(it.stack) == 0 {
		return it.First()
	}
	if it.t.generation != it.gen {
		it.invalid = true
		it.stack = it.stack[:0]
		return false
	}
	top := &it.stack[len(it.stack)-1]
	if !top.n.leaf {
		// The item at the current index was already returned; advance
		// past it before descending into the subtree to its right, so
		// a later pop back to this frame lands on the next item
		// instead of re-returning this one.
		top.i++
		n := top.n.children[top.i]
		for {
			it.stack = append(it.stack, frame[T]{n: n, i: 0})
			if n.leaf {
				break
			}
			n = n.children[0]
		}
		return it.top().n.nitems() > 0
	}
	top.i++
	for top.i >= top.n.nitems() {
		it.stack = it.stack[:len(it.stack)-1]
		if len(it.stack) == 0 {
			return false
		}
		top = &it.stack[len(it.stack)-1]
	}
	return true
}

// Prev moves the iterator to the previous item in ascending order
// (i.e. the next item in descending order), reporting whether one
// exists.
func (it *Iter[T]) Prev() bool {
	if len(it.stack) == 0 {
		return it.Last()
	}
	if it.t.generation != it.gen {
		it.invalid = true
		it.stack = it.stack[:0]
		return false
	}
	top := &it.stack[len(it.stack)-1]
	if !top.n.leaf {
		n := top.n.children[top.i]
		for {
			i := n.nitems()
			if n.leaf {
				i--
			}
			it.stack = append(it.stack, frame[T]{n: n, i: i})
			if n.leaf {
				break
			}
			n = n.children[i]
		}
		return it.top().i >= 0
	}
	top.i--
	for top.i < 0 {
		it.stack = it.stack[:len(it.stack)-1]
		if len(it.stack) == 0 {
			return false
		}
		top = &it.stack[len(it.stack)-1]
		top.i--
	}
	return true
}
