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

import "sync/atomic"

// node is either a leaf or a branch. Branches carry one more child than
// item; leaves carry no children at all. A node's rc counts references
// held on it beyond the implicit one from whichever single parent slot
// (or Tree.root field) currently points at it: rc == 0 means the node is
// exclusively owned by that slot and may be mutated in place, rc > 0
// means it is shared with at least one other tree produced by Clone and
// must be copied before any write (see cow.go).
type node[T any] struct {
	rc       atomic.Int32
	leaf     bool
	items    []T
	children []*node[T]
}

func newLeaf[T any](maxItems int) *node[T] {
	return &node[T]{leaf: true, items: make([]T, 0, maxItems)}
}

func newBranch[T any](maxItems int) *node[T] {
	return &node[T]{
		leaf:     false,
		items:    make([]T, 0, maxItems),
		children: make([]*node[T], 0, maxItems+1),
	}
}

func newNode[T any](leaf bool, maxItems int) *node[T] {
	if leaf {
		return newLeaf[T](maxItems)
	}
	return newBranch[T](maxItems)
}

func (n *node[T]) nitems() int { return len(n.items) }

// get returns the item stored at index i.
func (n *node[T]) get(i int) T { return n.items[i] }

// setItem overwrites the item stored at index i.
func (n *node[T]) setItem(i int, item T) { n.items[i] = item }

// swap stores item at index i and returns the value that was there.
func (n *node[T]) swap(i int, item T) T {
	prev := n.items[i]
	n.items[i] = item
	return prev
}

// shiftRight opens a slot at index i, sliding items (and, for a branch,
// child pointers) up by one, and grows nitems by one. The caller fills
// the opened item slot (and, if a branch, the child slot at i+1)
// afterwards.
func (n *node[T]) shiftRight(i int) {
	var zero T
	n.items = append(n.items, zero)
	copy(n.items[i+1:], n.items[i:len(n.items)-1])
	if !n.leaf {
		n.children = append(n.children, nil)
		copy(n.children[i+1:], n.children[i:len(n.children)-1])
	}
}

// shiftLeft removes the item at index i, sliding subsequent items (and
// child pointers) down by one. When forMerge is true the *right* child
// at i+1 is dropped instead of the left one at i, matching the
// post-merge bookkeeping the parent needs once (left, sep, right) has
// been folded into left.
func (n *node[T]) shiftLeft(i int, forMerge bool) {
	copy(n.items[i:], n.items[i+1:])
	var zero T
	n.items[len(n.items)-1] = zero
	n.items = n.items[:len(n.items)-1]
	if !n.leaf {
		ci := i
		if forMerge {
			ci = i + 1
		}
		copy(n.children[ci:], n.children[ci+1:])
		n.children[len(n.children)-1] = nil
		n.children = n.children[:len(n.children)-1]
	}
}

// join appends right's items and children onto left. The parent
// separator that used to sit between left and right is not copied here;
// the caller stages it into left before calling join.
func (n *node[T]) join(right *node[T]) {
	n.items = append(n.items, right.items...)
	if !n.leaf {
		n.children = append(n.children, right.children...)
	}
}

// split cuts n at index mid: the item at mid is promoted out (returned),
// everything left of it stays in n, and a fresh right sibling receives
// everything to its right.
func (n *node[T]) split(mid int, alloc allocator[T]) (median T, right *node[T], err error) {
	right, err = alloc.newNode(n.leaf)
	if err != nil {
		var zero T
		return zero, nil, err
	}
	median = n.items[mid]
	right.items = append(right.items, n.items[mid+1:]...)
	n.items = n.items[:mid]
	if !n.leaf {
		right.children = append(right.children, n.children[mid+1:]...)
		n.children = n.children[:mid+1]
	}
	return median, right, nil
}
