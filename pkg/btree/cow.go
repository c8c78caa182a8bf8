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

// cowEnsure guarantees that *ref is safe to mutate in place. If the
// node it points at is shared (rc > 0), it is replaced with a private
// deep copy and the old reference is dropped; the drop can never itself
// free the node here, since rc > 0 on entry means some other tree still
// holds it. If the node is already exclusively owned (rc == 0) this is
// a no-op.
func (t *Tree[T]) cowEnsure(ref **node[T]) error {
	n := *ref
	if n.rc.Load() <= 0 {
		return nil
	}
	cp, err := n.deepCopy(t)
	if err != nil {
		return err
	}
	n.drop(t)
	*ref = cp
	t.metrics.cowCopies.Inc()
	return nil
}

// cowEnsureChild is cowEnsure specialized for branch children, since
// mutating a child always goes through its parent's slice slot.
func (n *node[T]) cowEnsureChild(t *Tree[T], i int) (*node[T], error) {
	if err := t.cowEnsure(&n.children[i]); err != nil {
		return nil, err
	}
	return n.children[i], nil
}

// deepCopy allocates a fresh node with the same shape as n. Items are
// copied by value, running them through the clone hook when one is
// installed so heap-backed item fields are duplicated rather than
// aliased; on a clone failure partway through, everything cloned so far
// is unwound (freed items, released child rc bumps) before returning
// the error. Children are not copied -- their pointers are shared and
// their rc is bumped by one, which is what makes Clone O(1) and what
// keeps unmodified subtrees shared across snapshots.
func (n *node[T]) deepCopy(t *Tree[T]) (*node[T], error) {
	cp, err := t.alloc.newNode(n.leaf)
	if err != nil {
		return nil, err
	}
	if !n.leaf {
		cp.children = append(cp.children, n.children...)
		for _, c := range cp.children {
			c.rc.Add(1)
		}
	}
	if t.clone == nil {
		cp.items = append(cp.items, n.items...)
		return cp, nil
	}
	for _, it := range n.items {
		cloned, err := t.clone(it)
		if err != nil {
			if t.free != nil {
				for _, done := range cp.items {
					t.free(done)
				}
			}
			if !cp.leaf {
				for _, c := range cp.children {
					c.rc.Add(-1)
				}
			}
			return nil, err
		}
		cp.items = append(cp.items, cloned)
	}
	return cp, nil
}

// drop releases this tree's reference to n. If n was exclusively owned
// (rc observed as 0 immediately before this release), it is genuinely
// gone: its children are dropped in turn and the item-free hook, if
// any, runs over its items. Otherwise some other tree still shares n
// and it is left untouched.
func (n *node[T]) drop(t *Tree[T]) {
	prior := n.rc.Add(-1) + 1
	if prior != 0 {
		return
	}
	if !n.leaf {
		for _, c := range n.children {
			c.drop(t)
		}
	}
	if t.free != nil {
		for _, it := range n.items {
			t.free(it)
		}
	}
	t.metrics.nodesFreed.Inc()
}
