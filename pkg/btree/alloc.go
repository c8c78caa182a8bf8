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

import "errors"

// ErrOOM is the error an Allocator returns to signal it could not
// produce a node. Any error from the Allocator puts the tree into its
// sticky OOM state (see Tree.OOM), as does an error from a WithClone
// hook during copy-on-write; the core never allocates nodes through any
// other path, so a test double can drive the exhaustive OOM tests in
// spec.md section 7/section 8 by returning ErrOOM after N calls.
var ErrOOM = errors.New("btree: out of memory")

// Allocator is the injectable replacement for the C original's
// three-function {alloc, realloc, free} vtable (spec.md section 1
// declares the allocator an external collaborator, out of the core's
// scope). realloc has no Go analogue -- growth is handled by append --
// and free has no Go analogue either, since the garbage collector
// reclaims a node's backing arrays once the last *node[T] reference
// drops; NewNode is therefore the only method a Go allocator needs.
type Allocator[T any] interface {
	// NewNode returns a zeroed node with capacity for maxItems items
	// (and, for a branch, maxItems+1 children), or ErrOOM.
	NewNode(leaf bool, maxItems int) (*node[T], error)
}

// defaultAllocator allocates nodes directly from the Go heap and never
// fails; it is the allocator every Tree uses unless WithAllocator is
// supplied.
type defaultAllocator[T any] struct{}

func (defaultAllocator[T]) NewNode(leaf bool, maxItems int) (*node[T], error) {
	return newNode[T](leaf, maxItems), nil
}

// allocator binds an Allocator to a tree's configured maxItems so
// internal call sites don't have to thread the item cap through every
// call.
type allocator[T any] struct {
	a        Allocator[T]
	maxItems int
}

func (al allocator[T]) newNode(leaf bool) (*node[T], error) {
	return al.a.NewNode(leaf, al.maxItems)
}
