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

// options collects the values the functional Option arguments feed
// into New, before degree normalization and metrics registration run.
type options[T any] struct {
	name        string
	maxItems    int
	degreeGiven bool
	alloc       Allocator[T]
	clone       func(T) (T, error)
	free        func(T)
	logger      *zap.Logger
}

// Option configures a Tree at construction time: a closure over the
// options struct, applied in order, so later options win on
// conflicting fields.
type Option[T any] func(*options[T])

// WithMaxItems sets the maximum item count per node directly. It is
// equivalent to the original library's degree parameter except
// expressed as max_items = 2*degree-1, matching spec.md section 1's
// "max_items/degree" framing; degree 0 (maxItems below 2) normalizes to
// the library default of 255 (degree 128) and degree 1 (maxItems 2 or
// 3) is raised to degree 2, exactly as btree_new_with_allocator does.
func WithMaxItems[T any](maxItems int) Option[T] {
	return func(o *options[T]) { o.maxItems = maxItems }
}

// WithDegree sets the node fan-out in terms of B-tree degree rather
// than raw item count: max_items = 2*degree-1, with the same degree-0
// (library default) and degree-1 (minimum fan-out, degree 2) special
// cases btree_new_with_allocator applies. Unlike WithMaxItems, the
// result is already final and is not run back through the max-items
// degree derivation a second time.
func WithDegree[T any](degree int) Option[T] {
	return func(o *options[T]) {
		o.degreeGiven = true
		d := degree
		switch {
		case d <= 0:
			d = 128 // matches defaultMaxItems = 2*128-1 = 255
		case d == 1:
			d = 2
		}
		o.maxItems = 2*d - 1
		if o.maxItems > maxMaxItemsCap {
			o.maxItems = maxMaxItemsCap
		}
	}
}

// WithAllocator installs a custom node Allocator, letting tests force
// the sticky OOM path deterministically or letting callers pool nodes
// outside the Go garbage collector's view.
func WithAllocator[T any](a Allocator[T]) Option[T] {
	return func(o *options[T]) { o.alloc = a }
}

// WithClone installs the item clone hook copy-on-write uses whenever a
// shared node must be duplicated. Needed only when T itself holds
// pointers or slices that must not be aliased across a Clone boundary;
// a T that is a plain value type never needs one.
func WithClone[T any](clone func(T) (T, error)) Option[T] {
	return func(o *options[T]) { o.clone = clone }
}

// WithFree installs the item release hook, invoked once per item when
// a node's refcount drops to zero and it is genuinely reclaimed. Pairs
// with WithClone for item types holding externally-managed resources.
func WithFree[T any](free func(T)) Option[T] {
	return func(o *options[T]) { o.free = free }
}

// WithName labels this tree's Prometheus series and log fields. Trees
// left unnamed all share the "default" label.
func WithName[T any](name string) Option[T] {
	return func(o *options[T]) { o.name = name }
}

// WithLogger overrides the package-level logger for this tree alone.
func WithLogger[T any](logger *zap.Logger) Option[T] {
	return func(o *options[T]) { o.logger = logger }
}
