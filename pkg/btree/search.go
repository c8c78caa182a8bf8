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

// CompareFunc is a three-way total-order comparator: negative if a < b,
// zero if a and b are key-equivalent, positive if a > b. Two items
// compare equal iff they are key-equivalent, in which case Set
// overwrites in place.
type CompareFunc[T any] func(a, b T) int

// Hint is an 8-byte, caller-owned scratch value caching the last search
// index observed at each of the first 8 depths of the tree. The zero
// Hint is always safe to pass; hints only ever accelerate a search,
// never change its result. Depths at or past 8 fall back to plain
// bisection -- this bound is a deliberate property of the format, not
// an oversight, and must not be widened (spec.md section 9).
type Hint [8]uint8

// bsearch is the unhinted binary search: it returns the position of key
// within items and whether it was found there.
func bsearch[T any](items []T, cmp CompareFunc[T], key T) (index int, found bool) {
	lo, hi := 0, len(items)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		c := cmp(key, items[mid])
		switch {
		case c == 0:
			return mid, true
		case c < 0:
			hi = mid
		default:
			lo = mid + 1
		}
	}
	return lo, false
}

// bsearchHint is the hinted variant: at depths under 8 it first probes
// the index cached from the previous search at that depth, uses the
// probe to prune one side of the range, and writes the winning index
// back into the hint on return.
func bsearchHint[T any](items []T, cmp CompareFunc[T], key T, hint *Hint, depth int) (index int, found bool) {
	if hint == nil || depth >= len(hint) {
		return bsearch(items, cmp, key)
	}
	n := len(items)
	lo, hi := 0, n-1
	if idx := int(hint[depth]); idx > 0 {
		if idx > n-1 {
			idx = n - 1
		}
		c := cmp(key, items[idx])
		switch {
		case c == 0:
			hint[depth] = uint8(idx)
			return idx, true
		case c > 0:
			lo = idx + 1
		default:
			hi = idx - 1
		}
	}
	for lo <= hi {
		mid := int(uint(lo+hi) >> 1)
		c := cmp(key, items[mid])
		switch {
		case c == 0:
			hint[depth] = uint8(mid)
			return mid, true
		case c < 0:
			hi = mid - 1
		default:
			lo = mid + 1
		}
	}
	hint[depth] = uint8(lo)
	return lo, false
}

// search dispatches to the hinted or unhinted bisection depending on
// whether a hint was supplied for this call.
func search[T any](n *node[T], cmp CompareFunc[T], key T, hint *Hint, depth int) (index int, found bool) {
	if hint == nil {
		return bsearch(n.items, cmp, key)
	}
	return bsearchHint(n.items, cmp, key, hint, depth)
}
