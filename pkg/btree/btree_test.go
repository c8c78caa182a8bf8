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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// perm returns a random permutation of [0, n).
func perm(n int) []int {
	out := make([]int, n)
	for i, v := range rand.Perm(n) {
		out[i] = v
	}
	return out
}

// rang returns [0, n) in ascending order.
func rang(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func ascendAll(t *Tree[int]) []int {
	var out []int
	t.Ascend(nil, func(v int) bool {
		out = append(out, v)
		return true
	})
	return out
}

func descendAll(t *Tree[int]) []int {
	var out []int
	t.Descend(nil, func(v int) bool {
		out = append(out, v)
		return true
	})
	return out
}

func TestSetGetAscend(t *testing.T) {
	re := require.New(t)
	tr, err := New[int](cmpInt)
	re.NoError(err)

	const n = 1000
	for _, v := range perm(n) {
		_, replaced, err := tr.Set(v)
		re.NoError(err)
		re.False(replaced)
	}
	re.Equal(n, tr.Len())
	re.Equal(rang(n), ascendAll(tr))
	re.Equal(rang(n), sortedReverse(descendAll(tr)))

	for _, v := range perm(n) {
		got, ok := tr.Get(v)
		re.True(ok)
		re.Equal(v, got)
	}
	_, ok := tr.Get(n + 1)
	re.False(ok)
}

func TestAscendDescendHintFromPivot(t *testing.T) {
	re := require.New(t)
	tr, err := New[int](cmpInt)
	re.NoError(err)

	const n = 500
	for _, v := range perm(n) {
		_, _, err := tr.Set(v)
		re.NoError(err)
	}

	var hint Hint
	pivot := 250
	var got []int
	tr.AscendHint(&pivot, &hint, func(v int) bool {
		got = append(got, v)
		return true
	})
	re.Equal(rang(n)[250:], got)

	got = nil
	tr.DescendHint(&pivot, &hint, func(v int) bool {
		got = append(got, v)
		return true
	})
	re.Equal(sortedReverse(rang(n)[:251]), got)
}

func sortedReverse(in []int) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

func TestSetReplace(t *testing.T) {
	re := require.New(t)
	tr, err := New[int](cmpInt)
	re.NoError(err)

	_, replaced, err := tr.Set(5)
	re.NoError(err)
	re.False(replaced)

	prev, replaced, err := tr.Set(5)
	re.NoError(err)
	re.True(replaced)
	re.Equal(5, prev)
	re.Equal(1, tr.Len())
}

func TestDelete(t *testing.T) {
	re := require.New(t)
	tr, err := New[int](cmpInt)
	re.NoError(err)

	const n = 500
	for _, v := range perm(n) {
		_, _, err := tr.Set(v)
		re.NoError(err)
	}
	for _, v := range perm(n) {
		removed, ok := tr.Delete(v)
		re.True(ok)
		re.Equal(v, removed)
	}
	re.Equal(0, tr.Len())
	re.Nil(tr.root)

	_, ok := tr.Delete(0)
	re.False(ok)
}

func TestMinMax(t *testing.T) {
	re := require.New(t)
	tr, err := New[int](cmpInt)
	re.NoError(err)

	_, ok := tr.Min()
	re.False(ok)
	_, ok = tr.Max()
	re.False(ok)

	for _, v := range perm(200) {
		_, _, err := tr.Set(v)
		re.NoError(err)
	}
	min, ok := tr.Min()
	re.True(ok)
	re.Equal(0, min)
	max, ok := tr.Max()
	re.True(ok)
	re.Equal(199, max)
}

func TestPopMinPopMax(t *testing.T) {
	re := require.New(t)
	tr, err := New[int](cmpInt)
	re.NoError(err)

	const n = 300
	for _, v := range rang(n) {
		_, _, err := tr.Load(v)
		re.NoError(err)
	}

	var got []int
	for {
		v, ok, err := tr.PopMin()
		re.NoError(err)
		if !ok {
			break
		}
		got = append(got, v)
	}
	re.Equal(rang(n), got)
	re.Equal(0, tr.Len())

	for _, v := range rang(n) {
		_, _, err := tr.Load(v)
		re.NoError(err)
	}
	got = nil
	for {
		v, ok, err := tr.PopMax()
		re.NoError(err)
		if !ok {
			break
		}
		got = append(got, v)
	}
	re.Equal(sortedReverse(rang(n)), got)
}

func TestLoadAscendingFastPath(t *testing.T) {
	re := require.New(t)
	tr, err := New[int](cmpInt)
	re.NoError(err)

	const n = 2000
	for _, v := range rang(n) {
		_, replaced, err := tr.Load(v)
		re.NoError(err)
		re.False(replaced)
	}
	re.Equal(n, tr.Len())
	re.Equal(rang(n), ascendAll(tr))
}

func TestLoadOutOfOrderFallsBack(t *testing.T) {
	re := require.New(t)
	tr, err := New[int](cmpInt)
	re.NoError(err)

	const n = 500
	for _, v := range perm(n) {
		_, _, err := tr.Load(v)
		re.NoError(err)
	}
	re.Equal(n, tr.Len())
	re.Equal(rang(n), ascendAll(tr))
}

func TestClone(t *testing.T) {
	re := require.New(t)
	tr, err := New[int](cmpInt)
	re.NoError(err)

	for _, v := range rang(500) {
		_, _, err := tr.Set(v)
		re.NoError(err)
	}

	clone := tr.Clone()
	re.Equal(tr.Len(), clone.Len())
	re.Equal(ascendAll(tr), ascendAll(clone))

	// Mutating the clone must not affect the original.
	_, _, err = clone.Set(10000)
	re.NoError(err)
	re.Equal(501, clone.Len())
	re.Equal(500, tr.Len())
	_, ok := tr.Get(10000)
	re.False(ok)

	// Mutating the original must not affect the clone.
	_, ok = tr.Delete(0)
	re.True(ok)
	re.Equal(499, tr.Len())
	_, ok = clone.Get(0)
	re.True(ok)
}

func TestCloneLineageTracksSnapshots(t *testing.T) {
	re := require.New(t)
	tr, err := New[int](cmpInt)
	re.NoError(err)
	re.Equal(1, tr.LiveSnapshots())

	c1 := tr.Clone()
	c2 := c1.Clone()
	_ = c2
	re.Equal(3, tr.LiveSnapshots())
	re.Equal(3, c1.LiveSnapshots())
}

func TestHeightGrowsWithSplits(t *testing.T) {
	re := require.New(t)
	tr, err := New[int](cmpInt, WithDegree[int](2)) // max_items = 3
	re.NoError(err)
	re.Equal(0, tr.Height())

	for _, v := range rang(100) {
		_, _, err := tr.Set(v)
		re.NoError(err)
	}
	re.Greater(tr.Height(), 1)
	re.Equal(rang(100), ascendAll(tr))
}

func TestNormalizeMaxItems(t *testing.T) {
	re := require.New(t)
	tr, err := New[int](cmpInt)
	re.NoError(err)
	re.Equal(defaultMaxItems, tr.maxItems)
	// Pinned to the literal spec.md section 3 and btree_new_with_allocator
	// both name (default degree 128, max_items 255), so a future edit
	// that changes defaultMaxItems without meaning to can't silently
	// stay self-consistent.
	re.Equal(255, tr.maxItems)

	small, err := New[int](cmpInt, WithDegree[int](1))
	re.NoError(err)
	re.Equal(3, small.maxItems)

	zero, err := New[int](cmpInt, WithDegree[int](0))
	re.NoError(err)
	re.Equal(defaultMaxItems, zero.maxItems)

	capped, err := New[int](cmpInt, WithMaxItems[int](100000))
	re.NoError(err)
	re.Equal(maxMaxItemsCap, capped.maxItems)
}

func TestNilComparatorRejected(t *testing.T) {
	re := require.New(t)
	_, err := New[int](nil)
	re.Error(err)
}

// failAfter is an Allocator that returns ErrOOM once it has handed out
// n nodes, simulating the host process running out of memory mid
// mutation so the sticky OOM contract (spec.md section 7/section 9)
// can be exercised deterministically.
type failAfter struct {
	n int
}

func (f *failAfter) NewNode(leaf bool, maxItems int) (*node[int], error) {
	if f.n <= 0 {
		return nil, ErrOOM
	}
	f.n--
	return newNode[int](leaf, maxItems), nil
}

func TestStickyOOM(t *testing.T) {
	re := require.New(t)
	alloc := &failAfter{n: 3}
	tr, err := New[int](cmpInt, WithAllocator[int](alloc), WithDegree[int](2))
	re.NoError(err)

	var lastGood int
	var sawOOM bool
	for _, v := range rang(200) {
		_, _, err := tr.Set(v)
		if err != nil {
			sawOOM = true
			break
		}
		lastGood = v
	}
	re.True(sawOOM)
	re.True(tr.OOM())

	// The sticky state rejects every further mutation without
	// corrupting what was already committed.
	_, _, err = tr.Set(99999)
	re.Error(err)
	re.True(tr.OOM())

	got, ok := tr.Get(lastGood)
	re.True(ok)
	re.Equal(lastGood, got)
}

// TestPopMinReportsOOMFromRebalancePath exercises PopMin's fallback
// through deleteWith specifically, rather than its fastPopFront fast
// path: an allocation failure discovered while rebalancing (copying a
// sibling that fastPopFront's own spine-only descent never touched)
// must surface as a non-nil err, the same as every other mutating OOM
// path, not as a silent (_, false, nil) that reads like "tree empty."
func TestPopMinReportsOOMFromRebalancePath(t *testing.T) {
	re := require.New(t)
	alloc := &failAfter{n: 1000}
	tr, err := New[int](cmpInt, WithAllocator[int](alloc), WithDegree[int](2)) // max_items=3, min_items=1
	re.NoError(err)

	// Four ascending Sets against max_items=3 produce a branch root
	// with two leaf children: [0] and [2,3], the first exactly at
	// min_items.
	for _, v := range []int{0, 1, 2, 3} {
		_, _, err := tr.Set(v)
		re.NoError(err)
	}

	// Sharing the whole tree bumps rc on both leaves via the root's
	// next deepCopy (cow.go: a branch copy bumps every child's rc),
	// even though only the front leaf lies on PopMin's descent path.
	clone := tr.Clone()
	_ = clone

	// Budget for exactly the root's own COW copy and the front leaf's
	// COW copy that fastPopFront performs while walking down to check
	// min_items; deleteWith's subsequent rebalance needs a third copy,
	// of the still-shared sibling leaf, that this budget excludes.
	alloc.n = 2

	item, ok, err := tr.PopMin()
	re.Error(err)
	re.False(ok)
	re.Equal(0, item)
	re.True(tr.OOM())
}
