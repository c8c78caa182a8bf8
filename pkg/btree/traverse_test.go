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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActionAscendDeleteEvens(t *testing.T) {
	re := require.New(t)
	const n = 300
	tr := buildTree(t, n) // degree 2, so deletes force frequent rebalances

	tr.ActionAscend(nil, func(item *int) Action {
		if *item%2 == 0 {
			return ActionDelete
		}
		return ActionNone
	})

	var want []int
	for i := 1; i < n; i += 2 {
		want = append(want, i)
	}
	re.Equal(want, ascendAll(tr))
	re.Equal(len(want), tr.Len())
}

func TestActionDescendDeleteOdds(t *testing.T) {
	re := require.New(t)
	const n = 300
	tr := buildTree(t, n)

	tr.ActionDescend(nil, func(item *int) Action {
		if *item%2 != 0 {
			return ActionDelete
		}
		return ActionNone
	})

	var want []int
	for i := 0; i < n; i += 2 {
		want = append(want, i)
	}
	re.Equal(want, ascendAll(tr))
}

func TestActionAscendStop(t *testing.T) {
	re := require.New(t)
	tr := buildTree(t, 100)

	var seen []int
	tr.ActionAscend(nil, func(item *int) Action {
		if *item >= 10 {
			return ActionStop
		}
		seen = append(seen, *item)
		return ActionNone
	})
	re.Equal(rang(10), seen)
	re.Equal(100, tr.Len())
}

func TestActionAscendUpdate(t *testing.T) {
	re := require.New(t)
	tr, err := New[int](cmpInt)
	re.NoError(err)
	for _, v := range rang(20) {
		_, _, err := tr.Set(v)
		re.NoError(err)
	}

	// Updates that preserve the comparator's notion of equality are
	// applied in place; for a plain int comparator that means the
	// value can't actually change without becoming a different key,
	// so this only exercises the no-op path of ActionUpdate.
	tr.ActionAscend(nil, func(item *int) Action {
		return ActionUpdate
	})
	re.Equal(rang(20), ascendAll(tr))
}
