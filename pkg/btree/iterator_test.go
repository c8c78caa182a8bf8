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

func buildTree(t *testing.T, n int) *Tree[int] {
	t.Helper()
	re := require.New(t)
	tr, err := New[int](cmpInt, WithDegree[int](2))
	re.NoError(err)
	for _, v := range perm(n) {
		_, _, err := tr.Set(v)
		re.NoError(err)
	}
	return tr
}

func TestIterForward(t *testing.T) {
	re := require.New(t)
	const n = 400
	tr := buildTree(t, n)

	it := tr.NewIter()
	var got []int
	for ok := it.First(); ok; ok = it.Next() {
		got = append(got, it.Item())
	}
	re.Equal(rang(n), got)
}

func TestIterBackward(t *testing.T) {
	re := require.New(t)
	const n = 400
	tr := buildTree(t, n)

	it := tr.NewIter()
	var got []int
	for ok := it.Last(); ok; ok = it.Prev() {
		got = append(got, it.Item())
	}
	re.Equal(sortedReverse(rang(n)), got)
}

func TestIterSeek(t *testing.T) {
	re := require.New(t)
	const n = 400
	tr := buildTree(t, n)

	it := tr.NewIter()
	re.True(it.Seek(150))
	re.Equal(150, it.Item())

	var got []int
	for ok := true; ok; ok = it.Next() {
		got = append(got, it.Item())
	}
	re.Equal(rang(n)[150:], got)
}

func TestIterSeekPastEnd(t *testing.T) {
	re := require.New(t)
	tr := buildTree(t, 50)
	it := tr.NewIter()
	re.False(it.Seek(1000))
}

func TestIterInvalidatedByMutation(t *testing.T) {
	re := require.New(t)
	tr := buildTree(t, 50)

	it := tr.NewIter()
	re.True(it.First())
	re.NoError(it.Err())

	_, _, err := tr.Set(10000)
	re.NoError(err)

	re.False(it.Next())
	re.Error(it.Err())

	// Repositioning resynchronizes the iterator.
	re.True(it.First())
	re.NoError(it.Err())
}

func TestIterEmptyTree(t *testing.T) {
	re := require.New(t)
	tr, err := New[int](cmpInt)
	re.NoError(err)
	it := tr.NewIter()
	re.False(it.First())
	re.False(it.Last())
	re.False(it.Seek(0))
}
