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

import "github.com/prometheus/client_golang/prometheus"

// treeMetrics groups the counters a Tree bumps as it mutates. Every
// Tree gets its own vector slice, labeled by the tree's name (see
// WithName), so many independently-configured trees in one process
// still show up as distinct series rather than clobbering a single
// global counter -- the same labeling convention operator.go and
// metrics.go use throughout the teacher's scheduler package.
type treeMetrics struct {
	cowCopies      prometheus.Counter
	splitsBalanced prometheus.Counter
	splitsLeanLeft prometheus.Counter
	merges         prometheus.Counter
	rotations      prometheus.Counter
	nodesFreed     prometheus.Counter
	clones         prometheus.Counter
	oomTransitions prometheus.Counter
}

var (
	cowCopiesVec = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "btree",
			Subsystem: "cow",
			Name:      "copies_total",
			Help:      "Number of nodes deep-copied by copy-on-write.",
		}, []string{"tree"})

	splitsVec = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "btree",
			Subsystem: "mutate",
			Name:      "splits_total",
			Help:      "Number of node splits, by policy.",
		}, []string{"tree", "policy"})

	mergesVec = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "btree",
			Subsystem: "mutate",
			Name:      "merges_total",
			Help:      "Number of sibling merges performed during rebalance.",
		}, []string{"tree"})

	rotationsVec = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "btree",
			Subsystem: "mutate",
			Name:      "rotations_total",
			Help:      "Number of single-item rotations performed during rebalance.",
		}, []string{"tree"})

	nodesFreedVec = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "btree",
			Subsystem: "nodes",
			Name:      "freed_total",
			Help:      "Number of nodes whose refcount reached zero and were reclaimed.",
		}, []string{"tree"})

	clonesVec = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "btree",
			Subsystem: "tree",
			Name:      "clones_total",
			Help:      "Number of Clone calls.",
		}, []string{"tree"})

	oomTransitionsVec = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "btree",
			Subsystem: "tree",
			Name:      "oom_transitions_total",
			Help:      "Number of times a tree entered the sticky out-of-memory state.",
		}, []string{"tree"})
)

func init() {
	prometheus.MustRegister(
		cowCopiesVec,
		splitsVec,
		mergesVec,
		rotationsVec,
		nodesFreedVec,
		clonesVec,
		oomTransitionsVec,
	)
}

func newTreeMetrics(name string) *treeMetrics {
	return &treeMetrics{
		cowCopies:      cowCopiesVec.WithLabelValues(name),
		splitsBalanced: splitsVec.WithLabelValues(name, "balanced"),
		splitsLeanLeft: splitsVec.WithLabelValues(name, "lean_left"),
		merges:         mergesVec.WithLabelValues(name),
		rotations:      rotationsVec.WithLabelValues(name),
		nodesFreed:     nodesFreedVec.WithLabelValues(name),
		clones:         clonesVec.WithLabelValues(name),
		oomTransitions: oomTransitionsVec.WithLabelValues(name),
	}
}
