// Copyright 2022 TiKV Project Authors.
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

//go:build !deadlock

package syncutil

import "sync"

// Mutex is sync.Mutex. Building with -tags deadlock swaps it for
// go-deadlock's drop-in replacement, which detects lock-ordering cycles
// at the cost of extra bookkeeping on every Lock/Unlock; this file
// keeps the zero-overhead default for production builds.
type Mutex = sync.Mutex

// RWMutex is sync.RWMutex under the same build-tag swap as Mutex.
type RWMutex = sync.RWMutex
