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

package errs

import (
	"github.com/pingcap/errors"
)

// logutil errors
var (
	ErrInitLogger = errors.Normalize("init logger failed", errors.RFCCodeText("PD:logutil:ErrInitLogger"))
)

// btree errors
var (
	ErrNilComparator       = errors.Normalize("btree: comparator must not be nil", errors.RFCCodeText("PD:btree:ErrNilComparator"))
	ErrIteratorInvalidated = errors.Normalize("btree: iterator used after the tree it was created from was mutated", errors.RFCCodeText("PD:btree:ErrIteratorInvalidated"))
	ErrTreeOutOfMemory     = errors.Normalize("btree: tree is in the sticky out-of-memory state and must be discarded", errors.RFCCodeText("PD:btree:ErrTreeOutOfMemory"))
)
