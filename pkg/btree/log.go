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
	"fmt"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/tikv/btree/pkg/logutil"
)

// pkgLogger is the fallback logger used by any Tree that wasn't given
// one of its own via WithLogger. It defaults to the pingcap/log global
// logger, following the same convention logutil.SetupLogger installs
// for the rest of this module's ambient stack.
var pkgLogger = log.L()

// SetLogger overrides the package-default logger every Tree falls back
// to when it has no WithLogger option of its own.
func SetLogger(logger *zap.Logger) {
	pkgLogger = logger
}

func (t *Tree[T]) logger() *zap.Logger {
	if t.log != nil {
		return t.log
	}
	return pkgLogger
}

// zapItem renders item as a logging field, going through logutil's
// redaction wrapper when item implements fmt.Stringer so a Tree
// instantiated over sensitive keys doesn't leak them into logs by
// default. T is caller-supplied and otherwise opaque to this package,
// so items that don't implement Stringer are simply omitted rather
// than printed with reflection.
func zapItem[T any](key string, item T) zap.Field {
	if s, ok := any(item).(fmt.Stringer); ok {
		return logutil.ZapRedactStringer(key, s)
	}
	return zap.Skip()
}
