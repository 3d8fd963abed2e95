// Copyright 2026 The Callgate Authors.
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

// Package hostsyscall issues raw host system calls with an explicit arity.
//
// It is the single narrow interface the executor depends on: everything
// above it sees "invoke a call number with up to 6 word arguments", and the
// platform-specific entry convention stays confined to this package.
package hostsyscall

import (
	"golang.org/x/sys/unix"
)

// MaxArgs is the largest argument count the entry convention can carry.
const MaxArgs = 6

// An Invoker issues one raw system call with exactly argc word arguments
// taken from the front of argv. It returns the call's primary result word
// and the errno, 0 on success.
//
// Implementations must not interpret the call: semantics live with whoever
// built argv.
type Invoker interface {
	Invoke(num uintptr, argv [MaxArgs]uintptr, argc int) (uintptr, unix.Errno)
}
