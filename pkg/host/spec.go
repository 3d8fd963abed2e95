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

//go:build linux
// +build linux

package host

import (
	"golang.org/x/sys/unix"
)

// A ptrArg marks an argv slot carrying a staged offset whose length lives in
// a companion slot. The executor rewrites such slots into pointers before
// invoking.
type ptrArg struct {
	slot    int
	lenSlot int
}

// A callSpec describes how to invoke one call number: its arity and which
// argv slots are staged handles. The executor needs nothing else about a
// call; semantics stay with the guest.
type callSpec struct {
	argc int
	ptrs []ptrArg
}

// callSpecs maps call numbers with known shapes. Numbers absent here are
// invoked with all six words and no pointer rewriting, which is harmless for
// pointer-free calls and fails cleanly (EFAULT from the kernel) otherwise.
var callSpecs = map[uint64]callSpec{
	unix.SYS_READ:       {argc: 3, ptrs: []ptrArg{{slot: 1, lenSlot: 2}}},
	unix.SYS_WRITE:      {argc: 3, ptrs: []ptrArg{{slot: 1, lenSlot: 2}}},
	unix.SYS_FCNTL:      {argc: 3},
	unix.SYS_CLOSE:      {argc: 1},
	unix.SYS_FSYNC:      {argc: 1},
	unix.SYS_GETPID:     {argc: 0},
	unix.SYS_EXIT_GROUP: {argc: 1},
}

// specFor returns the spec for num, falling back to a full-arity invoke.
func specFor(num uint64) callSpec {
	if s, ok := callSpecs[num]; ok {
		return s
	}
	return callSpec{argc: 6}
}
