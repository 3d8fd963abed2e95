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

package hostsyscall

import (
	"golang.org/x/sys/unix"
)

// rawInvoker dispatches onto the host's raw syscall entry by arity. On
// x86-64 the kernel entry convention places argument i in
// rdi, rsi, rdx, r10, r8, r9 for i = 0..5; the SYSCALL instruction always
// clobbers rcx and r11, so nothing may be kept in them across the call. The
// unix package's assembly stubs own that register placement; this table maps
// each arity onto them.
type rawInvoker struct{}

// Default returns the host platform's Invoker.
func Default() Invoker {
	return rawInvoker{}
}

// Invoke implements Invoker.Invoke.
//
// Unused argv slots are never passed through: the zero-filled tail of a
// record may hold stale guest words, and an over-arity invoke would hand
// those to the kernel as live arguments.
func (rawInvoker) Invoke(num uintptr, argv [MaxArgs]uintptr, argc int) (uintptr, unix.Errno) {
	var (
		r1    uintptr
		errno unix.Errno
	)
	switch argc {
	case 0:
		r1, _, errno = unix.RawSyscall(num, 0, 0, 0)
	case 1:
		r1, _, errno = unix.RawSyscall(num, argv[0], 0, 0)
	case 2:
		r1, _, errno = unix.RawSyscall(num, argv[0], argv[1], 0)
	case 3:
		r1, _, errno = unix.RawSyscall(num, argv[0], argv[1], argv[2])
	case 4:
		r1, _, errno = unix.RawSyscall6(num, argv[0], argv[1], argv[2], argv[3], 0, 0)
	case 5:
		r1, _, errno = unix.RawSyscall6(num, argv[0], argv[1], argv[2], argv[3], argv[4], 0)
	case 6:
		r1, _, errno = unix.RawSyscall6(num, argv[0], argv[1], argv[2], argv[3], argv[4], argv[5])
	default:
		return 0, unix.EINVAL
	}
	return r1, errno
}
