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

package hostsyscall

import (
	"golang.org/x/sys/unix"
)

// A RecordedCall is one invocation observed by a Recorder.
type RecordedCall struct {
	Num  uintptr
	Argv [MaxArgs]uintptr
	Argc int
}

// Recorder is an Invoker for tests: it records every invocation and answers
// it via Handler, or with ENOSYS if no Handler is set. It lets executor and
// round-trip tests run without touching the real host.
type Recorder struct {
	// Calls are the invocations seen so far, in order.
	Calls []RecordedCall

	// Handler, if non-nil, produces the result of each invocation.
	Handler func(c RecordedCall) (uintptr, unix.Errno)
}

// Invoke implements Invoker.Invoke.
func (r *Recorder) Invoke(num uintptr, argv [MaxArgs]uintptr, argc int) (uintptr, unix.Errno) {
	c := RecordedCall{Num: num, Argv: argv, Argc: argc}
	r.Calls = append(r.Calls, c)
	if r.Handler == nil {
		return 0, unix.ENOSYS
	}
	return r.Handler(c)
}
