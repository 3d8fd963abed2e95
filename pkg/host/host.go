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

// Package host implements the untrusted side of the call gate: the executor
// that walks an executed-over block, dispatches each syscall item to the
// real operating system, and writes raw results back in place.
//
// The executor treats every word it reads out of the block as adversarial.
// Structural problems condemn the whole block; a failing call condemns only
// its own item.
package host

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"callgate.dev/callgate/pkg/block"
	"callgate.dev/callgate/pkg/errdefs"
	"callgate.dev/callgate/pkg/hostsyscall"
	"callgate.dev/callgate/pkg/log"
)

// An Executor consumes a block's item sequence and executes it.
type Executor struct {
	inv     hostsyscall.Invoker
	allowed map[uint64]bool
}

// An Option configures an Executor.
type Option func(*Executor)

// WithInvoker selects the raw-call backend. Tests use this to substitute a
// hostsyscall.Recorder for the real host.
func WithInvoker(inv hostsyscall.Invoker) Option {
	return func(e *Executor) { e.inv = inv }
}

// WithAllowlist restricts dispatch to the given call numbers. Items naming
// any other number get ENOSYS written into their return area; the block
// itself keeps executing.
func WithAllowlist(nums []uint64) Option {
	return func(e *Executor) {
		e.allowed = make(map[uint64]bool, len(nums))
		for _, n := range nums {
			e.allowed[n] = true
		}
	}
}

// New returns an Executor dispatching to the host platform's raw-call entry,
// unless options say otherwise.
func New(opts ...Option) *Executor {
	e := &Executor{inv: hostsyscall.Default()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Execute walks b's items in block order and dispatches every syscall item,
// writing each raw result into the item's return area in place. It returns
// the number of items dispatched.
//
// A sound End sentinel halts the block normally. A structural problem (a
// malformed header, an item shorter than its record) aborts the block with
// an error wrapping ErrCorrupted or ErrCapacity; no later item is examined,
// and the caller must discard the block.
func (e *Executor) Execute(b *block.Block) (int, error) {
	done := 0
	cur := b.Items()
	for {
		it, ok, err := cur.Next()
		if err != nil {
			log.Warningf("aborting block after %d items: %v", done, err)
			return done, err
		}
		if !ok {
			return done, nil
		}
		switch it.Kind {
		case block.KindSyscall:
			if err := e.dispatch(&it); err != nil {
				return done, err
			}
			done++
		default:
			// The cursor only yields known kinds; a new kind added there
			// must get a dispatch arm here.
			return done, fmt.Errorf("no dispatch for item kind %v: %w", it.Kind, errdefs.ErrCorrupted)
		}
	}
}

// dispatch executes one syscall item and stores its result. Only structural
// problems are returned as errors; call failures, bad staged handles and
// disallowed numbers all end up as errnos in the item's return area.
func (e *Executor) dispatch(it *block.Item) error {
	rec, payload, err := block.DecodeSyscall(it.Body)
	if err != nil {
		return err
	}
	if e.allowed != nil && !e.allowed[rec.Num] {
		log.Infof("refusing disallowed call %d", rec.Num)
		return block.StoreRet(it.Body, block.ErrnoToRet(unix.ENOSYS), 0)
	}

	spec := specFor(rec.Num)
	argv, err := resolveArgs(rec, spec, payload)
	if err != nil {
		// A staged handle that does not fit its payload is the guest's (or
		// an interfering writer's) problem, scoped to this item.
		log.Warningf("call %d: %v", rec.Num, err)
		return block.StoreRet(it.Body, block.ErrnoToRet(unix.EFAULT), 0)
	}

	r1, errno := e.inv.Invoke(uintptr(rec.Num), argv, spec.argc)
	runtime.KeepAlive(payload)

	ret0 := uint64(r1)
	if errno != 0 {
		ret0 = block.ErrnoToRet(errno)
		log.Debugf("call %d failed: %v", rec.Num, errno)
	}
	return block.StoreRet(it.Body, ret0, 0)
}

// resolveArgs builds the invocation argument words, rewriting each staged
// offset+length pair into a real pointer into the executor's own view of the
// payload. Offsets and lengths are untrusted; any pair that escapes the
// payload is rejected.
func resolveArgs(rec block.SyscallRecord, spec callSpec, payload []byte) ([hostsyscall.MaxArgs]uintptr, error) {
	var argv [hostsyscall.MaxArgs]uintptr
	for i := 0; i < spec.argc; i++ {
		argv[i] = uintptr(rec.Argv[i])
	}
	for _, p := range spec.ptrs {
		off := rec.Argv[p.slot]
		length := rec.Argv[p.lenSlot]
		end := off + length
		if end < off || end > uint64(len(payload)) {
			return argv, fmt.Errorf("staged range [%d, %d) escapes %d-byte payload", off, end, len(payload))
		}
		if length == 0 {
			argv[p.slot] = 0
			continue
		}
		argv[p.slot] = uintptr(unsafe.Pointer(&payload[off]))
	}
	return argv, nil
}
