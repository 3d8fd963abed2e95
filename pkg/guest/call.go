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

package guest

import (
	"fmt"

	"callgate.dev/callgate/pkg/block"
	"callgate.dev/callgate/pkg/errdefs"
)

// A Result is the outcome of one completed call: a successful magnitude or
// descriptor, or an errno-backed error. Per-call errors are ordinary values;
// they never condemn the block that carried them.
type Result struct {
	Value uint64
	Err   error
}

// Errf returns a Result carrying the given canonical error.
func Errf(err error) Result {
	return Result{Err: err}
}

// A Call describes one wrapped operating-system call: how it binds, how its
// arguments and indirect payloads are staged into a block, and how its raw
// results are interpreted after the host has executed the block.
//
// A Call value is one-shot: it carries its own staged state between Stage
// and Collect and must not be submitted twice.
type Call interface {
	// Bind decides, before any block traffic, whether the call is answered
	// locally. It returns (result, true) for a local answer, which is
	// either a stubbed success or a defined error; (Result{}, false) sends
	// the call across the boundary. Bind is total over the call's
	// discriminating arguments: combinations it has no rule for yield a
	// defined error, never a silent crossing.
	Bind() (Result, bool)

	// Stage writes the call's argument words and stages any indirect
	// payload via a. Handles for staged payloads go into argv slots in
	// place of pointers. Stage runs only for calls Bind sent across.
	Stage(a *Allocator) (num uint64, argv [6]uint64, err error)

	// Collect interprets the executed record. ret0 and ret1 are the raw
	// return words the host wrote; payload is the item's staged payload
	// area, whose contents are untrusted host output.
	Collect(ret0, ret1 uint64, payload []byte) Result
}

// A Ticket tracks one submitted call across a round trip. Locally answered
// calls complete immediately; crossed calls resolve when Collect re-walks
// the executed block.
type Ticket struct {
	call Call

	// off is the block offset of the staged item, or -1 for a call that
	// never touched the block.
	off int

	// local is the result of a locally answered call.
	local Result
}

// Local returns true if the ticket was answered without crossing.
func (t *Ticket) Local() bool {
	return t.off < 0
}

// ItemOffset returns the block offset of the ticket's staged item.
//
// Preconditions: !t.Local().
func (t *Ticket) ItemOffset() int {
	return t.off
}

// A Gateway stages calls into a block on the way out and collects their
// results on the way back. It owns the block only during the guest's
// ownership windows; the handoff in between is the surrounding system's
// responsibility.
type Gateway struct {
	b *block.Block
}

// NewGateway returns a Gateway staging into b.
func NewGateway(b *block.Block) *Gateway {
	return &Gateway{b: b}
}

// Block returns the gateway's block.
func (g *Gateway) Block() *block.Block {
	return g.b
}

// Submit binds c and, if the binding crosses, stages a syscall item for it.
// The returned ticket resolves either immediately (local answer) or at
// Collect time after the host has executed the block.
//
// Submit fails only structurally: a block too full to hold even the call's
// fixed record is ErrCapacity. Policy rejections are not Submit errors; they
// come back as the ticket's result.
func (g *Gateway) Submit(c Call) (*Ticket, error) {
	if res, local := c.Bind(); local {
		return &Ticket{call: c, off: -1, local: res}, nil
	}

	// Reserve the whole free region, stage into it, then shrink the item to
	// what staging actually consumed. Max-fit staging needs the reservation
	// to be maximal up front; the shrink keeps the block packed.
	free := g.b.Free()
	if free < block.SyscallRecordBytes {
		return nil, fmt.Errorf("staging a syscall record needs %d bytes, %d free: %w", block.SyscallRecordBytes, free, errdefs.ErrCapacity)
	}
	body, off, err := g.b.Append(block.KindSyscall, free)
	if err != nil {
		return nil, err
	}
	alloc := NewAllocator(body[block.SyscallRecordBytes:])
	num, argv, err := c.Stage(alloc)
	if err != nil {
		// Back the reservation out entirely.
		if serr := g.b.Truncate(off); serr != nil {
			return nil, serr
		}
		return nil, err
	}
	rec := block.SyscallRecord{Num: num, Argv: argv}
	rec.MarshalBytes(body)
	used := alloc.Used()
	size := block.SyscallRecordBytes + alignWord(used)
	if err := g.b.ShrinkLast(off, size); err != nil {
		return nil, err
	}
	return &Ticket{call: c, off: off}, nil
}

// Collect resolves a crossed ticket against the executed block, re-walking
// the same item the call was staged into. Structural problems with the item
// (a malformed header, a body shorter than a record) surface as errors
// wrapping ErrCorrupted or ErrCapacity; the block must then be discarded.
//
// Locally answered tickets resolve without touching the block.
func (g *Gateway) Collect(t *Ticket) (Result, error) {
	if t.Local() {
		return t.local, nil
	}
	cur := g.b.Items()
	cur.Seek(t.off)
	it, ok, err := cur.Next()
	if err != nil {
		return Result{}, err
	}
	if !ok || it.Kind != block.KindSyscall {
		return Result{}, fmt.Errorf("staged item missing at offset %d: %w", t.off, errdefs.ErrCorrupted)
	}
	rec, payload, err := block.DecodeSyscall(it.Body)
	if err != nil {
		return Result{}, err
	}
	return t.call.Collect(rec.Ret[0], rec.Ret[1], payload), nil
}

func alignWord(n int) int {
	return (n + block.WordBytes - 1) &^ (block.WordBytes - 1)
}
