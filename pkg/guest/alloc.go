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

// Package guest implements the confined side of the call gate: the staging
// allocator that places indirect payloads inside a call block, the binding
// policy that decides whether a call crosses the trust boundary, and the
// stage/collect contract each wrapped call implements.
package guest

import (
	"callgate.dev/callgate/pkg/block"
)

// A Handle locates staged payload bytes: an offset and length into the
// payload area of the item it was staged for, standing in for a pointer
// across the trust boundary.
type Handle struct {
	Offset uint64
	Length uint64
}

// An Allocator is a monotonic bump allocator over one item's payload area.
// It is valid only during the staging phase of a single call; a new one is
// built per staged item and discarded after the item is finalized.
//
// Allocations never wrap or escape the area: Offset+Length <= Capacity is
// structural, since the allocator only ever hands out subslices of the area
// it was built over.
type Allocator struct {
	payload []byte
	next    int
}

// NewAllocator returns an Allocator over the given payload area. The area is
// the free space of an item body after its fixed record fields.
func NewAllocator(payload []byte) *Allocator {
	return &Allocator{payload: payload}
}

// Capacity returns the total size of the payload area.
func (a *Allocator) Capacity() int {
	return len(a.payload)
}

// Free returns the bytes still available for staging.
func (a *Allocator) Free() int {
	return len(a.payload) - a.alignedNext()
}

// Used returns the bytes consumed so far, including alignment padding.
func (a *Allocator) Used() int {
	return a.next
}

// alignedNext returns the next allocation position, rounded up to the word
// width so every staged region starts word-aligned.
func (a *Allocator) alignedNext() int {
	return (a.next + block.WordBytes - 1) &^ (block.WordBytes - 1)
}

// Stage reserves up to n contiguous bytes and returns their handle plus a
// view of the reservation. When n exceeds the remaining free space, Stage
// reserves exactly what remains rather than failing: bulk transfers make
// partial progress in one round trip, and callers needing all-or-nothing
// behavior compare the handle's Length against their request themselves.
func (a *Allocator) Stage(n int) (Handle, []byte) {
	if n < 0 {
		n = 0
	}
	start := a.alignedNext()
	if rem := len(a.payload) - start; n > rem {
		n = rem
	}
	a.next = start + n
	return Handle{Offset: uint64(start), Length: uint64(n)}, a.payload[start : start+n : start+n]
}

// StageBytes reserves space for src and copies it in, with the same max-fit
// semantics as Stage. The handle's Length reports how much of src was
// actually staged.
func (a *Allocator) StageBytes(src []byte) Handle {
	h, dst := a.Stage(len(src))
	copy(dst, src[:h.Length])
	return h
}

// Collect copies payload[h.Offset+start : h.Offset+end] into dst after the
// host has executed the block. The caller supplies the sub-range already
// clamped to what the call's result interpretation trusts (see the per-call
// Collect implementations); Collect additionally refuses any range that
// escapes the handle.
func Collect(payload []byte, h Handle, start, end uint64, dst []byte) int {
	if start > end || end > h.Length {
		return 0
	}
	lo := h.Offset + start
	hi := h.Offset + end
	if hi > uint64(len(payload)) {
		return 0
	}
	return copy(dst, payload[lo:hi])
}
