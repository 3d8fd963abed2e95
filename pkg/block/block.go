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

// Package block implements the shared-memory call block: the framed item
// sequence carried between a confined guest and its untrusted host, the
// bounds-checked cursor that walks it, and the fixed-layout syscall record
// placed inside items.
//
// A block is exclusively owned by one side at any instant; ownership
// alternates guest (stage), host (execute), guest (collect). Every length and
// offset read out of a block is treated as adversarial: all arithmetic on
// them is checked, and the cursor never reads past the block's declared
// capacity.
package block

import (
	"encoding/binary"
	"fmt"

	"callgate.dev/callgate/pkg/errdefs"
)

const (
	// WordBytes is the width of a protocol word. The wire format is defined
	// for 64-bit little-endian targets; every field in the format is this
	// wide, and every item size is a multiple of it.
	WordBytes = 8

	// HeaderBytes is the encoded size of a Header.
	HeaderBytes = 2 * WordBytes
)

// byteOrder is the wire byte order.
var byteOrder = binary.LittleEndian

// Kind discriminates the body format of an item.
type Kind uint64

const (
	// KindEnd terminates the item sequence. An End header must have size 0;
	// a nonzero size is a corruption condition, not a valid terminal state.
	KindEnd Kind = 0

	// KindSyscall marks an item whose body is a SyscallRecord, optionally
	// followed by staged indirect payload bytes.
	KindSyscall Kind = 1
)

// String implements fmt.Stringer.String.
func (k Kind) String() string {
	switch k {
	case KindEnd:
		return "end"
	case KindSyscall:
		return "syscall"
	default:
		return fmt.Sprintf("kind(%d)", uint64(k))
	}
}

// valid returns true if k is a known item kind.
func (k Kind) valid() bool {
	return k == KindEnd || k == KindSyscall
}

// Header precedes every item body in a block.
//
// +marshal
type Header struct {
	// Size is the length of the item body in bytes. It is always a multiple
	// of WordBytes, and always 0 for KindEnd.
	Size uint64

	// Kind discriminates the body format.
	Kind Kind
}

// SizeBytes implements marshalling; it returns HeaderBytes.
func (h *Header) SizeBytes() int {
	return HeaderBytes
}

// MarshalBytes writes h to the first HeaderBytes bytes of dst.
func (h *Header) MarshalBytes(dst []byte) {
	byteOrder.PutUint64(dst[0:8], h.Size)
	byteOrder.PutUint64(dst[8:16], uint64(h.Kind))
}

// UnmarshalBytes reads h from the first HeaderBytes bytes of src.
func (h *Header) UnmarshalBytes(src []byte) {
	h.Size = byteOrder.Uint64(src[0:8])
	h.Kind = Kind(byteOrder.Uint64(src[8:16]))
}

// PutWord writes a protocol word at the given byte offset of b.
//
// Preconditions: off+WordBytes <= len(b).
func PutWord(b []byte, off int, w uint64) {
	byteOrder.PutUint64(b[off:off+WordBytes], w)
}

// Word reads the protocol word at the given byte offset of b.
//
// Preconditions: off+WordBytes <= len(b).
func Word(b []byte, off int) uint64 {
	return byteOrder.Uint64(b[off : off+WordBytes])
}

// A Block is a fixed-capacity word-aligned region of memory carrying one
// batch of call items between guest and host. Capacity is fixed at
// construction and never grows.
//
// Block methods are not safe to call concurrently; the protocol's ownership
// discipline already forbids it.
type Block struct {
	// data is the backing region. len(data) is the block's capacity.
	data []byte

	// tail is the offset of the End sentinel header, i.e. the end of the
	// packed item sequence. Everything in [0, tail) is items; the free
	// region for staging starts at tail.
	tail int
}

// New returns a Block backed by a fresh region of the given capacity.
// Capacity must be at least one header (for the End sentinel) and a multiple
// of WordBytes.
func New(capacity int) (*Block, error) {
	if capacity < HeaderBytes || capacity%WordBytes != 0 {
		return nil, fmt.Errorf("invalid block capacity %d: %w", capacity, errdefs.ErrCapacity)
	}
	b := &Block{data: make([]byte, capacity)}
	b.Reset()
	return b, nil
}

// Use returns a Block backed by an existing region, which is typically the
// shared memory handed over by the surrounding isolation technology. The
// region's existing contents are preserved: the caller is either the staging
// guest over a freshly Reset region, or a consumer of a region the peer has
// already populated.
func Use(data []byte) (*Block, error) {
	if len(data) < HeaderBytes || len(data)%WordBytes != 0 {
		return nil, fmt.Errorf("invalid block capacity %d: %w", len(data), errdefs.ErrCapacity)
	}
	b := &Block{data: data}
	// Recompute tail by walking the existing items so that staging can
	// append after them. A corrupt region leaves tail at the last sound
	// position; staging on such a block is caught by the cursor later.
	b.tail = b.scanTail()
	return b, nil
}

// scanTail walks the item sequence and returns the offset of the End
// sentinel, or of the first malformed header.
func (b *Block) scanTail() int {
	off := 0
	for {
		hdr, body, next, err := b.item(off)
		if err != nil || hdr.Kind == KindEnd {
			return off
		}
		_ = body
		off = next
	}
}

// Capacity returns the block's fixed capacity in bytes.
func (b *Block) Capacity() int {
	return len(b.data)
}

// Bytes returns the block's entire backing region. The host executor writes
// results through this view; the guest must not alias it outside its
// ownership window.
func (b *Block) Bytes() []byte {
	return b.data
}

// Free returns the number of body bytes still available for one more item,
// accounting for that item's header and the End sentinel that must follow
// it. A negative result is reported as 0.
func (b *Block) Free() int {
	free := len(b.data) - b.tail - 2*HeaderBytes
	if free < 0 {
		return 0
	}
	return free
}

// Reset discards all items and restores the full free region, writing a lone
// End sentinel at offset 0. The guest calls this between round trips when
// reusing a block.
func (b *Block) Reset() {
	end := Header{Size: 0, Kind: KindEnd}
	end.MarshalBytes(b.data[0:HeaderBytes])
	b.tail = 0
}

// Append reserves an item of the given kind and body size at the end of the
// block, returning a view of its body and the item's byte offset. The body
// size must be a multiple of WordBytes. The End sentinel is re-written after
// the new item, so the block is well formed after every successful Append.
//
// Append fails with ErrCapacity if the item plus its trailing sentinel would
// not fit in the remaining free region.
func (b *Block) Append(kind Kind, size int) (body []byte, off int, err error) {
	if kind == KindEnd {
		return nil, 0, fmt.Errorf("cannot append an end item: %w", errdefs.ErrCorrupted)
	}
	if size < 0 || size%WordBytes != 0 {
		return nil, 0, fmt.Errorf("item body size %d is not a multiple of the word width: %w", size, errdefs.ErrCorrupted)
	}
	// tail + header + size + trailing End header, all checked.
	need := HeaderBytes + size + HeaderBytes
	if rem := len(b.data) - b.tail; rem < need {
		return nil, 0, fmt.Errorf("item of %d bytes exceeds %d free: %w", size, rem-2*HeaderBytes, errdefs.ErrCapacity)
	}
	off = b.tail
	hdr := Header{Size: uint64(size), Kind: kind}
	hdr.MarshalBytes(b.data[off : off+HeaderBytes])
	bodyStart := off + HeaderBytes
	body = b.data[bodyStart : bodyStart+size : bodyStart+size]
	b.tail = bodyStart + size
	end := Header{Size: 0, Kind: KindEnd}
	end.MarshalBytes(b.data[b.tail : b.tail+HeaderBytes])
	return body, off, nil
}

// Truncate discards the item staged at off and everything after it, writing
// the End sentinel at off. The guest uses this to back out a reservation
// whose staging failed.
func (b *Block) Truncate(off int) error {
	if off < 0 || off > b.tail || off%WordBytes != 0 {
		return fmt.Errorf("truncate at %d outside the staged region [0, %d]: %w", off, b.tail, errdefs.ErrCapacity)
	}
	b.tail = off
	end := Header{Size: 0, Kind: KindEnd}
	end.MarshalBytes(b.data[off : off+HeaderBytes])
	return nil
}

// ShrinkLast shrinks the most recently appended item, whose offset was
// returned by Append, to a smaller body size. The guest uses this after
// staging when the payload turned out shorter than the reservation. The new
// size must be a multiple of WordBytes and not exceed the old one.
func (b *Block) ShrinkLast(off, size int) error {
	if size < 0 || size%WordBytes != 0 {
		return fmt.Errorf("item body size %d is not a multiple of the word width: %w", size, errdefs.ErrCorrupted)
	}
	bodyStart := off + HeaderBytes
	if off < 0 || bodyStart > b.tail || bodyStart+size > b.tail {
		return fmt.Errorf("shrink beyond staged item: %w", errdefs.ErrCapacity)
	}
	var hdr Header
	hdr.UnmarshalBytes(b.data[off : off+HeaderBytes])
	if int(hdr.Size) < size || bodyStart+int(hdr.Size) != b.tail {
		return fmt.Errorf("shrink target is not the last item: %w", errdefs.ErrCorrupted)
	}
	hdr.Size = uint64(size)
	hdr.MarshalBytes(b.data[off : off+HeaderBytes])
	b.tail = bodyStart + size
	end := Header{Size: 0, Kind: KindEnd}
	end.MarshalBytes(b.data[b.tail : b.tail+HeaderBytes])
	return nil
}
