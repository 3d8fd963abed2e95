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

package block

import (
	"fmt"

	"callgate.dev/callgate/pkg/errdefs"
)

// An Item is a view of one framed record in a block.
type Item struct {
	// Kind discriminates the body format. The cursor never yields KindEnd.
	Kind Kind

	// Body aliases the item's body bytes inside the block. Writes through
	// Body are writes into the block.
	Body []byte

	// Offset is the byte offset of the item's header within the block.
	Offset int
}

// BodyOffset returns the byte offset of the item's body within the block.
func (it *Item) BodyOffset() int {
	return it.Offset + HeaderBytes
}

// A Cursor walks a block's item sequence forward, yielding items in exactly
// the order they occupy the block. It validates every header before trusting
// it: sizes must be word multiples, an End header must have size zero, and no
// step may reach past the block's declared capacity.
//
// A Cursor is restartable per call: each call to Block.Items returns a fresh
// one positioned at the first header.
type Cursor struct {
	b   *Block
	off int
}

// Items returns a Cursor positioned at the block's first header.
func (b *Block) Items() Cursor {
	return Cursor{b: b}
}

// item decodes the header at off and returns it, the body view, and the
// offset of the next header. All bounds are checked against the block's
// declared capacity before any byte is read.
func (b *Block) item(off int) (Header, []byte, int, error) {
	// remaining capacity minus the header, checked.
	rem := len(b.data) - off
	if rem < HeaderBytes {
		return Header{}, nil, 0, fmt.Errorf("header at offset %d reaches past capacity %d: %w", off, len(b.data), errdefs.ErrCapacity)
	}
	var hdr Header
	hdr.UnmarshalBytes(b.data[off : off+HeaderBytes])
	if !hdr.Kind.valid() {
		return Header{}, nil, 0, fmt.Errorf("unknown item kind %d at offset %d: %w", uint64(hdr.Kind), off, errdefs.ErrCorrupted)
	}
	if hdr.Kind == KindEnd {
		if hdr.Size != 0 {
			return Header{}, nil, 0, fmt.Errorf("end item with nonzero size %d: %w", hdr.Size, errdefs.ErrCorrupted)
		}
		return hdr, nil, off + HeaderBytes, nil
	}
	if hdr.Size%WordBytes != 0 {
		return Header{}, nil, 0, fmt.Errorf("item size %d is not a multiple of the word width: %w", hdr.Size, errdefs.ErrCorrupted)
	}
	rem -= HeaderBytes
	if hdr.Size > uint64(rem) {
		return Header{}, nil, 0, fmt.Errorf("item size %d exceeds %d remaining: %w", hdr.Size, rem, errdefs.ErrCapacity)
	}
	bodyStart := off + HeaderBytes
	bodyEnd := bodyStart + int(hdr.Size)
	return hdr, b.data[bodyStart:bodyEnd:bodyEnd], bodyEnd, nil
}

// Next yields the next item, or ok=false when the sequence ends at a sound
// End sentinel. A malformed header surfaces as a non-nil error (wrapping
// ErrCorrupted or ErrCapacity) rather than a silent end of sequence: silent
// truncation at a trust boundary can mask an attempted exploit as an
// ordinary end-of-block.
func (c *Cursor) Next() (Item, bool, error) {
	hdr, body, next, err := c.b.item(c.off)
	if err != nil {
		return Item{}, false, err
	}
	if hdr.Kind == KindEnd {
		return Item{}, false, nil
	}
	it := Item{Kind: hdr.Kind, Body: body, Offset: c.off}
	c.off = next
	return it, true, nil
}

// Seek positions the cursor at the given item header offset. The offset must
// have come from a previously yielded Item; the next Next call re-validates
// the header there.
func (c *Cursor) Seek(off int) {
	c.off = off
}
