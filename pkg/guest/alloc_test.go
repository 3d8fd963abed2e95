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
	"bytes"
	"testing"
)

func TestStageStaysInBounds(t *testing.T) {
	a := NewAllocator(make([]byte, 128))
	for _, n := range []int{0, 1, 7, 8, 64, 1 << 20} {
		h, view := a.Stage(n)
		if h.Offset+h.Length > uint64(a.Capacity()) {
			t.Fatalf("Stage(%d): handle [%d, %d) escapes capacity %d", n, h.Offset, h.Offset+h.Length, a.Capacity())
		}
		if uint64(len(view)) != h.Length {
			t.Fatalf("Stage(%d): view length %d != handle length %d", n, len(view), h.Length)
		}
	}
}

func TestStageMaxFit(t *testing.T) {
	a := NewAllocator(make([]byte, 64))
	if h, _ := a.Stage(24); h.Length != 24 {
		t.Fatalf("Stage(24) staged %d bytes, want 24", h.Length)
	}
	// 40 bytes remain; an oversized request takes exactly that remainder.
	h, _ := a.Stage(1000)
	if h.Length != 40 {
		t.Errorf("oversized Stage staged %d bytes, want the 40 remaining", h.Length)
	}
	if h.Offset != 24 {
		t.Errorf("oversized Stage offset = %d, want 24", h.Offset)
	}
	// Nothing remains; further staging proceeds with zero length.
	if h, _ := a.Stage(1); h.Length != 0 {
		t.Errorf("Stage on a full allocator staged %d bytes, want 0", h.Length)
	}
}

func TestStageAlignsStarts(t *testing.T) {
	a := NewAllocator(make([]byte, 64))
	if h, _ := a.Stage(3); h.Offset != 0 {
		t.Fatalf("first Stage offset = %d, want 0", h.Offset)
	}
	if h, _ := a.Stage(8); h.Offset != 8 {
		t.Errorf("second Stage offset = %d, want word-aligned 8", h.Offset)
	}
}

func TestStageBytesCopies(t *testing.T) {
	payload := make([]byte, 32)
	a := NewAllocator(payload)
	src := []byte("0123456789abcdef")
	h := a.StageBytes(src)
	if h.Length != uint64(len(src)) {
		t.Fatalf("StageBytes staged %d bytes, want %d", h.Length, len(src))
	}
	if !bytes.Equal(payload[h.Offset:h.Offset+h.Length], src) {
		t.Errorf("staged bytes = %q, want %q", payload[h.Offset:h.Offset+h.Length], src)
	}
}

func TestStageBytesMaxFit(t *testing.T) {
	a := NewAllocator(make([]byte, 8))
	h := a.StageBytes(bytes.Repeat([]byte{0xaa}, 100))
	if h.Length != 8 {
		t.Errorf("StageBytes staged %d bytes, want the 8 that fit", h.Length)
	}
}

func TestCollectRangeGuards(t *testing.T) {
	payload := []byte("0123456789abcdef")
	h := Handle{Offset: 4, Length: 8}
	dst := make([]byte, 16)

	if n := Collect(payload, h, 0, 8, dst); n != 8 || string(dst[:8]) != "456789ab" {
		t.Errorf("Collect full range = (%d, %q), want (8, 456789ab)", n, dst[:8])
	}
	if n := Collect(payload, h, 2, 5, dst); n != 3 || string(dst[:3]) != "678" {
		t.Errorf("Collect sub range = (%d, %q), want (3, 678)", n, dst[:3])
	}
	// Ranges escaping the handle or inverted copy nothing.
	if n := Collect(payload, h, 0, 9, dst); n != 0 {
		t.Errorf("Collect past handle copied %d bytes, want 0", n)
	}
	if n := Collect(payload, h, 5, 2, dst); n != 0 {
		t.Errorf("Collect inverted range copied %d bytes, want 0", n)
	}
	if n := Collect(payload[:8], Handle{Offset: 4, Length: 8}, 0, 8, dst); n != 0 {
		t.Errorf("Collect past payload copied %d bytes, want 0", n)
	}
}
