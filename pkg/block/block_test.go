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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"callgate.dev/callgate/pkg/errdefs"
)

func TestHeaderMarshalRoundTrip(t *testing.T) {
	want := Header{Size: 32, Kind: KindSyscall}
	var buf [HeaderBytes]byte
	want.MarshalBytes(buf[:])
	var got Header
	got.UnmarshalBytes(buf[:])
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("header round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestNewValidatesCapacity(t *testing.T) {
	for _, capacity := range []int{0, 8, 100, HeaderBytes - 8} {
		if _, err := New(capacity); !errors.Is(err, errdefs.ErrCapacity) {
			t.Errorf("New(%d) = %v, want ErrCapacity", capacity, err)
		}
	}
	b, err := New(256)
	if err != nil {
		t.Fatalf("New(256) failed: %v", err)
	}
	if got := b.Capacity(); got != 256 {
		t.Errorf("Capacity() = %d, want 256", got)
	}
}

func TestNewBlockIsEmpty(t *testing.T) {
	b, err := New(256)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	cur := b.Items()
	if _, ok, err := cur.Next(); err != nil || ok {
		t.Errorf("Next() on empty block = (ok=%t, err=%v), want end of sequence", ok, err)
	}
}

func TestAppendFramesItems(t *testing.T) {
	b, err := New(256)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	body1, off1, err := b.Append(KindSyscall, 32)
	if err != nil {
		t.Fatalf("Append(32) failed: %v", err)
	}
	if off1 != 0 || len(body1) != 32 {
		t.Errorf("Append(32) = (len %d, off %d), want (32, 0)", len(body1), off1)
	}
	body2, off2, err := b.Append(KindSyscall, 24)
	if err != nil {
		t.Fatalf("Append(24) failed: %v", err)
	}
	if wantOff := HeaderBytes + 32; off2 != wantOff || len(body2) != 24 {
		t.Errorf("Append(24) = (len %d, off %d), want (24, %d)", len(body2), off2, wantOff)
	}

	// The sequence must re-walk in staging order.
	var sizes []int
	cur := b.Items()
	for {
		it, ok, err := cur.Next()
		if err != nil {
			t.Fatalf("Next() failed: %v", err)
		}
		if !ok {
			break
		}
		sizes = append(sizes, len(it.Body))
	}
	if diff := cmp.Diff([]int{32, 24}, sizes); diff != "" {
		t.Errorf("item sizes mismatch (-want +got):\n%s", diff)
	}
}

func TestAppendRejectsOverCapacity(t *testing.T) {
	b, err := New(64) // room for one header, 16 body bytes, one sentinel.
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, _, err := b.Append(KindSyscall, 40); !errors.Is(err, errdefs.ErrCapacity) {
		t.Errorf("oversized Append = %v, want ErrCapacity", err)
	}
	// The failed Append must not have disturbed the block.
	if _, _, err := b.Append(KindSyscall, 32); err != nil {
		t.Errorf("exact-fit Append failed: %v", err)
	}
	if got := b.Free(); got != 0 {
		t.Errorf("Free() = %d, want 0", got)
	}
}

func TestAppendRejectsUnalignedAndEnd(t *testing.T) {
	b, err := New(256)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, _, err := b.Append(KindSyscall, 12); !errors.Is(err, errdefs.ErrCorrupted) {
		t.Errorf("unaligned Append = %v, want ErrCorrupted", err)
	}
	if _, _, err := b.Append(KindEnd, 0); !errors.Is(err, errdefs.ErrCorrupted) {
		t.Errorf("Append(KindEnd) = %v, want ErrCorrupted", err)
	}
}

func TestShrinkLast(t *testing.T) {
	b, err := New(256)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	_, off, err := b.Append(KindSyscall, 128)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := b.ShrinkLast(off, 80); err != nil {
		t.Fatalf("ShrinkLast failed: %v", err)
	}
	cur := b.Items()
	it, ok, err := cur.Next()
	if err != nil || !ok {
		t.Fatalf("Next() = (ok=%t, err=%v), want an item", ok, err)
	}
	if len(it.Body) != 80 {
		t.Errorf("shrunk body length = %d, want 80", len(it.Body))
	}
	if _, ok, err := cur.Next(); err != nil || ok {
		t.Errorf("sequence does not end after shrunk item: (ok=%t, err=%v)", ok, err)
	}
	// The freed space must be usable again.
	if _, _, err := b.Append(KindSyscall, 48); err != nil {
		t.Errorf("Append after shrink failed: %v", err)
	}
}

func TestShrinkLastRejectsGrowth(t *testing.T) {
	b, err := New(256)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	_, off, err := b.Append(KindSyscall, 32)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := b.ShrinkLast(off, 64); err == nil {
		t.Error("ShrinkLast growing the item succeeded, want error")
	}
}

func TestTruncateDiscardsItem(t *testing.T) {
	b, err := New(256)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, _, err := b.Append(KindSyscall, 32); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	_, off, err := b.Append(KindSyscall, 24)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := b.Truncate(off); err != nil {
		t.Fatalf("Truncate failed: %v", err)
	}
	sizes, err := walk(b)
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}
	if diff := cmp.Diff([]int{32}, sizes); diff != "" {
		t.Errorf("items after Truncate mismatch (-want +got):\n%s", diff)
	}
	if err := b.Truncate(999); !errors.Is(err, errdefs.ErrCapacity) {
		t.Errorf("Truncate outside the staged region = %v, want ErrCapacity", err)
	}
}

func TestReset(t *testing.T) {
	b, err := New(256)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, _, err := b.Append(KindSyscall, 128); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	b.Reset()
	if got, want := b.Free(), 256-2*HeaderBytes; got != want {
		t.Errorf("Free() after Reset = %d, want %d", got, want)
	}
	cur := b.Items()
	if _, ok, err := cur.Next(); err != nil || ok {
		t.Errorf("block not empty after Reset: (ok=%t, err=%v)", ok, err)
	}
}

func TestUseRecoversTail(t *testing.T) {
	b, err := New(256)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, _, err := b.Append(KindSyscall, 32); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	reused, err := Use(b.Bytes())
	if err != nil {
		t.Fatalf("Use failed: %v", err)
	}
	// Staging must continue after the existing item, not clobber it.
	_, off, err := reused.Append(KindSyscall, 24)
	if err != nil {
		t.Fatalf("Append on reused block failed: %v", err)
	}
	if want := HeaderBytes + 32; off != want {
		t.Errorf("Append offset = %d, want %d", off, want)
	}
}
