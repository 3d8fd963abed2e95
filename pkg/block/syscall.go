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

	"golang.org/x/sys/unix"

	"callgate.dev/callgate/pkg/errdefs"
)

// SyscallRecordBytes is the encoded size of a SyscallRecord: the call number,
// six argument words and two return words.
const SyscallRecordBytes = 9 * WordBytes

// MaxErrno bounds the errno range of the raw return convention: return words
// in [-MaxErrno, -1] (two's complement) encode errnos, everything else is a
// successful magnitude or descriptor.
const MaxErrno = 4095

// SyscallRecord is the fixed-layout body of a KindSyscall item. Any indirect
// payload for the call follows the record within the same item body, and its
// position is carried as an offset+length pair in argv slots in place of a
// pointer, since pointers are meaningless across the trust boundary.
//
// +marshal
type SyscallRecord struct {
	// Num is the call number, e.g. unix.SYS_READ.
	Num uint64

	// Argv are the call's argument words. Unused trailing slots are zero.
	Argv [6]uint64

	// Ret receives the raw results. The host writes Ret[0] using the raw
	// return convention (see RetToErrno); Ret[1] is meaningful only to
	// calls that declare a two-word result.
	Ret [2]uint64
}

// SizeBytes implements marshalling; it returns SyscallRecordBytes.
func (r *SyscallRecord) SizeBytes() int {
	return SyscallRecordBytes
}

// MarshalBytes writes r at the start of dst.
func (r *SyscallRecord) MarshalBytes(dst []byte) {
	PutWord(dst, 0, r.Num)
	for i, a := range r.Argv {
		PutWord(dst, (1+i)*WordBytes, a)
	}
	PutWord(dst, 7*WordBytes, r.Ret[0])
	PutWord(dst, 8*WordBytes, r.Ret[1])
}

// UnmarshalBytes reads r from the start of src.
func (r *SyscallRecord) UnmarshalBytes(src []byte) {
	r.Num = Word(src, 0)
	for i := range r.Argv {
		r.Argv[i] = Word(src, (1+i)*WordBytes)
	}
	r.Ret[0] = Word(src, 7*WordBytes)
	r.Ret[1] = Word(src, 8*WordBytes)
}

// retOffset is the byte offset of Ret within an item body.
const retOffset = 7 * WordBytes

// StoreRet writes the return words into a KindSyscall item body in place,
// without rewriting the rest of the record. The host executor uses this
// after dispatching the call.
func StoreRet(body []byte, ret0, ret1 uint64) error {
	if len(body) < SyscallRecordBytes {
		return fmt.Errorf("syscall item body of %d bytes is shorter than a record: %w", len(body), errdefs.ErrCorrupted)
	}
	PutWord(body, retOffset, ret0)
	PutWord(body, retOffset+WordBytes, ret1)
	return nil
}

// DecodeSyscall reads the record out of a KindSyscall item body and returns
// the payload bytes that follow it. The payload view aliases the block.
func DecodeSyscall(body []byte) (SyscallRecord, []byte, error) {
	if len(body) < SyscallRecordBytes {
		return SyscallRecord{}, nil, fmt.Errorf("syscall item body of %d bytes is shorter than a record: %w", len(body), errdefs.ErrCorrupted)
	}
	var rec SyscallRecord
	rec.UnmarshalBytes(body)
	return rec, body[SyscallRecordBytes:], nil
}

// RetToErrno interprets a raw return word. Values in [-MaxErrno, -1] in the
// two's-complement sense are errnos; for those it returns (0, errno). Any
// other value is a successful magnitude or descriptor, returned verbatim
// with errno 0.
func RetToErrno(ret uint64) (uint64, unix.Errno) {
	if v := int64(ret); v < 0 && v >= -MaxErrno {
		return 0, unix.Errno(-v)
	}
	return ret, 0
}

// ErrnoToRet encodes an errno as a raw return word.
func ErrnoToRet(errno unix.Errno) uint64 {
	return uint64(-int64(errno))
}
