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

package guest

import (
	"golang.org/x/sys/unix"

	"callgate.dev/callgate/pkg/block"
	"callgate.dev/callgate/pkg/errdefs"
)

// The wrapped calls below each follow the same pattern: Bind applies the
// per-call policy, Stage lays out argument words and stages indirect
// payloads, Collect interprets the raw return words using the call's own
// convention. New calls are added by writing another small variant; the
// gateway and executor need no changes.

// word sign-extends an int32 argument into an argument word, matching the
// kernel ABI for int-typed arguments.
func word(v int32) uint64 {
	return uint64(int64(v))
}

// Read wraps read(2). Its destination buffer lives in guest memory the host
// can never touch, so the read lands in staged payload space and is copied
// out at collect time.
type Read struct {
	FD  int32
	Buf []byte

	staged Handle
}

// Bind implements Call.Bind; reads always cross.
func (*Read) Bind() (Result, bool) {
	return Result{}, false
}

// Stage implements Call.Stage. Staging is max-fit: a buffer larger than the
// block's free space reads as much as fits in this round trip.
func (c *Read) Stage(a *Allocator) (uint64, [6]uint64, error) {
	c.staged, _ = a.Stage(len(c.Buf))
	return unix.SYS_READ, [6]uint64{word(c.FD), c.staged.Offset, c.staged.Length}, nil
}

// Collect implements Call.Collect. The host's reported magnitude is
// untrusted: the copy back into Buf is clamped to the staged length, never
// extended to what the host claims.
func (c *Read) Collect(ret0, _ uint64, payload []byte) Result {
	v, errno := block.RetToErrno(ret0)
	if errno != 0 {
		return Errf(errdefs.FromErrno(errno))
	}
	n := v
	if n > c.staged.Length {
		n = c.staged.Length
	}
	copied := Collect(payload, c.staged, 0, n, c.Buf)
	return Result{Value: uint64(copied)}
}

// Write wraps write(2). The source bytes are staged into the block so the
// host never dereferences guest memory.
type Write struct {
	FD  int32
	Buf []byte

	staged Handle
}

// Bind implements Call.Bind; writes always cross.
func (*Write) Bind() (Result, bool) {
	return Result{}, false
}

// Stage implements Call.Stage, staging as much of Buf as fits.
func (c *Write) Stage(a *Allocator) (uint64, [6]uint64, error) {
	c.staged = a.StageBytes(c.Buf)
	return unix.SYS_WRITE, [6]uint64{word(c.FD), c.staged.Offset, c.staged.Length}, nil
}

// Collect implements Call.Collect. A written-byte count beyond what was
// staged is untrusted and clamps to the staged length.
func (c *Write) Collect(ret0, _ uint64, _ []byte) Result {
	v, errno := block.RetToErrno(ret0)
	if errno != 0 {
		return Errf(errdefs.FromErrno(errno))
	}
	if v > c.staged.Length {
		v = c.staged.Length
	}
	return Result{Value: v}
}

// Fcntl wraps fcntl(2). It is the representative policy call: the standard
// descriptors answer certain query commands locally with canned flags, other
// commands on them are rejected, a whitelist of commands crosses for
// arbitrary descriptors, and everything else is refused.
type Fcntl struct {
	FD  int32
	Cmd int32
	Arg int32
}

// Bind implements Call.Bind.
func (c *Fcntl) Bind() (Result, bool) {
	switch {
	case c.FD == 0 && c.Cmd == unix.F_GETFL:
		return Result{Value: uint64(unix.O_RDWR | unix.O_APPEND)}, true
	case (c.FD == 1 || c.FD == 2) && c.Cmd == unix.F_GETFL:
		return Result{Value: uint64(unix.O_WRONLY)}, true
	case c.FD == 0 || c.FD == 1 || c.FD == 2:
		return Errf(errdefs.EINVAL), true
	case c.Cmd == unix.F_GETFD || c.Cmd == unix.F_SETFD || c.Cmd == unix.F_GETFL || c.Cmd == unix.F_SETFL:
		return Result{}, false
	default:
		return Errf(errdefs.EBADFD), true
	}
}

// Stage implements Call.Stage.
func (c *Fcntl) Stage(*Allocator) (uint64, [6]uint64, error) {
	return unix.SYS_FCNTL, [6]uint64{word(c.FD), word(c.Cmd), word(c.Arg)}, nil
}

// Collect implements Call.Collect.
func (c *Fcntl) Collect(ret0, _ uint64, _ []byte) Result {
	return passthroughResult(ret0)
}

// Close wraps close(2).
type Close struct {
	FD int32
}

// Bind implements Call.Bind.
func (*Close) Bind() (Result, bool) { return Result{}, false }

// Stage implements Call.Stage.
func (c *Close) Stage(*Allocator) (uint64, [6]uint64, error) {
	return unix.SYS_CLOSE, [6]uint64{word(c.FD)}, nil
}

// Collect implements Call.Collect.
func (c *Close) Collect(ret0, _ uint64, _ []byte) Result {
	return passthroughResult(ret0)
}

// Fsync wraps fsync(2).
type Fsync struct {
	FD int32
}

// Bind implements Call.Bind.
func (*Fsync) Bind() (Result, bool) { return Result{}, false }

// Stage implements Call.Stage.
func (c *Fsync) Stage(*Allocator) (uint64, [6]uint64, error) {
	return unix.SYS_FSYNC, [6]uint64{word(c.FD)}, nil
}

// Collect implements Call.Collect.
func (c *Fsync) Collect(ret0, _ uint64, _ []byte) Result {
	return passthroughResult(ret0)
}

// Getpid wraps getpid(2).
type Getpid struct{}

// Bind implements Call.Bind.
func (*Getpid) Bind() (Result, bool) { return Result{}, false }

// Stage implements Call.Stage.
func (*Getpid) Stage(*Allocator) (uint64, [6]uint64, error) {
	return unix.SYS_GETPID, [6]uint64{}, nil
}

// Collect implements Call.Collect.
func (*Getpid) Collect(ret0, _ uint64, _ []byte) Result {
	return passthroughResult(ret0)
}

// ExitGroup wraps exit_group(2). The host does not return from it on a real
// kernel; collection only ever sees it under a fake invoker.
type ExitGroup struct {
	Code int32
}

// Bind implements Call.Bind.
func (*ExitGroup) Bind() (Result, bool) { return Result{}, false }

// Stage implements Call.Stage.
func (c *ExitGroup) Stage(*Allocator) (uint64, [6]uint64, error) {
	return unix.SYS_EXIT_GROUP, [6]uint64{word(c.Code)}, nil
}

// Collect implements Call.Collect.
func (c *ExitGroup) Collect(ret0, _ uint64, _ []byte) Result {
	return passthroughResult(ret0)
}

// passthroughResult interprets a raw return word for calls with no indirect
// output.
func passthroughResult(ret0 uint64) Result {
	v, errno := block.RetToErrno(ret0)
	if errno != 0 {
		return Errf(errdefs.FromErrno(errno))
	}
	return Result{Value: v}
}
