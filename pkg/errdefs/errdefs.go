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

// Package errdefs holds the standardized error definitions for the call-gate
// protocol. Each condition is one canonical *Error value, errno-backed so it
// can cross the boundary as a raw return word and still compare fast on the
// guest side.
package errdefs

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Error represents a protocol or call error with an errno and a descriptive
// message.
type Error struct {
	errno   unix.Errno
	message string
}

// New creates a new *Error.
func New(errno unix.Errno, message string) *Error {
	return &Error{
		errno:   errno,
		message: message,
	}
}

// Error implements error.Error.
func (e *Error) Error() string { return e.message }

// Errno returns the underlying unix.Errno value.
func (e *Error) Errno() unix.Errno { return e.errno }

// Structural errors. These are fatal to the affected block: once one is
// observed, the shared region's integrity can no longer be assumed, and the
// surrounding system must discard the block rather than retry in place.
var (
	// ErrCorrupted reports a malformed item: bad size alignment, an unknown
	// kind, or an End header with a nonzero size.
	ErrCorrupted = New(unix.EUCLEAN, "call block corrupted")

	// ErrCapacity reports a staging request or declared item size that would
	// exceed the block's remaining or declared capacity.
	ErrCapacity = New(unix.ENOSPC, "call block capacity exceeded")
)

// Per-call errors. These are ordinary values returned to whatever issued the
// call; they never cause the block itself to be abandoned.
var (
	// ErrUnsupportedCall reports that the binding policy has no rule for the
	// given arguments. It is never silently treated as "cross to host".
	ErrUnsupportedCall = New(unix.ENOTSUP, "call not supported by binding policy")

	// EINVAL rejects a defined-but-disallowed argument combination.
	EINVAL = New(unix.EINVAL, "invalid argument")

	// EBADF reports a bad file descriptor.
	EBADF = New(unix.EBADF, "bad file number")

	// EBADFD reports a descriptor in a state the policy refuses to touch.
	EBADFD = New(unix.EBADFD, "file descriptor in bad state")

	// EFAULT reports a staged offset or length that does not resolve inside
	// its item's payload.
	EFAULT = New(unix.EFAULT, "bad staged address")

	// ENOSYS reports a call number the executor refuses to dispatch.
	ENOSYS = New(unix.ENOSYS, "invalid system call number")
)

// known maps errnos with canonical values back to those values.
var known = map[unix.Errno]*Error{
	unix.EUCLEAN: ErrCorrupted,
	unix.ENOSPC:  ErrCapacity,
	unix.ENOTSUP: ErrUnsupportedCall,
	unix.EINVAL:  EINVAL,
	unix.EBADF:   EBADF,
	unix.EBADFD:  EBADFD,
	unix.EFAULT:  EFAULT,
	unix.ENOSYS:  ENOSYS,
}

// FromErrno translates a host errno into an *Error, reusing the canonical
// value where one exists.
func FromErrno(errno unix.Errno) *Error {
	if errno == 0 {
		return nil
	}
	if e, ok := known[errno]; ok {
		return e
	}
	return New(errno, errno.Error())
}

// ToErrno extracts the errno from err, unwrapping as needed. Errors that do
// not carry one map to EINVAL, matching the boundary's "defined error, never
// silent fallthrough" rule.
func ToErrno(err error) unix.Errno {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.errno
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return unix.EINVAL
}
