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

// Package loader defines the ELF metadata constants by which an executable
// image describes its trust-technology regions to the loader: the program
// header type of the entry region, per-technology segment flag bits, and the
// note section carrying protocol and technology descriptors.
//
// The call-gate core only consumes the existence and bounds of such regions;
// it neither parses nor produces these structures.
package loader

import (
	"debug/elf"
)

// PTExec identifies the region within which the loader must place the
// executable. The executable is loaded at the start of the region and must
// fit in it.
const PTExec = uint32(elf.PT_LOOS) + 0x3400000

// SGX segment flag bits.
const (
	// PFSGXTCS marks a segment containing TCS pages.
	PFSGXTCS uint32 = 1 << 20

	// PFSGXUnmeasured marks a segment containing unmeasured pages.
	PFSGXUnmeasured uint32 = 1 << 21
)

// KVM segment flag bits.
const (
	// PFKVMBlocks marks the segment containing the initial call blocks.
	PFKVMBlocks uint32 = 1 << 22
)

// SNP segment flag bits.
const (
	// PFSNPCPUID marks the segment containing the CPUID page.
	PFSNPCPUID uint32 = 1 << 23

	// PFSNPSecrets marks the segment containing the SNP secrets page.
	PFSNPSecrets uint32 = 1 << 24
)

// NoteName is the name of every note section in the metadata.
const NoteName = "sallyport"

// NoteRequires is the note type carrying the minimum protocol version the
// image requires, as a semver string.
const NoteRequires uint32 = 0

// SGX note descriptor types.
const (
	// NoteSGXBits is the enclave size in bits (u8, a power of 2).
	NoteSGXBits uint32 = 0x73677800

	// NoteSGXSSAPages is the number of pages in an SSA frame (u8).
	NoteSGXSSAPages uint32 = 0x73677801

	// NoteSGXProductID is the product identifier (u16).
	NoteSGXProductID uint32 = 0x73677810

	// NoteSGXSVN is the security version number (u16).
	NoteSGXSVN uint32 = 0x73677811

	// NoteSGXMisc is MiscSelect (u32).
	NoteSGXMisc uint32 = 0x73677812

	// NoteSGXMiscMask is the MiscSelect mask (u32).
	NoteSGXMiscMask uint32 = 0x73677813

	// NoteSGXAttr is Attributes (u128).
	NoteSGXAttr uint32 = 0x73677814

	// NoteSGXAttrMask is the Attributes mask (u128).
	NoteSGXAttrMask uint32 = 0x73677815
)
