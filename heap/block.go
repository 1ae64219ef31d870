package heap

import "unsafe"

// Word widths and layout constants. All arithmetic in this package is
// in bytes; a "word" is the 8-byte boundary tag unit.
const (
	wordSize = 8
	dwordSize = 2 * wordSize // header+footer overhead per block

	// blockAlign is the payload alignment guaranteed to callers, and
	// the granularity every block size must be a multiple of.
	blockAlign = 16
	alignMask  = blockAlign - 1

	// minBlockSize is dwordSize (header+footer) plus the 16 bytes a
	// free block needs to hold its next/prev free-list links.
	minBlockSize = dwordSize + blockAlign

	allocatedFlag uintptr = 0x1
	sizeMask              = ^uintptr(0xF) // low 4 bits are free for flags
)

// tag is the boundary-tag word stored in both a block's header and
// footer: size (upper bits, always a multiple of 16) OR'd with the
// allocated flag (bit 0).
type tag uintptr

func makeTag(size uintptr, allocated bool) tag {
	t := tag(size &^ 0xF)
	if allocated {
		t |= tag(allocatedFlag)
	}
	return t
}

func (t tag) size() uintptr {
	return uintptr(t) & sizeMask
}

func (t tag) allocated() bool {
	return uintptr(t)&allocatedFlag != 0
}

// header returns the *tag stored at the start of the block whose
// payload begins at addr's block boundary. Callers pass the block's
// own base address (the address of its header word), never a payload
// pointer.
func header(addr unsafe.Pointer) *tag {
	return (*tag)(addr)
}

// footer returns the *tag stored at the end of a block of the given
// total size, starting at the block's header address.
func footer(addr unsafe.Pointer, size uintptr) *tag {
	return (*tag)(unsafe.Add(addr, size-wordSize))
}

// writeBlock sets both the header and footer of the block at addr to
// encode size and the allocated flag, keeping them in lock-step per
// invariant 1 (header == footer always).
func writeBlock(addr unsafe.Pointer, size uintptr, allocated bool) {
	t := makeTag(size, allocated)
	*header(addr) = t
	*footer(addr, size) = t
}

// blockSize reads the size encoded in a block's header. Header is
// authoritative everywhere except reverse traversal (footerToHeader).
func blockSize(addr unsafe.Pointer) uintptr {
	return header(addr).size()
}

func blockAllocated(addr unsafe.Pointer) bool {
	return header(addr).allocated()
}

// payloadOf returns the address handed to callers for a block whose
// header sits at addr: the first byte after the header word.
func payloadOf(addr unsafe.Pointer) unsafe.Pointer {
	return unsafe.Add(addr, wordSize)
}

// blockOfPayload is the inverse of payloadOf: recovers a block's
// header address from a caller-supplied payload pointer.
func blockOfPayload(p unsafe.Pointer) unsafe.Pointer {
	return unsafe.Add(p, -wordSize)
}

// footerWordBefore returns the address of the word immediately
// preceding addr's header — the footer of whatever block (if any)
// lies to the left of it, used by the coalescer to jump backwards
// without an explicit "previous block" pointer.
func footerWordBefore(addr unsafe.Pointer) unsafe.Pointer {
	return unsafe.Add(addr, -wordSize)
}

// footerToHeader locates a block's header given the address of its
// footer word: footer minus the size that footer encodes, since the
// footer stores the same size|flag tag as the header.
func footerToHeader(footerAddr unsafe.Pointer) unsafe.Pointer {
	size := (*tag)(footerAddr).size()
	return unsafe.Add(footerAddr, -(int64(size) - wordSize))
}

// roundUp16 rounds n up to the nearest multiple of 16.
func roundUp16(n uintptr) uintptr {
	return (n + alignMask) &^ alignMask
}

// adjustedBlockSize transforms a user-requested payload size into the
// total block size (header + payload rounded to 16 + footer) that
// findFit/createSpace operate on.
func adjustedBlockSize(userSize uintptr) uintptr {
	adj := dwordSize + roundUp16(userSize)
	if adj < minBlockSize {
		adj = minBlockSize
	}
	return adj
}
