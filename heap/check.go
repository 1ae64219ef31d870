package heap

import (
	"fmt"
	"io"
	"math/bits"
	"unsafe"

	"github.com/eeason11/malloc-for-C/unsafex"
)

// Check walks both the implicit block sequence and the explicit free
// list, writing one line to w per invariant violation found (see
// SPEC_FULL.md §4.9). It never mutates the allocator and never
// returns an error: violations are reported, not acted upon, and the
// allocator continues operating on whatever state it finds itself in
// — recovery, if any, is the caller's responsibility. line is
// included in every message so multiple call sites in a test or trace
// driver can tell which Check call found what.
func (a *Allocator) Check(w io.Writer, line int) {
	if !a.initialized {
		fmt.Fprintf(w, "heap check: allocator not initialized. Line %d\n", line)
		return
	}

	if a.heapFirst == nil {
		fmt.Fprintf(w, "heap check: heapFirst sentinel is nil. Line %d\n", line)
	}
	if a.heapLast == nil {
		fmt.Fprintf(w, "heap check: heapLast sentinel is nil. Line %d\n", line)
	}

	// heapFirst is fixed at Init time relative to the host's low
	// bound, which itself never moves once the host has been
	// extended (see hostarena.Region). A live mismatch here means the
	// prologue sentinel has been relocated or clobbered, the
	// equivalent of the reference mm_checkheap's "prologue block"
	// check against a freshly recomputed mem_heap_lo().
	if expectedFirst := unsafe.Add(a.host.Lo(), prologuePad-dwordSize); a.heapFirst != expectedFirst {
		fmt.Fprintf(w, "heap check: heapFirst %p does not match the position derived from the arena host (expected %p). Line %d\n", a.heapFirst, expectedFirst, line)
	}
	// heapLast must never point past what the host has actually
	// committed; the equivalent of the reference check's "epilogue
	// block" check against mem_heap_hi().
	if uintptr(a.heapLast) > uintptr(a.host.Hi())+1 {
		fmt.Fprintf(w, "heap check: heapLast %p lies past the arena host's high bound %p. Line %d\n", a.heapLast, a.host.Hi(), line)
	}

	implicitFree := 0
	var prev unsafe.Pointer
	for cur := a.heapFirst; cur != a.heapLast; {
		size := blockSize(cur)

		if !blockAllocated(cur) {
			implicitFree++
			if prev != nil && !blockAllocated(prev) {
				fmt.Fprintf(w, "heap check: adjacent free blocks failed to coalesce at %p. Line %d\n", cur, line)
			}
		}

		if size != 0 && bits.TrailingZeros64(uint64(size)) < 4 {
			fmt.Fprintf(w, "heap check: block at %p size %d is not %d-byte aligned. Line %d\n", cur, size, blockAlign, line)
		}
		if size < minBlockSize {
			fmt.Fprintf(w, "heap check: block at %p size %d is below the minimum block size. Line %d\n", cur, size, line)
		}
		if uintptr(cur) < uintptr(a.heapFirst) || uintptr(cur) > uintptr(a.heapLast) {
			fmt.Fprintf(w, "heap check: block at %p lies outside the arena. Line %d\n", cur, line)
		}
		if *header(cur) != *footer(cur, size) {
			fmt.Fprintf(w, "heap check: header/footer mismatch at %p: %v. Line %d\n", cur, unsafex.BinaryToString(dumpTagBytes(cur, size)), line)
		}
		if diff := uintptr(cur) - uintptr(a.heapFirst); diff != 0 && bits.TrailingZeros(uint(diff)) < 4 {
			fmt.Fprintf(w, "heap check: block at %p is not aligned relative to heapFirst. Line %d\n", cur, line)
		}

		if size == 0 {
			// A corrupt zero-size tag would spin this loop forever;
			// stop the implicit-block walk here rather than hang.
			fmt.Fprintf(w, "heap check: block at %p has size 0, aborting implicit walk. Line %d\n", cur, line)
			break
		}

		prev = cur
		cur = unsafe.Add(cur, size)
	}

	freeSeen := 0
	var listPrev unsafe.Pointer
	for cur := a.freeHead; cur != nil; cur = getNext(cur) {
		if getPrev(cur) != listPrev {
			fmt.Fprintf(w, "heap check: free list prev pointer inconsistent at %p. Line %d\n", cur, line)
		}
		if uintptr(cur) < uintptr(a.heapFirst) || uintptr(cur) > uintptr(a.heapLast) {
			fmt.Fprintf(w, "heap check: free block at %p lies outside the arena. Line %d\n", cur, line)
		}
		freeSeen++
		listPrev = cur
	}

	if freeSeen != implicitFree {
		fmt.Fprintf(w, "heap check: free list length %d does not match %d unallocated blocks found by traversal. Line %d\n", freeSeen, implicitFree, line)
	}
}

// dumpTagBytes returns the raw header and footer words of the block
// at addr, for diagnostics only.
func dumpTagBytes(addr unsafe.Pointer, size uintptr) []byte {
	h := (*[wordSize]byte)(unsafe.Pointer(header(addr)))
	f := (*[wordSize]byte)(unsafe.Pointer(footer(addr, size)))
	out := make([]byte, 0, 2*wordSize)
	out = append(out, h[:]...)
	out = append(out, f[:]...)
	return out
}
