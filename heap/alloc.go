package heap

import "unsafe"

// Free returns the block backing ptr to the free list and coalesces
// it with any free neighbors. Free(nil) is a valid no-op. The
// behavior of freeing a pointer heap never returned, or freeing the
// same pointer twice, is undefined — heap does not attempt to detect
// either case (Check may notice the resulting corruption on its next
// call, but Free itself never validates ptr).
func (a *Allocator) Free(ptr unsafe.Pointer) {
	a.ensureInit()
	if ptr == nil {
		return
	}

	b := blockOfPayload(ptr)
	writeBlock(b, blockSize(b), false)
	a.listAppend(b)
	a.coalesce(b)
}

// Realloc resizes the allocation at ptr to size bytes, preserving the
// lesser of size and the block's current payload size worth of
// content, and returns a pointer to the (possibly relocated) result.
//
//   - Realloc(ptr, 0) frees ptr and returns nil.
//   - Realloc(nil, size) behaves exactly like Malloc(size).
//   - Otherwise a fresh block is always allocated, the overlapping
//     prefix is copied, and the old block is freed; there is no
//     in-place growth optimization.
func (a *Allocator) Realloc(ptr unsafe.Pointer, size uintptr) unsafe.Pointer {
	if size == 0 {
		a.Free(ptr)
		return nil
	}
	if ptr == nil {
		return a.Malloc(size)
	}

	newPtr := a.Malloc(size)
	if newPtr == nil {
		return nil
	}

	oldBlock := blockOfPayload(ptr)
	oldPayloadSize := blockSize(oldBlock) - dwordSize
	n := size
	if oldPayloadSize < n {
		n = oldPayloadSize
	}
	copyBytes(newPtr, ptr, n)

	a.Free(ptr)
	return newPtr
}

// Calloc allocates nmemb*size bytes and zeroes them. It returns nil,
// recording ErrOverflow, if the multiplication would overflow uintptr
// — the reference source leaves this at implementer discretion; this
// reimplementation checks, per DESIGN.md's resolution of that open
// question.
func (a *Allocator) Calloc(nmemb, size uintptr) unsafe.Pointer {
	total := nmemb * size
	if nmemb != 0 && total/nmemb != size {
		a.lastErr = ErrOverflow
		return nil
	}

	p := a.Malloc(total)
	if p == nil {
		return nil
	}
	zeroBytes(p, total)
	return p
}

// copyBytes copies n bytes from src to dst. Both must point at
// distinct, non-overlapping regions of at least n bytes — always true
// here since dst is a freshly allocated block distinct from src.
func copyBytes(dst, src unsafe.Pointer, n uintptr) {
	if n == 0 {
		return
	}
	d := unsafe.Slice((*byte)(dst), n)
	s := unsafe.Slice((*byte)(src), n)
	copy(d, s)
}

// zeroBytes zeroes n bytes starting at p.
func zeroBytes(p unsafe.Pointer, n uintptr) {
	if n == 0 {
		return
	}
	clear(unsafe.Slice((*byte)(p), n))
}
