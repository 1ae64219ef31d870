// Package heap implements the core of a first-fit, boundary-tag
// dynamic memory allocator over a contiguous, unidirectionally
// growable byte arena. It never allocates Go-heap memory for its own
// bookkeeping: block headers, footers, and free-list links all live
// in-band inside the arena, addressed with unsafe.Pointer arithmetic.
//
// heap is NOT goroutine-safe; see the package-level concurrency note
// on Allocator.
package heap

import "unsafe"

// ArenaHost is the external collaborator that owns the raw memory
// backing an Allocator's arena. Its concurrency model, mapping
// strategy, and growth limits are opaque to heap — the allocator only
// ever calls Extend, Lo, and Hi. See package hostarena for the
// default implementation.
type ArenaHost interface {
	// Extend enlarges the arena by exactly n bytes and returns the
	// address at which those new bytes begin (the previous
	// top-of-arena). It returns an error if the arena cannot grow.
	Extend(n uintptr) (unsafe.Pointer, error)

	// Lo returns the address of the first byte of the currently
	// mapped arena.
	Lo() unsafe.Pointer

	// Hi returns the address of the last byte of the currently
	// mapped arena (an inclusive bound).
	Hi() unsafe.Pointer
}

// prologuePad is the padding Init reserves before the first real
// block: 2*blockAlign (room for the smallest possible block layout)
// plus one word, matching the reference source's `2*D_SIZE + W_SIZE`.
const prologuePad = 2*blockAlign + wordSize

// Allocator is a single, independent heap bound to one ArenaHost. Its
// zero value is not usable; construct one with NewAllocator.
//
// Allocator is single-threaded/cooperative: every exported method
// must complete before another is called from any goroutine. Multiple
// independent Allocators (each bound to its own ArenaHost) may
// coexist and be used from different goroutines concurrently, since
// none of them share state.
type Allocator struct {
	host ArenaHost

	heapFirst unsafe.Pointer // address of the first block Init ever carves space for
	heapLast  unsafe.Pointer // one past the last block: the address createSpace will use next
	freeHead  unsafe.Pointer // head of the explicit free list, or nil

	initialized bool
	lastErr     error
}

// NewAllocator constructs an Allocator bound to host. The allocator
// is lazily initialized on first use (matching the reference source's
// "if (!mm_heap_first) mm_init()" pattern at the top of malloc/free),
// but callers may call Init explicitly to observe ErrInitFailed
// eagerly.
func NewAllocator(host ArenaHost) *Allocator {
	return &Allocator{host: host}
}

// LastError returns the error, if any, behind the most recent nil
// return from Malloc, Realloc, Calloc, or Init. It is provided
// because the classic C-style API surfaces only a null pointer on
// failure; Go callers that want the cause without changing call sites
// can consult it. It is not reset until the next failure.
func (a *Allocator) LastError() error {
	return a.lastErr
}

// Init (re)initializes the allocator: it asks the host for the
// prologue/epilogue padding, derives fresh sentinels, and resets the
// free list to empty. Re-invocation logically discards all prior
// allocations — see the package doc's concurrency/resource note.
func (a *Allocator) Init() error {
	a.freeHead = nil
	if _, err := a.host.Extend(prologuePad); err != nil {
		a.lastErr = ErrInitFailed
		return ErrInitFailed
	}

	// Hi is inclusive, so Hi-(dwordSize-1) lies 24 bytes above the start
	// of the pad just obtained. Block sizes are multiples of 16, so
	// payloads (header + wordSize) are 16-byte aligned exactly when
	// heapLast sits one word above a 16-byte boundary; when the pad
	// itself starts one word past a boundary (a re-Init after blocks
	// were carved), heapLast moves up one more word to keep that.
	a.heapLast = unsafe.Add(a.host.Hi(), -(dwordSize - 1))
	if (uintptr(a.heapLast)+wordSize)%blockAlign != 0 {
		a.heapLast = unsafe.Add(a.heapLast, wordSize)
	}
	a.heapFirst = a.heapLast
	a.initialized = true
	return nil
}

func (a *Allocator) ensureInit() {
	if !a.initialized {
		_ = a.Init()
	}
}

// createSpace grows the arena by n bytes (n must already be a valid
// adjusted block size) and carves a new, fully-allocated block there.
// Returns nil (and records ErrOutOfMemory) if the host cannot grow.
func (a *Allocator) createSpace(n uintptr) unsafe.Pointer {
	block := a.heapLast
	_, err := a.host.Extend(n)
	if err != nil {
		a.lastErr = ErrOutOfMemory
		return nil
	}
	a.heapLast = unsafe.Add(a.heapLast, n)
	writeBlock(block, n, true)
	return block
}
