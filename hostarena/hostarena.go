// Package hostarena provides the default backing store for the heap
// allocator's arena: a single, contiguous, non-zeroed byte slice that
// only ever grows. It implements heap.ArenaHost.
//
// hostarena is intentionally the least interesting package in this
// module: the core allocator (package heap) treats it as an opaque
// collaborator and never assumes anything about it beyond Extend,
// Lo, and Hi.
//
// The backing slice is reserved at its full capacity up front and
// never reallocated: heap.Allocator hands out payload pointers into
// this memory that must stay valid for the lifetime of the arena, so
// Region cannot grow by the usual copy-to-a-bigger-slice trick — that
// would move every block heap has ever carved out from under any
// pointer a caller is still holding. This mirrors how a real OS-backed
// arena reserves virtual address space up front and only commits
// pages into it on demand, without ever relocating committed memory.
//
// Region is NOT goroutine-safe.
package hostarena

import (
	"errors"
	"unsafe"

	"github.com/bytedance/gopkg/lang/dirtmake"
)

// ErrCapacity is returned by Extend when the requested growth would
// exceed the region's reserved capacity, or would overflow the
// region's addressable length.
var ErrCapacity = errors.New("hostarena: requested extend exceeds region capacity")

const defaultCap = 64 * 1024 * 1024 // 64MB, generous headroom for tests/benchmarks

// Option configures a Region at construction time.
type Option func(*Region)

// WithCapacity raises the reserved capacity to cap when cap is larger
// than what New already reserved; it never lowers it. Values <= 0 are
// ignored.
func WithCapacity(cap int) Option {
	return func(r *Region) {
		if cap > 0 {
			r.reserve(cap)
		}
	}
}

// Region is a growable, but never-relocating, byte arena. Its zero
// value is not usable; call New to construct one.
type Region struct {
	buf  []byte // buf[:used] is the live, addressable arena
	used int
}

// New constructs a Region. capacity, if > 0, is the total number of
// bytes ever reserved for the arena (Extend fails past this point);
// otherwise a package default is used. capacity is reserved, not
// committed — dirtmake.Bytes avoids the zero-fill a plain make([]byte,
// 0, capacity) would still have to perform for a slice this size,
// since every byte will be overwritten by the allocator before a
// caller ever reads it.
func New(capacity int, opts ...Option) *Region {
	r := &Region{}
	r.reserve(capacity)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Region) reserve(capacity int) {
	if capacity <= 0 {
		capacity = defaultCap
	}
	if capacity <= cap(r.buf) {
		return
	}
	r.buf = dirtmake.Bytes(r.used, capacity)
}

// Capacity returns the total number of bytes the region can ever grow
// to hold.
func (r *Region) Capacity() int {
	return cap(r.buf)
}

// Extend enlarges the arena by exactly n bytes and returns the
// address at which those new bytes begin (the previous top-of-arena).
// The returned pointer, and every address the arena has ever handed
// out, remains valid for the lifetime of the Region: Extend never
// moves existing bytes.
func (r *Region) Extend(n uintptr) (unsafe.Pointer, error) {
	need := r.used + int(n)
	if need < r.used || need > cap(r.buf) {
		return nil, ErrCapacity
	}
	prevTop := unsafe.Add(unsafe.Pointer(&r.buf[:cap(r.buf)][0]), r.used)
	r.buf = r.buf[:need]
	r.used = need
	return prevTop, nil
}

// Lo returns the address of the first byte of the addressable arena,
// or nil if the region has never been extended.
func (r *Region) Lo() unsafe.Pointer {
	if r.used == 0 {
		return nil
	}
	return unsafe.Pointer(&r.buf[0])
}

// Hi returns the address of the last byte of the addressable arena
// (an inclusive bound, matching the classic mem_heap_hi contract),
// or nil if the region has never been extended.
func (r *Region) Hi() unsafe.Pointer {
	if r.used == 0 {
		return nil
	}
	return unsafe.Add(unsafe.Pointer(&r.buf[0]), r.used-1)
}
