package heap

import "unsafe"

// findFit walks the free list from freeHead looking for the first
// block that satisfies adj bytes (first-fit with a split threshold):
// a candidate large enough to leave a viable free remainder is split;
// one that fits but isn't worth splitting is taken whole. Returns nil
// if nothing in the list fits.
func (a *Allocator) findFit(adj uintptr) unsafe.Pointer {
	for cur := a.freeHead; cur != nil; cur = getNext(cur) {
		size := blockSize(cur)
		switch {
		case size >= minBlockSize+adj:
			return a.split(cur, adj)
		case size >= adj:
			a.listRemove(cur)
			writeBlock(cur, size, true)
			return cur
		}
	}
	return nil
}

// split carves adj bytes off the front of free block b, leaving the
// remainder as a new free block appended to the list. b is removed
// from the list first since its size (and therefore its list bucket
// under a segregated design, though this one is unordered) is about
// to change.
func (a *Allocator) split(b unsafe.Pointer, adj uintptr) unsafe.Pointer {
	a.listRemove(b)
	oldSize := blockSize(b)

	writeBlock(b, adj, true)

	remainder := unsafe.Add(b, adj)
	writeBlock(remainder, oldSize-adj, false)
	a.listAppend(remainder)

	return b
}

// Malloc returns a 16-byte-aligned pointer to size bytes of payload,
// or nil if size is 0 or the arena cannot grow to satisfy the
// request. The zero-size case is a sentinel, not an error: it is
// distinguished from failure only via LastError, which Malloc leaves
// untouched when size == 0.
func (a *Allocator) Malloc(size uintptr) unsafe.Pointer {
	a.ensureInit()
	if size == 0 {
		return nil
	}

	adj := adjustedBlockSize(size)
	b := a.findFit(adj)
	if b == nil {
		b = a.createSpace(adj)
		if b == nil {
			return nil
		}
	}
	return payloadOf(b)
}
