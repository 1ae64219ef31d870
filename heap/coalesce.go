package heap

import "unsafe"

// coalesceLeft merges b with its immediate left neighbor, if that
// neighbor exists inside the arena and is free. It returns the
// resulting block: either the merged block, or b unchanged if no
// merge happened.
func (a *Allocator) coalesceLeft(b unsafe.Pointer) unsafe.Pointer {
	if b == a.heapFirst {
		// b is the first block ever carved out of the arena: there is
		// no left neighbor, and the word before it was never written
		// by writeBlock, so it must never be read as a footer.
		return b
	}

	left := footerToHeader(footerWordBefore(b))
	if blockAllocated(left) {
		return b
	}

	a.listRemove(b)
	a.listRemove(left)

	mergedSize := blockSize(left) + blockSize(b)
	writeBlock(left, mergedSize, false)
	a.listAppend(left)
	return left
}

// coalesce merges b with both neighbors it can legally merge with.
// It must call coalesceLeft from two different positions — once
// anchored at b, once anchored at b's right neighbor — rather than
// attempt a symmetric "merge right then merge left" in some other
// order: doing so risks leaving two adjacent free blocks (invariant
// 3) uncoalesced if the merge order is changed carelessly.
func (a *Allocator) coalesce(b unsafe.Pointer) unsafe.Pointer {
	b = a.coalesceLeft(b)

	right := unsafe.Add(b, blockSize(b))
	if right == a.heapLast {
		return b
	}
	if !blockAllocated(right) {
		b = a.coalesceLeft(right)
	}
	return b
}
