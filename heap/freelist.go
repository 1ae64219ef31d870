package heap

import "unsafe"

// A free block's payload is repurposed to hold two links: next at
// payload+0, prev at payload+wordSize. Allocated blocks never read or
// write these words — they belong to the caller.

func linkNext(blockAddr unsafe.Pointer) *unsafe.Pointer {
	return (*unsafe.Pointer)(payloadOf(blockAddr))
}

func linkPrev(blockAddr unsafe.Pointer) *unsafe.Pointer {
	return (*unsafe.Pointer)(unsafe.Add(payloadOf(blockAddr), wordSize))
}

func getNext(blockAddr unsafe.Pointer) unsafe.Pointer {
	return *linkNext(blockAddr)
}

func getPrev(blockAddr unsafe.Pointer) unsafe.Pointer {
	return *linkPrev(blockAddr)
}

func setNext(blockAddr, next unsafe.Pointer) {
	*linkNext(blockAddr) = next
}

func setPrev(blockAddr, prev unsafe.Pointer) {
	*linkPrev(blockAddr) = prev
}

// listAppend inserts b at the head of the free list (LIFO).
func (a *Allocator) listAppend(b unsafe.Pointer) {
	setNext(b, a.freeHead)
	if a.freeHead != nil {
		setPrev(a.freeHead, b)
	}
	setPrev(b, nil)
	a.freeHead = b
}

// listRemove unlinks b from the free list in O(1) using its own
// prev/next links. This is the direct unlink resolved in DESIGN.md
// for the ambiguous get_next(free_head)==NULL guard in the reference
// C source's block_remove: there is no special case here beyond the
// two null-adjacent ends. freelist_test.go checks that the list stays
// consistent after removal at every position of lists of length 1 to
// 4; it does not compare the result against the C guard's behavior.
func (a *Allocator) listRemove(b unsafe.Pointer) {
	next := getNext(b)
	prev := getPrev(b)

	if prev != nil {
		setNext(prev, next)
	} else {
		a.freeHead = next
	}
	if next != nil {
		setPrev(next, prev)
	}

	setNext(b, nil)
	setPrev(b, nil)
}

// freeListLen counts the nodes reachable from freeHead. Used only by
// tests; the allocator itself never needs the length of the list.
func (a *Allocator) freeListLen() int {
	n := 0
	for cur := a.freeHead; cur != nil; cur = getNext(cur) {
		n++
	}
	return n
}
