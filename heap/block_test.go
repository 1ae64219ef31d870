package heap

import (
	"testing"
	"unsafe"
)

func TestRoundUp16(t *testing.T) {
	tests := []struct {
		name string
		size uintptr
		want uintptr
	}{
		{"roundUp16(0)", 0, 0},
		{"roundUp16(1)", 1, 16},
		{"roundUp16(15)", 15, 16},
		{"roundUp16(16)", 16, 16},
		{"roundUp16(17)", 17, 32},
		{"roundUp16(31)", 31, 32},
		{"roundUp16(1024)", 1024, 1024},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := roundUp16(tt.size); got != tt.want {
				t.Errorf("roundUp16(%d) = %d, want %d", tt.size, got, tt.want)
			}
		})
	}
}

func TestAdjustedBlockSize(t *testing.T) {
	tests := []struct {
		userSize uintptr
		want     uintptr
	}{
		{0, minBlockSize},
		{1, minBlockSize},
		{16, minBlockSize},
		{17, dwordSize + 32},
		{48, dwordSize + 48},
		{1000, dwordSize + roundUp16(1000)},
	}
	for _, tt := range tests {
		if got := adjustedBlockSize(tt.userSize); got != tt.want {
			t.Errorf("adjustedBlockSize(%d) = %d, want %d", tt.userSize, got, tt.want)
		}
	}
}

func TestTagRoundTrip(t *testing.T) {
	tests := []struct {
		size      uintptr
		allocated bool
	}{
		{32, true},
		{32, false},
		{4096, true},
		{1 << 40, false}, // exercise the full 64-bit size range
	}
	for _, tt := range tests {
		tg := makeTag(tt.size, tt.allocated)
		if got := tg.size(); got != tt.size {
			t.Errorf("makeTag(%d, %v).size() = %d, want %d", tt.size, tt.allocated, got, tt.size)
		}
		if got := tg.allocated(); got != tt.allocated {
			t.Errorf("makeTag(%d, %v).allocated() = %v, want %v", tt.size, tt.allocated, got, tt.allocated)
		}
	}
}

func TestWriteBlockKeepsHeaderAndFooterInLockstep(t *testing.T) {
	buf := make([]byte, 64)
	addr := unsafe.Pointer(&buf[0])

	writeBlock(addr, 64, true)
	if *header(addr) != *footer(addr, 64) {
		t.Fatalf("header %v != footer %v after writeBlock", *header(addr), *footer(addr, 64))
	}
	if !blockAllocated(addr) {
		t.Fatalf("expected block to be allocated")
	}
	if blockSize(addr) != 64 {
		t.Fatalf("blockSize = %d, want 64", blockSize(addr))
	}

	writeBlock(addr, 64, false)
	if *header(addr) != *footer(addr, 64) {
		t.Fatalf("header != footer after re-writeBlock as free")
	}
	if blockAllocated(addr) {
		t.Fatalf("expected block to be free")
	}
}

func TestPayloadPointerRoundTrip(t *testing.T) {
	buf := make([]byte, 64)
	addr := unsafe.Pointer(&buf[0])
	writeBlock(addr, 64, true)

	p := payloadOf(addr)
	if uintptr(p) != uintptr(addr)+wordSize {
		t.Fatalf("payloadOf offset wrong")
	}
	if blockOfPayload(p) != addr {
		t.Fatalf("blockOfPayload did not invert payloadOf")
	}
}

func TestFooterToHeader(t *testing.T) {
	buf := make([]byte, 64)
	addr := unsafe.Pointer(&buf[0])
	writeBlock(addr, 48, false)

	f := footer(addr, 48)
	if got := footerToHeader(unsafe.Pointer(f)); got != addr {
		t.Fatalf("footerToHeader = %p, want %p", got, addr)
	}
}
