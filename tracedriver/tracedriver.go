// Package tracedriver replays textual allocation traces against a
// heap.Allocator. Each line of the trace is one of:
//
//	a <id> <bytes>   allocate <bytes>, remembering the result under <id>
//	f <id>           free the block previously allocated as <id>
//	r <id> <bytes>   reallocate <id> to <bytes>, keeping the same <id>
//
// This mirrors the trace-file workloads the reference allocator was
// historically exercised with, generalized to an io.Reader/io.Writer
// pair so it can run against any heap.ArenaHost-backed allocator from
// any caller, such as a test. The module ships no command that wraps it.
package tracedriver

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unsafe"

	"github.com/eeason11/malloc-for-C/heap"
)

// ErrUnknownID is returned (wrapped with the offending id and line
// number) when a trace references an id that was never allocated, or
// was already freed.
var ErrUnknownID = errors.New("tracedriver: unknown allocation id")

// Stats tallies what a Run observed.
type Stats struct {
	Allocs      int
	Frees       int
	Reallocs    int
	OutOfMemory int // Malloc, or Realloc to a non-zero size, returned nil
	Lines       int
}

// Run reads newline-delimited commands from r and applies them to
// alloc, writing one diagnostic line to w per malformed or
// out-of-memory command. It never stops early on a bad line; it keeps
// going and reports what happened, matching heap.Check's philosophy
// of reporting rather than aborting.
func Run(w io.Writer, r io.Reader, alloc *heap.Allocator) (Stats, error) {
	var stats Stats
	live := make(map[string]unsafe.Pointer)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		stats.Lines++

		fields := strings.Fields(line)
		if len(fields) < 2 {
			fmt.Fprintf(w, "tracedriver: line %d: malformed command %q\n", lineNo, line)
			continue
		}

		switch fields[0] {
		case "a":
			if err := runAlloc(alloc, live, fields, lineNo, &stats); err != nil {
				fmt.Fprintf(w, "tracedriver: %v\n", err)
			}
		case "f":
			if err := runFree(alloc, live, fields, lineNo); err != nil {
				fmt.Fprintf(w, "tracedriver: %v\n", err)
			} else {
				stats.Frees++
			}
		case "r":
			if err := runRealloc(alloc, live, fields, lineNo, &stats); err != nil {
				fmt.Fprintf(w, "tracedriver: %v\n", err)
			}
		default:
			fmt.Fprintf(w, "tracedriver: line %d: unknown opcode %q\n", lineNo, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("tracedriver: reading trace: %w", err)
	}
	return stats, nil
}

func runAlloc(alloc *heap.Allocator, live map[string]unsafe.Pointer, fields []string, lineNo int, stats *Stats) error {
	if len(fields) != 3 {
		return fmt.Errorf("line %d: %q needs an id and a size", lineNo, fields[0])
	}
	size, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return fmt.Errorf("line %d: invalid size %q: %w", lineNo, fields[2], err)
	}
	stats.Allocs++
	p := alloc.Malloc(uintptr(size))
	if p == nil {
		stats.OutOfMemory++
		return fmt.Errorf("line %d: alloc %s of %d bytes failed: %w", lineNo, fields[1], size, alloc.LastError())
	}
	live[fields[1]] = p
	return nil
}

func runFree(alloc *heap.Allocator, live map[string]unsafe.Pointer, fields []string, lineNo int) error {
	if len(fields) != 2 {
		return fmt.Errorf("line %d: %q needs an id", lineNo, fields[0])
	}
	addr, ok := live[fields[1]]
	if !ok {
		return fmt.Errorf("line %d: id %s: %w", lineNo, fields[1], ErrUnknownID)
	}
	alloc.Free(addr)
	delete(live, fields[1])
	return nil
}

func runRealloc(alloc *heap.Allocator, live map[string]unsafe.Pointer, fields []string, lineNo int, stats *Stats) error {
	if len(fields) != 3 {
		return fmt.Errorf("line %d: %q needs an id and a size", lineNo, fields[0])
	}
	addr, ok := live[fields[1]]
	if !ok {
		return fmt.Errorf("line %d: id %s: %w", lineNo, fields[1], ErrUnknownID)
	}
	size, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return fmt.Errorf("line %d: invalid size %q: %w", lineNo, fields[2], err)
	}
	stats.Reallocs++
	p := alloc.Realloc(addr, uintptr(size))
	if p == nil && size != 0 {
		stats.OutOfMemory++
		delete(live, fields[1])
		return fmt.Errorf("line %d: realloc %s to %d bytes failed: %w", lineNo, fields[1], size, alloc.LastError())
	}
	if p == nil {
		delete(live, fields[1])
		return nil
	}
	live[fields[1]] = p
	return nil
}
