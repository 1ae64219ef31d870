package heap

import "errors"

// ErrOutOfMemory is returned when the bound ArenaHost cannot grow the
// arena to satisfy a placement request.
var ErrOutOfMemory = errors.New("heap: out of memory")

// ErrInitFailed is returned by Init when the ArenaHost cannot supply
// the initial prologue/epilogue padding.
var ErrInitFailed = errors.New("heap: failed to initialize arena")

// ErrOverflow is returned by Calloc when nmemb*size would overflow.
var ErrOverflow = errors.New("heap: calloc size overflow")
