package xbdm

import (
	"bufio"
	"errors"
)

// errNotWritable is returned by Flush when the current phase's writer side
// is inert.
var errNotWritable = errors.New("xbdm: not writable in this phase")

// writeBudget wraps a writer with a running byte budget: each write is
// clipped to at most remaining bytes, and once remaining reaches zero,
// writes report 0 bytes written without touching the underlying sink.
type writeBudget struct {
	w         *bufio.Writer
	remaining uint64
}

// Write writes up to w.remaining bytes of p, decrementing the budget by the
// number of bytes actually written.
func (wb *writeBudget) Write(p []byte) (int, error) {
	if wb.remaining == 0 {
		return 0, nil
	}
	if uint64(len(p)) > wb.remaining {
		p = p[:wb.remaining]
	}
	n, err := wb.w.Write(p)
	wb.remaining -= uint64(n)
	return n, err
}

// Flush delegates to the underlying sink.
func (wb *writeBudget) Flush() error {
	return wb.w.Flush()
}
