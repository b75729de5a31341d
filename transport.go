package xbdm

import "io"

// phase names the current mode of the transport adapter stack. The zero
// value, phaseReady, is the only phase in which a new command may be issued.
type phase int

const (
	phaseReady phase = iota
	phaseReadingDots
	phaseReadingBinary
	phaseWritingBinary
	phaseTerminal
)

func (p phase) String() string {
	switch p {
	case phaseReady:
		return "ready"
	case phaseReadingDots:
		return "reading-dots"
	case phaseReadingBinary:
		return "reading-binary"
	case phaseWritingBinary:
		return "writing-binary"
	case phaseTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// payloadStream is the uniform reader/writer surface a Handle exposes; its
// concrete behavior is swapped in place on phase transitions without
// discarding the Session's underlying buffered reader/writer, per the
// adapter swap-in-place requirement: every variant forwards to the same
// bufio.Reader/bufio.Writer identity, only the tag changes.
type payloadStream interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Flush() error
}

// rawStream exposes the Session's transport directly: both directions are
// live. This backs the Ready-over-raw phase (codes 200, 201, 205, and any
// other non-transitional code).
type rawStream struct{ s *Session }

func (r rawStream) Read(p []byte) (int, error)  { return r.s.r.Read(p) }
func (r rawStream) Write(p []byte) (int, error) { return r.s.w.Write(p) }
func (r rawStream) Flush() error                { return r.s.w.Flush() }

// dotStream backs the ReadingDots phase: reads decode the dot-stuffed
// payload; the writer side is inert.
type dotStream struct{ dr *DotReader }

func (d dotStream) Read(p []byte) (int, error)  { return d.dr.Read(p) }
func (d dotStream) Write(p []byte) (int, error) { return 0, nil }
func (d dotStream) Flush() error                { return errNotWritable }

// binaryReadStream backs the ReadingBinary phase: reads are clipped to the
// remaining byte budget; the writer side is inert.
type binaryReadStream struct {
	s         *Session
	remaining *uint64
}

func (b binaryReadStream) Read(p []byte) (int, error) {
	if *b.remaining == 0 {
		return 0, io.EOF
	}
	if uint64(len(p)) > *b.remaining {
		p = p[:*b.remaining]
	}
	n, err := b.s.r.Read(p)
	*b.remaining -= uint64(n)
	return n, err
}
func (b binaryReadStream) Write(p []byte) (int, error) { return 0, nil }
func (b binaryReadStream) Flush() error                { return errNotWritable }

// binaryWriteStream backs the WritingBinary phase: writes are clipped to
// the remaining byte budget; reads always yield 0 bytes (the reader side is
// empty, not erroring).
type binaryWriteStream struct {
	s  *Session
	wb *writeBudget
}

func (b binaryWriteStream) Read(p []byte) (int, error)  { return 0, nil }
func (b binaryWriteStream) Write(p []byte) (int, error) { return b.wb.Write(p) }
func (b binaryWriteStream) Flush() error                { return b.wb.Flush() }
