package xbdm

import "io"

// dotState is one state of the dot-stuffing decoder.
type dotState int

const (
	stateBeginLine dotState = iota
	stateDot
	stateDotCr
	stateCr
	stateData
	stateEOF
)

// DotReader decodes an SMTP-style dot-stuffed payload from inner: it strips
// the ".\r\n" (or ".\n") sentinel line, un-escapes a leading "." on any other
// line, and normalizes CRLF to a single LF. It operates byte-by-byte and
// never looks ahead more than one byte (held in saved).
type DotReader struct {
	inner io.Reader
	state dotState

	saved    byte
	savedSet bool

	one [1]byte
}

// NewDotReader wraps inner in a dot-stuffing decoder, starting at the
// beginning of a line.
func NewDotReader(inner io.Reader) *DotReader {
	return &DotReader{inner: inner, state: stateBeginLine}
}

// Read implements io.Reader. Once the sentinel line has been consumed, Read
// returns (0, io.EOF) on every subsequent call.
func (d *DotReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if d.state == stateEOF {
			if n > 0 {
				return n, nil
			}
			return 0, io.EOF
		}

		if d.savedSet {
			p[n] = d.saved
			d.savedSet = false
			n++
			continue
		}

		if _, err := io.ReadFull(d.inner, d.one[:]); err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}

		next, emit, out, save, doSave := step(d.state, d.one[0])
		d.state = next
		if doSave {
			d.saved = save
			d.savedSet = true
		}
		if emit {
			p[n] = out
			n++
		}
	}
	return n, nil
}

// step applies one byte of input to the decoder state machine, returning the
// next state, whether a byte should be emitted (and which one), and whether
// the input byte must be deferred (saved). A saved byte is emitted verbatim,
// without another step, before the next input byte is read.
func step(state dotState, b byte) (next dotState, emit bool, out byte, save byte, doSave bool) {
	switch state {
	case stateBeginLine:
		switch b {
		case '.':
			return stateDot, false, 0, 0, false
		case '\r':
			return stateCr, false, 0, 0, false
		case '\n':
			return stateBeginLine, true, '\n', 0, false
		default:
			return stateData, true, b, 0, false
		}
	case stateDot:
		switch b {
		case '.':
			return stateData, true, '.', 0, false
		case '\r':
			return stateDotCr, false, 0, 0, false
		case '\n':
			return stateEOF, false, 0, 0, false
		default:
			return stateData, true, b, 0, false
		}
	case stateDotCr:
		if b == '\n' {
			return stateEOF, false, 0, 0, false
		}
		// '.', '\r', or any other byte: the held-back CR did not end the
		// sentinel line, so it is emitted now and b is saved, to be emitted
		// as-is next with the state set to Data.
		return stateData, true, '\r', b, true
	case stateCr:
		switch b {
		case '\n':
			return stateBeginLine, true, '\n', 0, false
		default:
			return stateData, true, '\r', b, true
		}
	case stateData:
		switch b {
		case '\r':
			return stateCr, false, 0, 0, false
		case '\n':
			return stateBeginLine, true, '\n', 0, false
		default:
			return stateData, true, b, 0, false
		}
	default:
		return state, false, 0, 0, false
	}
}
