package xbdm

import (
	"fmt"
	"io"

	"github.com/rjboer/xbdm/internal/logging"
)

// Handle is the short-lived object returned by Session.Execute. It carries
// the response metadata for the command that produced it and is the only
// place where that command's payload I/O happens. A Handle must be finished
// before the Session can accept another command.
type Handle struct {
	session  *Session
	command  string
	code     StatusCode
	message  string
	finished bool
}

// Command returns the command string that produced this handle.
func (h *Handle) Command() string { return h.command }

// Code returns the response status code.
func (h *Handle) Code() StatusCode { return h.code }

// Message returns the response message text.
func (h *Handle) Message() string { return h.message }

// Limit returns the remaining byte budget and whether one is defined for the
// current phase. Budgets are only defined in ReadingBinary/WritingBinary.
func (h *Handle) Limit() (remaining uint64, ok bool) {
	h.session.mu.Lock()
	defer h.session.mu.Unlock()
	switch h.session.phase {
	case phaseReadingBinary, phaseWritingBinary:
		return h.session.binRemaining, true
	default:
		return 0, false
	}
}

// SetLimit sets the remaining byte budget for a binary payload phase. It is
// valid only in ReadingBinary/WritingBinary and returns a BadResponse-kind
// Error otherwise.
func (h *Handle) SetLimit(n uint64) error {
	h.session.mu.Lock()
	defer h.session.mu.Unlock()
	switch h.session.phase {
	case phaseReadingBinary, phaseWritingBinary:
		h.session.binRemaining = n
		return nil
	default:
		return badResponseError(h.command, fmt.Sprintf("SetLimit is not valid in phase %s", h.session.phase))
	}
}

// Read reads from the payload stream selected by the current phase. In
// phases whose reader side is inert it yields 0 bytes without error.
func (h *Handle) Read(p []byte) (int, error) {
	h.session.mu.Lock()
	stream := h.session.stream()
	h.session.mu.Unlock()

	n, err := stream.Read(p)
	if err != nil && err != io.EOF {
		h.session.markTerminal()
		return n, ioError(h.command, err)
	}
	return n, err
}

// Write writes to the payload stream selected by the current phase. In
// phases whose writer side is inert it reports 0 bytes written without
// error.
func (h *Handle) Write(p []byte) (int, error) {
	h.session.mu.Lock()
	stream := h.session.stream()
	h.session.mu.Unlock()

	n, err := stream.Write(p)
	if err != nil {
		h.session.markTerminal()
		return n, ioError(h.command, err)
	}
	h.session.metrics.bytesSent.Add(uint64(n))

	h.session.mu.Lock()
	if h.session.phase == phaseWritingBinary {
		if uint64(n) > h.session.binRemaining {
			h.session.binRemaining = 0
		} else {
			h.session.binRemaining -= uint64(n)
		}
	}
	h.session.mu.Unlock()
	return n, nil
}

// Finish consumes the handle, restoring the Session to Ready, and returns
// the response code/message it was constructed with.
func (h *Handle) Finish() (StatusCode, string, error) {
	if h.finished {
		return h.code, h.message, nil
	}
	h.finished = true

	s := h.session
	s.mu.Lock()
	p := s.phase
	s.mu.Unlock()

	switch p {
	case phaseReadingDots:
		if err := h.drainDots(); err != nil {
			s.markTerminal()
			return h.code, h.message, ioError(h.command, err)
		}
	case phaseReadingBinary:
		if err := h.drainBinary(); err != nil {
			s.markTerminal()
			return h.code, h.message, ioError(h.command, err)
		}
	case phaseWritingBinary:
		h.zeroFillRemainder()
		if err := s.w.Flush(); err != nil {
			s.markTerminal()
			return h.code, h.message, ioError(h.command, err)
		}
	}

	s.mu.Lock()
	s.phase = phaseReady
	s.dot = nil
	s.binRemaining = 0
	s.inFlight = false
	s.mu.Unlock()

	return h.code, h.message, nil
}

func (h *Handle) drainDots() error {
	buf := make([]byte, 4096)
	for {
		n, err := h.session.dot.Read(buf)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

func (h *Handle) drainBinary() error {
	s := h.session
	buf := make([]byte, 4096)
	for s.binRemaining > 0 {
		want := uint64(len(buf))
		if s.binRemaining < want {
			want = s.binRemaining
		}
		n, err := s.r.Read(buf[:want])
		s.binRemaining -= uint64(n)
		if err != nil {
			return err
		}
	}
	return nil
}

// zeroFillRemainder pads an incomplete upload with zero bytes so the wire
// stays byte-aligned for the next command, logging a warning rather than
// silently desynchronizing the transport or killing an otherwise-healthy
// session over a caller's short upload.
func (h *Handle) zeroFillRemainder() {
	s := h.session
	if s.binRemaining == 0 {
		return
	}
	s.logger.Warn("zero-filling incomplete binary upload", logging.Command(h.command), logging.Field{Key: "remaining", Value: s.binRemaining})

	zero := make([]byte, 4096)
	wb := &writeBudget{w: s.w, remaining: s.binRemaining}
	for wb.remaining > 0 {
		chunk := zero
		if uint64(len(chunk)) > wb.remaining {
			chunk = chunk[:wb.remaining]
		}
		if _, err := wb.Write(chunk); err != nil {
			s.logger.Warn("zero-fill write failed", logging.Command(h.command), logging.Field{Key: "error", Value: err.Error()})
			return
		}
	}
	_ = s.w.Flush()
}
