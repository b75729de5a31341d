package xbdm

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rjboer/xbdm/internal/logging"
)

// Metrics is a point-in-time snapshot of a Session's activity counters,
// returned by Session.Snapshot. Mirrors the counters a long-running client
// typically wants to expose on a /debug or /metrics endpoint.
type Metrics struct {
	CommandsSent   uint64
	CommandsFailed uint64
	BytesSent      uint64
	BytesReceived  uint64
	ReconnectCount uint32
}

// sessionMetrics holds the live atomic counters backing Session.Snapshot.
type sessionMetrics struct {
	commandsSent   atomic.Uint64
	commandsFailed atomic.Uint64
	bytesSent      atomic.Uint64
	bytesReceived  atomic.Uint64
	reconnectCount atomic.Uint32
}

// Snapshot returns a consistent-at-a-glance copy of the session's activity
// counters.
func (s *Session) Snapshot() Metrics {
	return Metrics{
		CommandsSent:   s.metrics.commandsSent.Load(),
		CommandsFailed: s.metrics.commandsFailed.Load(),
		BytesSent:      s.metrics.bytesSent.Load(),
		BytesReceived:  s.metrics.bytesReceived.Load(),
		ReconnectCount: s.metrics.reconnectCount.Load(),
	}
}

// Session is a single long-lived XBDM TCP connection. Commands are strictly
// serialized: Connect, then (Execute, Finish)* in sequence, then Close. A
// Session is not safe for concurrent use by multiple goroutines issuing
// commands at once.
type Session struct {
	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer

	mu       sync.Mutex
	inFlight bool
	phase    phase

	dot          *DotReader
	binRemaining uint64

	logger  logging.Logger
	metrics sessionMetrics
}

type config struct {
	dialTimeout time.Duration
	timeout     time.Duration
	logger      logging.Logger
}

// Option configures Connect.
type Option func(*config)

// WithDialTimeout bounds how long Connect waits for the TCP handshake.
func WithDialTimeout(d time.Duration) Option {
	return func(c *config) { c.dialTimeout = d }
}

// WithTimeout sets a single read/write deadline on the connection, d after
// the TCP connection is established. The deadline is not refreshed per
// operation: every socket operation after that moment fails with a timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithLogger attaches a structured logger to the Session.
func WithLogger(l logging.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Connect dials addr, reads the greeting line, and returns a Session in the
// Ready phase. Any I/O failure or a greeting whose code is not Connected
// (201) is fatal; the transport is closed before returning.
func Connect(addr string, opts ...Option) (*Session, error) {
	cfg := config{dialTimeout: 10 * time.Second, logger: logging.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	conn, err := net.DialTimeout("tcp", addr, cfg.dialTimeout)
	if err != nil {
		return nil, ioError("", err)
	}

	s := &Session{
		conn:   conn,
		r:      bufio.NewReader(conn),
		w:      bufio.NewWriter(conn),
		phase:  phaseReady,
		logger: cfg.logger,
	}
	if cfg.timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(cfg.timeout))
	}

	code, message, perr := s.readResponseLine("")
	if perr != nil {
		_ = conn.Close()
		return nil, perr
	}
	if code != StatusConnected {
		_ = conn.Close()
		return nil, badResponseError("", fmt.Sprintf("unexpected response: %s- %s", code, message))
	}

	s.logger.Info("connected", logging.Addr(addr), logging.Code(code.ToU16()))
	return s, nil
}

// Close closes the underlying connection. The session must not be used
// afterward.
func (s *Session) Close() error {
	s.mu.Lock()
	s.phase = phaseTerminal
	s.mu.Unlock()
	return s.conn.Close()
}

// Execute sends command followed by CRLF, reads and classifies the response,
// and — on success — establishes the payload phase the response code
// selects, returning a Handle bound to that phase. At most one Handle may
// exist per Session at a time.
func (s *Session) Execute(expected ExpectedCodes, command string) (*Handle, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, fmt.Errorf("xbdm: a command is already in flight on this session")
	}
	if s.phase == phaseTerminal {
		s.mu.Unlock()
		return nil, fmt.Errorf("xbdm: session is terminal")
	}
	s.mu.Unlock()

	if err := s.writeCommand(command); err != nil {
		s.markTerminal()
		return nil, err
	}
	s.metrics.commandsSent.Add(1)

	code, message, perr := s.readResponseLine(command)
	if perr != nil {
		s.markTerminal()
		s.metrics.commandsFailed.Add(1)
		return nil, perr
	}

	if code.IsFailure() {
		s.metrics.commandsFailed.Add(1)
		return nil, commandFailedError(command, code, message)
	}

	if !expected.Contains(code) {
		s.markTerminal()
		s.metrics.commandsFailed.Add(1)
		return nil, badResponseError(command, fmt.Sprintf("unexpected response: %s- %s", code, message))
	}

	s.mu.Lock()
	s.inFlight = true
	s.establishPhase(code)
	s.mu.Unlock()

	s.logger.Debug("command accepted", logging.Command(command), logging.Code(code.ToU16()), logging.Phase(s.phase.String()))

	return &Handle{session: s, command: command, code: code, message: message}, nil
}

// establishPhase sets up the payload adapter for a just-accepted response
// code. Caller holds s.mu.
func (s *Session) establishPhase(code StatusCode) {
	switch code {
	case StatusMultilineResponseFollows:
		s.phase = phaseReadingDots
		s.dot = NewDotReader(s.r)
	case StatusBinaryResponseFollows:
		s.phase = phaseReadingBinary
		s.binRemaining = 0
	case StatusSendBinaryData:
		s.phase = phaseWritingBinary
		s.binRemaining = 0
	default:
		s.phase = phaseReady
	}
}

// stream returns the payloadStream for the session's current phase. Caller
// holds s.mu.
func (s *Session) stream() payloadStream {
	switch s.phase {
	case phaseReadingDots:
		return dotStream{dr: s.dot}
	case phaseReadingBinary:
		return binaryReadStream{s: s, remaining: &s.binRemaining}
	case phaseWritingBinary:
		return binaryWriteStream{s: s, wb: &writeBudget{w: s.w, remaining: s.binRemaining}}
	default:
		return rawStream{s: s}
	}
}

func (s *Session) markTerminal() {
	s.mu.Lock()
	s.phase = phaseTerminal
	s.mu.Unlock()
}

// writeCommand writes command+CRLF and flushes, coalescing all three steps
// into a single reported failure.
func (s *Session) writeCommand(command string) *Error {
	if _, err := s.w.WriteString(command); err != nil {
		return ioError(command, err)
	}
	if _, err := s.w.WriteString("\r\n"); err != nil {
		return ioError(command, err)
	}
	if err := s.w.Flush(); err != nil {
		return ioError(command, err)
	}
	s.metrics.bytesSent.Add(uint64(len(command) + 2))
	return nil
}

// readResponseLine reads and parses one "ddd- message\r\n" line.
func (s *Session) readResponseLine(command string) (StatusCode, string, *Error) {
	line, err := s.r.ReadString('\n')
	if err != nil {
		return 0, "", syntheticIOError(KindBadResponse, command, "did not receive a line")
	}
	s.metrics.bytesReceived.Add(uint64(len(line)))

	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")

	if len(line) < 5 {
		return 0, "", badResponseError(command, "too short")
	}

	n, err := strconv.ParseUint(line[0:3], 10, 16)
	if err != nil {
		return 0, "", badResponseError(command, "invalid status code")
	}

	return StatusCode(n), line[5:], nil
}
