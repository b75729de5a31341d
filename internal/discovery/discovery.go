// Package discovery implements the XBDM UDP discovery/resolution wire
// format: fixed-size broadcast/unicast request packets and a single reply
// packet shape, independent of the TCP session protocol.
package discovery

import (
	"errors"
	"fmt"
	"net"
	"time"
	"unicode/utf8"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"github.com/rjboer/xbdm/internal/logging"
)

// Ports used by both TCP XBDM and UDP discovery.
const (
	Port360     = 730
	PortClassic = 731
)

// MaxNameLength is the largest name payload a name lookup request may carry.
const MaxNameLength = 255

const (
	msgNameLookupRequest = 0x01
	msgProbeRequest      = 0x03
	msgReply             = 0x02
)

// ErrNameTooLong is returned by EncodeNameLookupRequest when name is empty
// or exceeds MaxNameLength.
var ErrNameTooLong = errors.New("discovery: name exceeds 255 bytes")

// EncodeProbeRequest builds the 2-byte probe used both for broadcast
// discovery and for unicast IP lookup.
func EncodeProbeRequest() []byte { return []byte{msgProbeRequest, 0x00} }

// EncodeNameLookupRequest builds a name lookup request packet.
func EncodeNameLookupRequest(name string) ([]byte, error) {
	if len(name) == 0 || len(name) > MaxNameLength {
		return nil, ErrNameTooLong
	}
	buf := make([]byte, 2+len(name))
	buf[0] = msgNameLookupRequest
	buf[1] = byte(len(name))
	copy(buf[2:], name)
	return buf, nil
}

// ParseReply validates and decodes a reply datagram per the wire format:
// { 0x02, len, name[len], ... } arriving from a source port of 730 or 731.
// Any malformed or non-XBDM-port reply is rejected with ok=false.
func ParseReply(data []byte, src *net.UDPAddr) (name string, ok bool) {
	if len(data) < 3 {
		return "", false
	}
	if data[0] != msgReply {
		return "", false
	}
	n := int(data[1])
	if n < 1 {
		return "", false
	}
	if src == nil || (src.Port != Port360 && src.Port != PortClassic) {
		return "", false
	}
	if src.IP.To4() == nil {
		return "", false
	}
	if len(data) < 2+n {
		return "", false
	}
	nameBytes := data[2 : 2+n]
	if !utf8.Valid(nameBytes) {
		return "", false
	}
	return string(nameBytes), true
}

// Conn is an ephemeral UDP socket configured for XBDM discovery: broadcast
// enabled and a per-operation read/write deadline.
type Conn struct {
	sock    *net.UDPConn
	timeout time.Duration
	logger  logging.Logger
}

// Open binds an ephemeral UDP socket, enables broadcast, and applies
// timeout as the per-operation deadline for all sends and receives. A nil
// logger falls back to logging.Default().
func Open(timeout time.Duration, logger logging.Logger) (*Conn, error) {
	if logger == nil {
		logger = logging.Default()
	}

	sock, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, fmt.Errorf("discovery: listen: %w", err)
	}

	if err := enableBroadcast(sock); err != nil {
		_ = sock.Close()
		return nil, fmt.Errorf("discovery: enable broadcast: %w", err)
	}

	// Explicit TTL control matches how LAN-local discovery broadcasts are
	// expected to behave: one hop, never forwarded past the local subnet.
	pconn := ipv4.NewPacketConn(sock)
	_ = pconn.SetControlMessage(ipv4.FlagTTL, true)
	_ = pconn.SetTTL(1)

	logger.Debug("discovery socket opened", logging.Addr(sock.LocalAddr().String()))
	return &Conn{sock: sock, timeout: timeout, logger: logger}, nil
}

func enableBroadcast(sock *net.UDPConn) error {
	raw, err := sock.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// Close releases the socket.
func (c *Conn) Close() error { return c.sock.Close() }

// Broadcast sends payload to 255.255.255.255 on both XBDM ports.
func (c *Conn) Broadcast(payload []byte) error {
	return c.sendTo(payload, net.IPv4bcast)
}

// SendTo sends payload to ip on both XBDM ports.
func (c *Conn) SendTo(payload []byte, ip net.IP) error {
	return c.sendTo(payload, ip)
}

func (c *Conn) sendTo(payload []byte, ip net.IP) error {
	_ = c.sock.SetWriteDeadline(time.Now().Add(c.timeout))
	for _, port := range [2]int{Port360, PortClassic} {
		if _, err := c.sock.WriteToUDP(payload, &net.UDPAddr{IP: ip, Port: port}); err != nil {
			c.logger.Warn("discovery send failed", logging.Addr(fmt.Sprintf("%s:%d", ip, port)), logging.Field{Key: "error", Value: err.Error()})
			return fmt.Errorf("discovery: send to %s:%d: %w", ip, port, err)
		}
	}
	return nil
}

// Next reads one datagram within the configured timeout. ok is false on
// timeout or any read error, which ends the discovery/resolution loop.
func (c *Conn) Next() (data []byte, src *net.UDPAddr, ok bool) {
	_ = c.sock.SetReadDeadline(time.Now().Add(c.timeout))
	buf := make([]byte, 512)
	n, addr, err := c.sock.ReadFromUDP(buf)
	if err != nil {
		c.logger.Debug("discovery read ended", logging.Field{Key: "error", Value: err.Error()})
		return nil, nil, false
	}
	return buf[:n], addr, true
}
