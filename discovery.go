package xbdm

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rjboer/xbdm/internal/discovery"
	"github.com/rjboer/xbdm/internal/logging"
)

// errInvalidNameLength is the sentinel wrapped into ResolveName's error for
// names longer than MaxNameLength, matching an InvalidInput I/O failure.
var errInvalidNameLength = errors.New("invalid input")

// discoverTimeout is the per-operation UDP timeout used by Discover and the
// Resolve* family.
const discoverTimeout = 300 * time.Millisecond

// DiscoverOption configures Discover/Resolve/ResolveIP/ResolveName.
type DiscoverOption func(*discoverConfig)

type discoverConfig struct {
	timeout time.Duration
	logger  logging.Logger
}

// WithDiscoverTimeout overrides the default 300ms per-operation timeout.
func WithDiscoverTimeout(d time.Duration) DiscoverOption {
	return func(c *discoverConfig) { c.timeout = d }
}

// WithDiscoverLogger attaches a structured logger to Discover/Resolve*,
// mirroring Session's WithLogger. Defaults to logging.Default() when unset.
func WithDiscoverLogger(l logging.Logger) DiscoverOption {
	return func(c *discoverConfig) { c.logger = l }
}

func resolveConfig(opts []DiscoverOption) discoverConfig {
	cfg := discoverConfig{timeout: discoverTimeout, logger: logging.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// DiscoveryIterator yields Xbox descriptors discovered over the LAN
// broadcast, one per received reply, until a read times out or fails.
type DiscoveryIterator struct {
	conn *discovery.Conn
}

// Next reads one reply within the configured timeout and returns the Xbox
// it describes. ok is false once the timeout elapses or the socket errors,
// ending iteration. Malformed or non-XBDM-port replies are skipped
// transparently.
func (it *DiscoveryIterator) Next() (Xbox, bool) {
	for {
		data, src, ok := it.conn.Next()
		if !ok {
			return Xbox{}, false
		}
		name, valid := discovery.ParseReply(data, src)
		if !valid {
			continue
		}
		return Xbox{IP: src.IP, Port: uint16(src.Port), Name: name}, true
	}
}

// Close releases the discovery socket.
func (it *DiscoveryIterator) Close() error { return it.conn.Close() }

// Discover broadcasts a discovery probe on both XBDM ports and returns an
// iterator over the replies.
func Discover(opts ...DiscoverOption) (*DiscoveryIterator, error) {
	cfg := resolveConfig(opts)
	conn, err := discovery.Open(cfg.timeout, cfg.logger)
	if err != nil {
		return nil, err
	}
	if err := conn.Broadcast(discovery.EncodeProbeRequest()); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &DiscoveryIterator{conn: conn}, nil
}

// ResolveIP sends the IP lookup request to ip's XBDM ports and returns the
// first reply whose source address equals ip, or nil if the timeout
// elapses without a match.
func ResolveIP(ip net.IP, opts ...DiscoverOption) (*Xbox, error) {
	cfg := resolveConfig(opts)
	conn, err := discovery.Open(cfg.timeout, cfg.logger)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := conn.SendTo(discovery.EncodeProbeRequest(), ip); err != nil {
		return nil, err
	}
	for {
		data, src, ok := conn.Next()
		if !ok {
			return nil, nil
		}
		name, valid := discovery.ParseReply(data, src)
		if !valid {
			continue
		}
		if src.IP.Equal(ip) {
			return &Xbox{IP: src.IP, Port: uint16(src.Port), Name: name}, nil
		}
	}
}

// ResolveName broadcasts a name lookup request and returns the first reply
// whose decoded name equals name, or nil if the timeout elapses without a
// match. An empty name returns (nil, nil) without any network I/O; a name
// longer than MaxNameLength returns an error without any network I/O.
func ResolveName(name string, opts ...DiscoverOption) (*Xbox, error) {
	if name == "" {
		return nil, nil
	}
	if len(name) > MaxNameLength {
		return nil, fmt.Errorf("discovery: invalid name length %d: %w", len(name), errInvalidNameLength)
	}

	cfg := resolveConfig(opts)
	conn, err := discovery.Open(cfg.timeout, cfg.logger)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	req, err := discovery.EncodeNameLookupRequest(name)
	if err != nil {
		return nil, err
	}
	if err := conn.Broadcast(req); err != nil {
		return nil, err
	}

	for {
		data, src, ok := conn.Next()
		if !ok {
			return nil, nil
		}
		gotName, valid := discovery.ParseReply(data, src)
		if !valid {
			continue
		}
		if gotName == name {
			return &Xbox{IP: src.IP, Port: uint16(src.Port), Name: gotName}, nil
		}
	}
}

// Resolve dispatches to ResolveIP when host parses as an IPv4 literal, and
// to ResolveName otherwise.
func Resolve(host string, opts ...DiscoverOption) (*Xbox, error) {
	if ip := net.ParseIP(host); ip != nil && ip.To4() != nil {
		return ResolveIP(ip.To4(), opts...)
	}
	return ResolveName(host, opts...)
}
