package discovery

import (
	"net"
	"strings"
	"testing"
)

func udpAddr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4(192, 168, 1, 42), Port: port}
}

func TestParseReplyAccepted(t *testing.T) {
	data := append([]byte{msgReply, 5}, []byte("xbox1")...)
	name, ok := ParseReply(data, udpAddr(Port360))
	if !ok || name != "xbox1" {
		t.Fatalf("ParseReply = (%q, %v), want (\"xbox1\", true)", name, ok)
	}
}

func TestParseReplyRejectsTooShort(t *testing.T) {
	if _, ok := ParseReply([]byte{msgReply, 1}, udpAddr(Port360)); ok {
		t.Fatal("expected rejection of a too-short packet")
	}
}

func TestParseReplyRejectsWrongMessageByte(t *testing.T) {
	data := append([]byte{msgNameLookupRequest, 3}, []byte("abc")...)
	if _, ok := ParseReply(data, udpAddr(Port360)); ok {
		t.Fatal("expected rejection of a non-reply message byte")
	}
}

func TestParseReplyRejectsZeroLengthName(t *testing.T) {
	data := []byte{msgReply, 0, 'x'}
	if _, ok := ParseReply(data, udpAddr(Port360)); ok {
		t.Fatal("expected rejection of a zero-length name")
	}
}

func TestParseReplyRejectsWrongSourcePort(t *testing.T) {
	data := append([]byte{msgReply, 3}, []byte("abc")...)
	if _, ok := ParseReply(data, udpAddr(9999)); ok {
		t.Fatal("expected rejection of a non-XBDM source port")
	}
}

func TestParseReplyRejectsNonIPv4Source(t *testing.T) {
	data := append([]byte{msgReply, 3}, []byte("abc")...)
	src := &net.UDPAddr{IP: net.ParseIP("::1"), Port: Port360}
	if _, ok := ParseReply(data, src); ok {
		t.Fatal("expected rejection of a non-IPv4 source address")
	}
}

func TestParseReplyRejectsInvalidUTF8(t *testing.T) {
	data := append([]byte{msgReply, 2}, 0xff, 0xfe)
	if _, ok := ParseReply(data, udpAddr(Port360)); ok {
		t.Fatal("expected rejection of invalid UTF-8 in the name field")
	}
}

func TestParseReplyRejectsNilSource(t *testing.T) {
	data := append([]byte{msgReply, 3}, []byte("abc")...)
	if _, ok := ParseReply(data, nil); ok {
		t.Fatal("expected rejection of a nil source address")
	}
}

func TestEncodeNameLookupRequestBoundaries(t *testing.T) {
	if _, err := EncodeNameLookupRequest(""); err != ErrNameTooLong {
		t.Fatalf("empty name: err = %v, want ErrNameTooLong", err)
	}
	if _, err := EncodeNameLookupRequest(strings.Repeat("x", MaxNameLength+1)); err != ErrNameTooLong {
		t.Fatalf("over-long name: err = %v, want ErrNameTooLong", err)
	}

	name := strings.Repeat("x", MaxNameLength)
	req, err := EncodeNameLookupRequest(name)
	if err != nil {
		t.Fatalf("max-length name: unexpected error %v", err)
	}
	if req[0] != msgNameLookupRequest || int(req[1]) != MaxNameLength {
		t.Fatalf("unexpected header bytes %v", req[:2])
	}
}

func TestEncodeProbeRequest(t *testing.T) {
	req := EncodeProbeRequest()
	if len(req) != 2 || req[0] != msgProbeRequest {
		t.Fatalf("EncodeProbeRequest = %v, want a 2-byte probe message", req)
	}
}

func TestConnNextTimesOutWithoutTraffic(t *testing.T) {
	// Open is the only piece exercisable without a privileged XBDM port
	// (730/731) bound on the far end; Next must return ok=false once its
	// deadline elapses rather than blocking forever.
	c, err := Open(50_000_000, nil) // 50ms
	if err != nil {
		t.Skipf("Open: %v (environment may not permit UDP broadcast sockets)", err)
	}
	defer c.Close()

	if _, _, ok := c.Next(); ok {
		t.Fatal("expected Next to time out on an idle socket")
	}
}
