package xbdm

import (
	"fmt"
	"io"
	"net"
	"testing"
	"time"
)

// TestReconnectorRetriesUntilSuccess starts a listener that closes the
// first connection without a greeting and greets the second, and checks
// that Reconnector retries past the failed attempt instead of giving up.
func TestReconnectorRetriesUntilSuccess(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()

	go func() {
		// First connection: close immediately without a greeting, forcing
		// a bad-response failure.
		conn, err := l.Accept()
		if err != nil {
			return
		}
		conn.Close()

		// Second connection: send a valid greeting.
		conn, err = l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		fmt.Fprint(conn, "201- connected\r\n")
		io.Copy(io.Discard, conn)
	}()

	rc := NewReconnector(l.Addr().String(), ReconnectConfig{
		MaxRetries:   5,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     20 * time.Millisecond,
	})

	s, err := rc.Connect()
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer s.Close()

	if s.Snapshot().ReconnectCount == 0 {
		t.Fatal("expected ReconnectCount to reflect at least one retry")
	}
}

func TestReconnectorGivesUpAfterMaxRetries(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	rc := NewReconnector(l.Addr().String(), ReconnectConfig{
		MaxRetries:   2,
		InitialDelay: 2 * time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	})

	if _, err := rc.Connect(); err == nil {
		t.Fatal("expected Connect to give up after MaxRetries")
	}
}
