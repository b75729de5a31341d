package xbdm

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rjboer/xbdm/internal/logging"
)

func TestResolveNameEmptyReturnsNilWithoutIO(t *testing.T) {
	xbox, err := ResolveName("")
	if xbox != nil || err != nil {
		t.Fatalf("ResolveName(\"\") = (%v, %v), want (nil, nil)", xbox, err)
	}
}

func TestResolveNameTooLongReturnsErrorWithoutIO(t *testing.T) {
	name := strings.Repeat("x", MaxNameLength+1)
	xbox, err := ResolveName(name)
	if xbox != nil {
		t.Fatalf("ResolveName(over-long) returned non-nil Xbox %v", xbox)
	}
	if !errors.Is(err, errInvalidNameLength) {
		t.Fatalf("ResolveName(over-long) error = %v, want wrapping errInvalidNameLength", err)
	}
}

func TestResolveConfigAppliesDiscoverOptions(t *testing.T) {
	custom := logging.New(logging.Debug, logging.Text, io.Discard)
	cfg := resolveConfig([]DiscoverOption{
		WithDiscoverTimeout(50 * time.Millisecond),
		WithDiscoverLogger(custom),
	})
	if cfg.timeout != 50*time.Millisecond {
		t.Fatalf("timeout = %v, want 50ms", cfg.timeout)
	}
	if cfg.logger != custom {
		t.Fatal("WithDiscoverLogger did not install the provided logger")
	}
}

func TestResolveConfigDefaults(t *testing.T) {
	cfg := resolveConfig(nil)
	if cfg.timeout != discoverTimeout {
		t.Fatalf("default timeout = %v, want %v", cfg.timeout, discoverTimeout)
	}
	if cfg.logger == nil {
		t.Fatal("default logger must not be nil")
	}
}

func TestXboxSocketAddrAndPortHelpers(t *testing.T) {
	x360 := Xbox{Port: Port360}
	if !x360.Is360() || x360.IsClassic() {
		t.Fatalf("Xbox with port %d misclassified", x360.Port)
	}
	if addr := x360.SocketAddr(); addr.Port != Port360 {
		t.Fatalf("SocketAddr().Port = %d, want %d", addr.Port, Port360)
	}

	xClassic := Xbox{Port: PortClassic}
	if !xClassic.IsClassic() || xClassic.Is360() {
		t.Fatalf("Xbox with port %d misclassified", xClassic.Port)
	}
}
