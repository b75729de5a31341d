package xbdm

import (
	"time"

	"github.com/cenkalti/backoff"

	"github.com/rjboer/xbdm/internal/logging"
)

// ReconnectConfig configures a Reconnector's retry behavior.
type ReconnectConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// OnReconnect is called after a successful reconnect, before the new
	// Session is handed back, so callers can restore per-session state
	// (e.g. re-issue a "dedicated connection" command).
	OnReconnect func(*Session) error
}

// Reconnector retries Connect with exponential backoff after a fatal
// session loss. It never retries a CommandFailed error — only the loss of
// the transport itself, matching the fatal/non-fatal partition of Error.
type Reconnector struct {
	Addr    string
	Config  ReconnectConfig
	Options []Option

	logger logging.Logger
}

// NewReconnector builds a Reconnector for addr.
func NewReconnector(addr string, cfg ReconnectConfig, opts ...Option) *Reconnector {
	return &Reconnector{Addr: addr, Config: cfg, Options: opts, logger: logging.Default()}
}

// Connect dials addr, retrying with exponential backoff on any fatal connect
// failure, for at most MaxRetries connection attempts in total (0 means
// unlimited).
func (rc *Reconnector) Connect() (*Session, error) {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     nonZero(rc.Config.InitialDelay, 250*time.Millisecond),
		RandomizationFactor: 0.2,
		Multiplier:          2,
		MaxInterval:         nonZero(rc.Config.MaxDelay, 10*time.Second),
		MaxElapsedTime:      0,
		Clock:               backoff.SystemClock,
	}
	b.Reset()

	var lastErr error
	attempts := 0
	for {
		s, err := Connect(rc.Addr, rc.Options...)
		if err == nil {
			if rc.Config.OnReconnect != nil {
				if herr := rc.Config.OnReconnect(s); herr != nil {
					return nil, herr
				}
			}
			s.metrics.reconnectCount.Add(uint32(attempts))
			return s, nil
		}
		lastErr = err
		attempts++
		if rc.Config.MaxRetries > 0 && attempts >= rc.Config.MaxRetries {
			return nil, lastErr
		}

		delay := b.NextBackOff()
		if delay == backoff.Stop {
			return nil, lastErr
		}
		rc.logger.Warn("reconnect attempt failed", logging.Addr(rc.Addr), logging.Field{Key: "attempt", Value: attempts}, logging.Field{Key: "error", Value: err.Error()})
		time.Sleep(delay)
	}
}

func nonZero(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
