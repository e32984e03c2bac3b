// Package probe tests whether a TCP port accepts connections.
//
// A Prober tries an ordered list of strategies. The first strategy that
// produces a result wins; a strategy that is unavailable on this platform, or
// that fails in a way it cannot classify, hands over to the next one. Probing
// never returns an error: every outcome is a Result with Open set and a Method
// tag describing how it was obtained.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Method identifies how a probe result was obtained.
type Method string

const (
	MethodPrimary         Method = "PRIMARY"
	MethodFallbackTimeout Method = "FALLBACK_TIMEOUT"
	MethodFallbackOK      Method = "FALLBACK_OK"
	MethodFallbackError   Method = "FALLBACK_ERROR"
	MethodInitError       Method = "INIT_ERROR"
)

// Reason is a coarse classification of a probe outcome, used for console output.
type Reason string

const (
	ReasonOpen        Reason = "open"
	ReasonRefused     Reason = "refused"
	ReasonTimeout     Reason = "timeout"
	ReasonUnreachable Reason = "unreachable"
	ReasonCanceled    Reason = "canceled"
	ReasonError       Reason = "error"
)

// DefaultTimeout is the per-probe timeout used when none is given.
const DefaultTimeout = 3 * time.Second

// ErrUnavailable is returned by a Strategy that cannot run on this platform or configuration.
var ErrUnavailable = errors.New("probe strategy unavailable")

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from probe operations.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// Result is the outcome of one probe. It is never mutated after construction.
type Result struct {
	// Host is the probed address or hostname, as given.
	Host      string
	Port      int
	Open      bool
	Timestamp time.Time
	Method    Method
	Reason    Reason
	RTT       time.Duration
	// Error holds the underlying error text for closed results, if any.
	Error string
}

// Target returns host:port.
func (r Result) Target() string {
	return joinHostPort(r.Host, r.Port)
}

// Strategy performs a single reachability test.
type Strategy interface {
	Name() string
	// Probe returns ErrUnavailable (possibly wrapped) when it cannot run, or any
	// other error when it failed unexpectedly and the next strategy should try.
	Probe(ctx context.Context, host string, port int, timeout time.Duration) (Result, error)
}

// Prober runs strategies in priority order.
type Prober struct {
	Strategies []Strategy
}

// New creates a Prober with the dial strategy followed by the socket fallback.
func New() *Prober {
	return &Prober{Strategies: []Strategy{NewDialStrategy(), NewSocketStrategy()}}
}

// Mode selects which strategies a Prober uses.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModePrimary  Mode = "primary"
	ModeFallback Mode = "fallback"
)

// ForMode creates a Prober for the given mode.
func ForMode(mode Mode) (*Prober, error) {
	switch mode {
	case ModeAuto, "":
		return New(), nil
	case ModePrimary:
		return &Prober{Strategies: []Strategy{NewDialStrategy()}}, nil
	case ModeFallback:
		return &Prober{Strategies: []Strategy{NewSocketStrategy()}}, nil
	}
	return nil, fmt.Errorf("unknown probe mode %q", mode)
}

// Probe tests host:port. It always returns a Result.
func (p *Prober) Probe(ctx context.Context, host string, port int, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	var lastErr error
	for _, s := range p.Strategies {
		res, err := runStrategy(ctx, s, host, port, timeout)
		if err == nil {
			if res.Timestamp.IsZero() {
				res.Timestamp = time.Now()
			}
			return res
		}
		if errors.Is(err, ErrUnavailable) {
			debugLog("%s: strategy %s unavailable", joinHostPort(host, port), s.Name())
		} else {
			debugLog("%s: strategy %s failed: %v", joinHostPort(host, port), s.Name(), err)
		}
		lastErr = err
	}

	res := Result{Host: host, Port: port, Method: MethodInitError, Reason: ReasonError, Timestamp: time.Now()}
	if lastErr != nil {
		res.Error = lastErr.Error()
	} else {
		res.Error = "no probe strategies configured"
	}
	return res
}

// runStrategy calls s.Probe and turns a panic into an error.
func runStrategy(ctx context.Context, s Strategy, host string, port int, timeout time.Duration) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy %s panicked: %v", s.Name(), r)
		}
	}()
	return s.Probe(ctx, host, port, timeout)
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
