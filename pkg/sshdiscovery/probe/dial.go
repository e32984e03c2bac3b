package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

// DialStrategy is the primary strategy: a full TCP connect through net.Dialer.
// It classifies refusals, timeouts, unreachable routes and cancellation itself
// and hands everything else (descriptor exhaustion, address errors) to the next
// strategy.
type DialStrategy struct {
	// Dial replaces net.Dialer.DialContext, mainly for tests.
	Dial func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewDialStrategy creates a DialStrategy backed by net.Dialer.
func NewDialStrategy() *DialStrategy {
	return &DialStrategy{}
}

// Name implements Strategy.
func (d *DialStrategy) Name() string { return "dial" }

// Probe implements Strategy.
func (d *DialStrategy) Probe(ctx context.Context, host string, port int, timeout time.Duration) (Result, error) {
	address := joinHostPort(host, port)
	dial := d.Dial
	if dial == nil {
		dialer := &net.Dialer{Timeout: timeout, KeepAlive: -1}
		dial = dialer.DialContext
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	conn, err := dial(dialCtx, "tcp4", address)
	rtt := time.Since(start)

	res := Result{Host: host, Port: port, Method: MethodPrimary, RTT: rtt}
	if err == nil {
		_ = conn.Close()
		res.Open = true
		res.Reason = ReasonOpen
		res.Timestamp = time.Now()
		debugLog("%s open rtt=%dms", address, rtt.Milliseconds())
		return res, nil
	}

	reason, ok := classifyDialError(ctx, err)
	if !ok {
		return Result{}, fmt.Errorf("dial %s: %w", address, err)
	}
	res.Reason = reason
	res.Error = err.Error()
	res.Timestamp = time.Now()
	debugLog("%s %s: %v", address, reason, err)
	return res, nil
}

// classifyDialError maps a dial error to a Reason. ok is false for errors that
// say nothing about the remote port.
func classifyDialError(parent context.Context, err error) (Reason, bool) {
	if parent.Err() != nil || errors.Is(err, context.Canceled) {
		return ReasonCanceled, true
	}
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return ReasonTimeout, true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ReasonTimeout, true
	}
	switch {
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		return ReasonRefused, true
	case errors.Is(err, syscall.EHOSTUNREACH), errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.EHOSTDOWN), errors.Is(err, syscall.ENETDOWN):
		return ReasonUnreachable, true
	case errors.Is(err, syscall.EMFILE), errors.Is(err, syscall.ENFILE),
		errors.Is(err, syscall.ENOBUFS), errors.Is(err, syscall.EADDRNOTAVAIL):
		return "", false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ReasonUnreachable, true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return ReasonError, true
	}
	return "", false
}
