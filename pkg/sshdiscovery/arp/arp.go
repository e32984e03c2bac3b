// Package arp resolves the MAC address of an IPv4 neighbour.
// On some systems ARP requests require elevated privileges.
package arp

import (
	"errors"
	"net"
	"time"
)

// DefaultTimeout is the default timeout for one ARP request.
const DefaultTimeout = 1 * time.Second

// DefaultConcurrency bounds the number of ARP requests in flight.
const DefaultConcurrency = 32

// ErrNotSupported is returned on platforms without ARP support.
var ErrNotSupported = errors.New("ARP lookup is not supported on this platform")

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from ARP operations.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// Entry is the outcome of one lookup.
type Entry struct {
	Host     string
	MAC      net.HardwareAddr
	Duration time.Duration
	Err      error
}

// PingFunc sends one ARP request and waits for the reply.
type PingFunc func(ip net.IP, timeout time.Duration) (net.HardwareAddr, time.Duration, error)

// Resolver performs ARP lookups.
type Resolver struct {
	Timeout     time.Duration
	Concurrency int
	// Ping overrides the platform ARP implementation.
	Ping PingFunc
}

// NewResolver creates a Resolver with defaults.
func NewResolver() *Resolver {
	return &Resolver{Timeout: DefaultTimeout, Concurrency: DefaultConcurrency}
}

func (r *Resolver) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

func (r *Resolver) concurrency() int64 {
	if r.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return int64(r.Concurrency)
}
