// Package dns provides reverse DNS (PTR) lookups for discovered hosts.
package dns

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout is the default timeout for one lookup.
const DefaultTimeout = 2 * time.Second

// DefaultWorkers is the default number of concurrent lookups.
const DefaultWorkers = 32

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from DNS operations.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// Name is the outcome of one reverse lookup.
type Name struct {
	Host     string
	Hostname string   // first PTR record
	All      []string // every PTR record, trailing dots removed
	Err      error
}

// LookupFunc matches (*net.Resolver).LookupAddr.
type LookupFunc func(ctx context.Context, addr string) ([]string, error)

// Reverse performs PTR lookups.
type Reverse struct {
	Timeout time.Duration
	Workers int
	// Lookup overrides the system resolver.
	Lookup LookupFunc
}

// NewReverse creates a Reverse resolver with defaults.
func NewReverse() *Reverse {
	return &Reverse{Timeout: DefaultTimeout, Workers: DefaultWorkers}
}

// LookupAddr returns the PTR names of ip.
func (d *Reverse) LookupAddr(ctx context.Context, ip string) Name {
	res := Name{Host: ip}
	lookup := d.Lookup
	if lookup == nil {
		lookup = net.DefaultResolver.LookupAddr
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	lookupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	names, err := lookup(lookupCtx, ip)
	if err != nil {
		res.Err = err
		debugLog("%s: lookup failed: %v", ip, err)
		return res
	}
	for i, name := range names {
		names[i] = strings.TrimSuffix(name, ".")
	}
	res.All = names
	if len(names) > 0 {
		res.Hostname = names[0]
		debugLog("%s -> %s", ip, res.Hostname)
	}
	return res
}

// LookupMultiple resolves ips concurrently. Results are in input order;
// entries not attempted before ctx was cancelled carry ctx.Err().
func (d *Reverse) LookupMultiple(ctx context.Context, ips []string) []Name {
	if len(ips) == 0 {
		return nil
	}
	workers := d.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make([]Name, len(ips))
	for i, ip := range ips {
		results[i] = Name{Host: ip}
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers && i < len(ips); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = d.LookupAddr(ctx, ips[idx])
			}
		}()
	}

	next := 0
enqueue:
	for ; next < len(ips); next++ {
		select {
		case jobs <- next:
		case <-ctx.Done():
			break enqueue
		}
	}
	close(jobs)
	wg.Wait()
	for ; next < len(ips); next++ {
		results[next].Err = ctx.Err()
	}
	return results
}
