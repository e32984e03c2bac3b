//go:build linux || darwin || freebsd || netbsd || openbsd

package arp

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/j-keck/arping"
	"golang.org/x/sync/semaphore"

	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/addr"
)

// arping keeps its timeout in a package variable; each Ping opens its own socket.
var (
	arpingMu      sync.Mutex
	arpingTimeout time.Duration
	arpingSend    = arping.Ping
)

func setArpingTimeout(timeout time.Duration) {
	arpingMu.Lock()
	defer arpingMu.Unlock()
	if arpingTimeout != timeout {
		arping.SetTimeout(timeout)
		arpingTimeout = timeout
	}
}

func arpingPing(ip net.IP, timeout time.Duration) (net.HardwareAddr, time.Duration, error) {
	setArpingTimeout(timeout)
	return arpingSend(ip)
}

// Lookup resolves the MAC address of a.
func (r *Resolver) Lookup(ctx context.Context, a addr.Address) Entry {
	entry := Entry{Host: a.String()}
	ping := r.Ping
	if ping == nil {
		ping = arpingPing
	}

	type reply struct {
		mac net.HardwareAddr
		dur time.Duration
		err error
	}
	replies := make(chan reply, 1)
	start := time.Now()
	go func() {
		mac, dur, err := ping(a.IP(), r.timeout())
		replies <- reply{mac, dur, err}
	}()

	select {
	case <-ctx.Done():
		entry.Duration = time.Since(start)
		entry.Err = ctx.Err()
		debugLog("%s: context cancelled", a)
	case resp := <-replies:
		entry.Duration = resp.dur
		if resp.err != nil {
			entry.Err = fmt.Errorf("arp %s: %w", a, resp.err)
			debugLog("%s: error: %v", a, resp.err)
			break
		}
		entry.MAC = resp.mac
		debugLog("%s -> MAC: %s (%.2fms)", a, resp.mac, float64(resp.dur.Microseconds())/1000)
	}
	return entry
}

// LookupAll resolves every address concurrently, at most Concurrency at a time.
// Entries are returned in input order.
func (r *Resolver) LookupAll(ctx context.Context, addrs []addr.Address) []Entry {
	entries := make([]Entry, len(addrs))
	sem := semaphore.NewWeighted(r.concurrency())
	var wg sync.WaitGroup
	for i, a := range addrs {
		if err := sem.Acquire(ctx, 1); err != nil {
			for j := i; j < len(addrs); j++ {
				entries[j] = Entry{Host: addrs[j].String(), Err: err}
			}
			break
		}
		wg.Add(1)
		go func(idx int, a addr.Address) {
			defer wg.Done()
			defer sem.Release(1)
			entries[idx] = r.Lookup(ctx, a)
		}(i, a)
	}
	wg.Wait()
	return entries
}

// IsSupported returns true if ARP is supported on this platform.
func IsSupported() bool {
	return true
}
