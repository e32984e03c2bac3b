//go:build linux || darwin || freebsd || netbsd || openbsd

package arp

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/j-keck/arping"

	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/addr"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/netinfo"
)

var errNoReply = errors.New("no reply")

func fakePing(known map[string]string) PingFunc {
	return func(ip net.IP, timeout time.Duration) (net.HardwareAddr, time.Duration, error) {
		mac, ok := known[ip.String()]
		if !ok {
			return nil, timeout, errNoReply
		}
		hw, err := net.ParseMAC(mac)
		return hw, time.Millisecond, err
	}
}

func TestLookup(t *testing.T) {
	r := NewResolver()
	r.Ping = fakePing(map[string]string{"192.168.1.5": "00:1a:2b:3c:4d:5e"})

	e := r.Lookup(context.Background(), addr.MustParse("192.168.1.5"))
	if e.Err != nil {
		t.Fatalf("Lookup failed: %v", e.Err)
	}
	if e.MAC.String() != "00:1a:2b:3c:4d:5e" {
		t.Errorf("MAC = %s", e.MAC)
	}

	e = r.Lookup(context.Background(), addr.MustParse("192.168.1.6"))
	if !errors.Is(e.Err, errNoReply) {
		t.Errorf("expected wrapped errNoReply, got %v", e.Err)
	}
}

func TestLookup_ContextCancelled(t *testing.T) {
	r := NewResolver()
	r.Ping = func(ip net.IP, timeout time.Duration) (net.HardwareAddr, time.Duration, error) {
		time.Sleep(200 * time.Millisecond)
		return nil, 0, errNoReply
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	e := r.Lookup(ctx, addr.MustParse("10.0.0.1"))
	if !errors.Is(e.Err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", e.Err)
	}
}

func TestLookupAll_OrderAndLimit(t *testing.T) {
	var inflight, peak int32
	r := &Resolver{Concurrency: 2}
	base := fakePing(map[string]string{"10.0.0.2": "aa:bb:cc:dd:ee:ff"})
	r.Ping = func(ip net.IP, timeout time.Duration) (net.HardwareAddr, time.Duration, error) {
		n := atomic.AddInt32(&inflight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inflight, -1)
		return base(ip, timeout)
	}

	addrs := []addr.Address{
		addr.MustParse("10.0.0.1"), addr.MustParse("10.0.0.2"),
		addr.MustParse("10.0.0.3"), addr.MustParse("10.0.0.4"),
	}
	entries := r.LookupAll(context.Background(), addrs)
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	for i, e := range entries {
		if e.Host != addrs[i].String() {
			t.Errorf("entry %d host = %s, want %s", i, e.Host, addrs[i])
		}
	}
	if entries[1].MAC == nil || entries[0].Err == nil {
		t.Errorf("unexpected entries %+v", entries)
	}
	if peak > 2 {
		t.Errorf("peak concurrency %d exceeds 2", peak)
	}
}

func TestIsSupported(t *testing.T) {
	if !IsSupported() {
		t.Error("expected ARP support on this platform")
	}
}

func TestArpingPing_RequestsOverlap(t *testing.T) {
	var inflight, peak int32
	orig := arpingSend
	arpingSend = func(ip net.IP) (net.HardwareAddr, time.Duration, error) {
		n := atomic.AddInt32(&inflight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		atomic.AddInt32(&inflight, -1)
		return nil, 0, arping.ErrTimeout
	}
	t.Cleanup(func() { arpingSend = orig })

	addrs := make([]addr.Address, 8)
	for i := range addrs {
		addrs[i] = addr.MustParse("192.0.2.1") + addr.Address(i)
	}
	r := &Resolver{Concurrency: 8, Timeout: 50 * time.Millisecond}
	start := time.Now()
	entries := r.LookupAll(context.Background(), addrs)
	elapsed := time.Since(start)

	for _, e := range entries {
		if !errors.Is(e.Err, arping.ErrTimeout) {
			t.Errorf("%s: expected wrapped ErrTimeout, got %v", e.Host, e.Err)
		}
	}
	if peak < 2 {
		t.Errorf("lookups ran one at a time (peak %d)", peak)
	}
	if elapsed > 300*time.Millisecond {
		t.Errorf("8 lookups took %v, expected them to run concurrently", elapsed)
	}
	if arpingTimeout != 50*time.Millisecond {
		t.Errorf("arping timeout = %v, want 50ms", arpingTimeout)
	}
}

func TestLookupAll_SilentNeighboursConcurrent(t *testing.T) {
	local, err := netinfo.Detect("")
	if err != nil {
		t.Skipf("no IPv4 interface: %v", err)
	}
	if local.PrefixLen > 28 {
		t.Skipf("subnet %s too small", local)
	}
	// Pick the top of the local subnet, skipping the broadcast address.
	top := local.Address | ^addr.PrefixToMask(local.PrefixLen)
	addrs := make([]addr.Address, 8)
	for i := range addrs {
		addrs[i] = top - addr.Address(i+1)
	}

	timeout := 300 * time.Millisecond
	r := &Resolver{Concurrency: 32, Timeout: timeout}
	start := time.Now()
	entries := r.LookupAll(context.Background(), addrs)
	elapsed := time.Since(start)

	timedOut := 0
	for _, e := range entries {
		if errors.Is(e.Err, arping.ErrTimeout) {
			timedOut++
		}
	}
	if timedOut < 2 {
		t.Skipf("need at least two silent neighbours to measure, got %d (entries %+v)", timedOut, entries)
	}
	if elapsed > 3*timeout {
		t.Errorf("%d silent lookups took %v, expected about one timeout (%v)", timedOut, elapsed, timeout)
	}
}
