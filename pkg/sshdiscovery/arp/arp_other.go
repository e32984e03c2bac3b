//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package arp

import (
	"context"

	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/addr"
)

// Lookup always fails with ErrNotSupported unless Ping is set.
func (r *Resolver) Lookup(ctx context.Context, a addr.Address) Entry {
	if r.Ping == nil {
		return Entry{Host: a.String(), Err: ErrNotSupported}
	}
	mac, dur, err := r.Ping(a.IP(), r.timeout())
	return Entry{Host: a.String(), MAC: mac, Duration: dur, Err: err}
}

// LookupAll resolves each address in turn.
func (r *Resolver) LookupAll(ctx context.Context, addrs []addr.Address) []Entry {
	entries := make([]Entry, len(addrs))
	for i, a := range addrs {
		entries[i] = r.Lookup(ctx, a)
	}
	return entries
}

// IsSupported returns true if ARP is supported on this platform.
func IsSupported() bool {
	return false
}
