// Package llmnr resolves host names of LAN peers over LLMNR
// (Link-Local Multicast Name Resolution, RFC 4795).
//
// Windows hosts and Linux hosts running systemd-resolved answer LLMNR, which
// often names machines that have no PTR record in DNS.
package llmnr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/sync/errgroup"

	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/addr"
)

const (
	// Port is the LLMNR port.
	Port = 5355
	// MulticastAddr is the LLMNR IPv4 multicast group.
	MulticastAddr = "224.0.0.252"
	// DefaultTimeout is the default timeout for one lookup.
	DefaultTimeout = 1 * time.Second
	// DefaultConcurrency bounds LookupMultiple.
	DefaultConcurrency = 16
)

// ErrNoResponse is returned when no peer answered.
var ErrNoResponse = errors.New("no LLMNR response")

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from LLMNR operations.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// Name is the outcome of one lookup.
type Name struct {
	Host     string
	Hostname string
	Err      error
}

// Resolver performs LLMNR lookups.
type Resolver struct {
	Timeout time.Duration
	// Port overrides the LLMNR port; zero means Port.
	Port int
	// Multicast enables the multicast query before the unicast one.
	Multicast   bool
	Concurrency int
}

// NewResolver creates a Resolver with defaults.
func NewResolver() *Resolver {
	return &Resolver{Timeout: DefaultTimeout, Port: Port, Multicast: true, Concurrency: DefaultConcurrency}
}

func (r *Resolver) port() int {
	if r.Port <= 0 {
		return Port
	}
	return r.Port
}

func (r *Resolver) deadline(ctx context.Context) time.Time {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	d := time.Now().Add(timeout)
	if cd, ok := ctx.Deadline(); ok && cd.Before(d) {
		d = cd
	}
	return d
}

// ReverseName returns the in-addr.arpa name of a, fully qualified.
func ReverseName(a addr.Address) string {
	o := a.Octets()
	return fmt.Sprintf("%d.%d.%d.%d.in-addr.arpa.", o[3], o[2], o[1], o[0])
}

// LookupAddr asks for the PTR name of a, first by multicast (when enabled)
// and then directly at the host.
func (r *Resolver) LookupAddr(ctx context.Context, a addr.Address) Name {
	res := Name{Host: a.String()}
	query, err := ptrQuery(a)
	if err != nil {
		res.Err = err
		return res
	}

	if r.Multicast {
		group := &net.UDPAddr{IP: net.ParseIP(MulticastAddr), Port: r.port()}
		if name := r.exchange(ctx, query, group, a.IP()); name != "" {
			res.Hostname = name
			debugLog("%s -> %s (multicast)", a, name)
			return res
		}
	}
	if name := r.exchange(ctx, query, &net.UDPAddr{IP: a.IP(), Port: r.port()}, a.IP()); name != "" {
		res.Hostname = name
		debugLog("%s -> %s (unicast)", a, name)
		return res
	}

	res.Err = fmt.Errorf("%w from %s", ErrNoResponse, a)
	debugLog("%s: no response", a)
	return res
}

// LookupMultiple resolves addrs concurrently. Results are in input order.
func (r *Resolver) LookupMultiple(ctx context.Context, addrs []addr.Address) []Name {
	if len(addrs) == 0 {
		return nil
	}
	limit := r.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	results := make([]Name, len(addrs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, a := range addrs {
		g.Go(func() error {
			results[i] = r.LookupAddr(gctx, a)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// exchange sends query to dst and returns the first PTR answer sent from want.
func (r *Resolver) exchange(ctx context.Context, query []byte, dst *net.UDPAddr, want net.IP) string {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return ""
	}
	defer conn.Close()
	_ = conn.SetDeadline(r.deadline(ctx))

	if _, err := conn.WriteTo(query, dst); err != nil {
		debugLog("send to %s: %v", dst, err)
		return ""
	}

	buf := make([]byte, 4096)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			return ""
		}
		if udp, ok := from.(*net.UDPAddr); ok && !udp.IP.Equal(want) {
			continue
		}
		if name := parsePTR(buf[:n]); name != "" {
			return name
		}
	}
}

func ptrQuery(a addr.Address) ([]byte, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(ReverseName(a), dns.TypePTR)
	msg.RecursionDesired = false
	return msg.Pack()
}

func parsePTR(data []byte) string {
	msg := new(dns.Msg)
	if err := msg.Unpack(data); err != nil || !msg.Response {
		return ""
	}
	for _, rr := range msg.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			return strings.TrimSuffix(ptr.Ptr, ".")
		}
	}
	return ""
}
