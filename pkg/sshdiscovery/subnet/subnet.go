// Package subnet turns an address and prefix length into the bounded,
// allow-list filtered set of candidate hosts for a scan.
package subnet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/addr"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/policy"
)

// DefaultMaxHosts is the usable-range size above which a derivation narrows to a /24.
const DefaultMaxHosts = 1024

// ShallowPrefix is the smallest prefix length derived without narrowing.
const ShallowPrefix = 24

// ErrInvalidPrefix is returned for prefix lengths outside 0..32 or unparseable CIDR text.
var ErrInvalidPrefix = errors.New("invalid prefix length")

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from range derivation.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// Fallback records why a derivation replaced the computed range with a /24.
type Fallback int

const (
	// FallbackNone means the computed usable range was kept.
	FallbackNone Fallback = iota
	// FallbackShallowPrefix means the prefix was shorter than /24.
	FallbackShallowPrefix
	// FallbackHostCap means the usable range exceeded the host cap.
	FallbackHostCap
)

func (f Fallback) String() string {
	switch f {
	case FallbackShallowPrefix:
		return "shallow-prefix"
	case FallbackHostCap:
		return "host-cap"
	default:
		return "none"
	}
}

// Derivation is the outcome of expanding one base address and prefix length.
type Derivation struct {
	Base      addr.Address
	PrefixLen int
	Network   addr.Address
	Broadcast addr.Address
	// Usable is the host range computed from the prefix, before any fallback.
	Usable addr.Span
	// Scanned is the range actually expanded, after any fallback.
	Scanned  addr.Span
	Fallback Fallback
	// OverCap is set when Force kept a usable range larger than the cap.
	OverCap bool
	// Excluded counts addresses of Scanned refused by the allow-list.
	Excluded   uint64
	Candidates *CandidateSet
}

// Deriver expands ranges under a host cap and allow-list.
type Deriver struct {
	// MaxHosts caps the usable-range size; zero or negative means unlimited.
	MaxHosts int
	// Force disables the shallow-prefix and host-cap fallbacks. The allow-list still applies.
	Force bool
	// Policy filters individual addresses; nil uses policy.Default.
	Policy *policy.AllowList
}

// NewDeriver creates a Deriver with the default cap and policy.
func NewDeriver() *Deriver {
	return &Deriver{MaxHosts: DefaultMaxHosts, Policy: policy.Default}
}

// Derive expands base/prefixLen with the default policy.
func Derive(base addr.Address, prefixLen, maxHosts int, force bool) (*Derivation, error) {
	d := &Deriver{MaxHosts: maxHosts, Force: force}
	return d.Derive(base, prefixLen)
}

// Derive expands base/prefixLen into a candidate set.
//
// A /32 yields the base address itself and a /31 yields both of its addresses.
// Shorter prefixes yield network+1 through broadcast-1.
func (d *Deriver) Derive(base addr.Address, prefixLen int) (*Derivation, error) {
	if prefixLen < 0 || prefixLen > addr.MaxPrefixLen {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPrefix, prefixLen)
	}
	mask := addr.PrefixToMask(prefixLen)
	network := base & mask
	broadcast := network | ^mask

	res := &Derivation{
		Base:      base,
		PrefixLen: prefixLen,
		Network:   network,
		Broadcast: broadcast,
		Usable:    usableSpan(base, prefixLen, network, broadcast),
	}
	res.Scanned = res.Usable

	size := res.Usable.Len()
	overCap := d.MaxHosts > 0 && size > uint64(d.MaxHosts)
	switch {
	case prefixLen < ShallowPrefix && !d.Force:
		res.Fallback = FallbackShallowPrefix
		res.Scanned = Slash24(base)
		debugLog("%s/%d: prefix shorter than /%d, narrowing to %s-%s", base, prefixLen, ShallowPrefix, res.Scanned.First, res.Scanned.Last)
	case overCap && !d.Force:
		res.Fallback = FallbackHostCap
		res.Scanned = Slash24(base)
		debugLog("%s/%d: %d hosts exceeds cap %d, narrowing to %s-%s", base, prefixLen, size, d.MaxHosts, res.Scanned.First, res.Scanned.Last)
	case overCap:
		res.OverCap = true
		debugLog("%s/%d: force set, scanning %d hosts (cap %d)", base, prefixLen, size, d.MaxHosts)
	}

	p := d.Policy
	if p == nil {
		p = policy.Default
	}
	allowed, excluded := p.Clip(res.Scanned)
	res.Excluded = excluded
	res.Candidates = NewCandidateSet(allowed...)
	return res, nil
}

// Slash24 returns {first three octets of base}.1 through .254.
func Slash24(base addr.Address) addr.Span {
	net24 := base &^ 0xFF
	return addr.Span{First: net24 | 1, Last: net24 | 254}
}

func usableSpan(base addr.Address, prefixLen int, network, broadcast addr.Address) addr.Span {
	switch prefixLen {
	case 32:
		return addr.Span{First: base, Last: base}
	case 31:
		return addr.Span{First: network, Last: broadcast}
	}
	return addr.Span{First: network + 1, Last: broadcast - 1}
}

// ParseCIDR parses "a.b.c.d/nn" into its base address and prefix length.
// The base address is kept as written, not masked.
func ParseCIDR(text string) (addr.Address, int, error) {
	ipText, prefixText, ok := strings.Cut(text, "/")
	if !ok {
		return 0, 0, fmt.Errorf("%w: missing prefix in %q", ErrInvalidPrefix, text)
	}
	base, err := addr.Parse(ipText)
	if err != nil {
		return 0, 0, err
	}
	prefixLen, err := strconv.Atoi(prefixText)
	if err != nil || prefixLen < 0 || prefixLen > addr.MaxPrefixLen {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPrefix, text)
	}
	return base, prefixLen, nil
}
