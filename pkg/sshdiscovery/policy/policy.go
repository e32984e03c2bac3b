// Package policy decides which IPv4 addresses may be scanned.
//
// The default allow-list admits 10.0.0.0/8 and 192.0.0.0/8 and always refuses
// 127.0.0.0/8 and 172.0.0.0/8. Rules match on the first octet only and are
// evaluated per address, so a range that straddles allowed and refused blocks
// is filtered rather than rejected.
package policy

import (
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/addr"
)

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from policy decisions.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// AllowList is a first-octet allow/deny policy. Deny entries win over allow entries.
type AllowList struct {
	allow [256]bool
	deny  [256]bool
}

// New creates an AllowList from first-octet allow and deny lists.
func New(allow, deny []byte) *AllowList {
	p := &AllowList{}
	for _, o := range allow {
		p.allow[o] = true
	}
	for _, o := range deny {
		p.deny[o] = true
	}
	return p
}

// Default is the built-in scan policy: 10/8 and 192/8 allowed, 127/8 and 172/8 refused.
var Default = New([]byte{10, 192}, []byte{127, 172})

// IsAllowed reports whether a may be scanned under the default policy.
func IsAllowed(a addr.Address) bool {
	return Default.IsAllowed(a)
}

// IsAllowed reports whether a may be scanned.
func (p *AllowList) IsAllowed(a addr.Address) bool {
	first := a.Octets()[0]
	if p.deny[first] {
		return false
	}
	return p.allow[first]
}

// Clip returns the allowed sub-spans of s in ascending order together with the
// number of addresses that were refused. The result is the same as testing
// every address with IsAllowed, computed one /8 block at a time.
func (p *AllowList) Clip(s addr.Span) (allowed []addr.Span, excluded uint64) {
	if s.Len() == 0 {
		return nil, 0
	}
	firstOctet := int(s.First >> 24)
	lastOctet := int(s.Last >> 24)
	for o := firstOctet; o <= lastOctet; o++ {
		block := addr.Span{
			First: addr.Address(uint32(o) << 24),
			Last:  addr.Address(uint32(o)<<24 | 0x00FFFFFF),
		}
		if block.First < s.First {
			block.First = s.First
		}
		if block.Last > s.Last {
			block.Last = s.Last
		}
		if p.IsAllowed(block.First) {
			if n := len(allowed); n > 0 && allowed[n-1].Last+1 == block.First {
				allowed[n-1].Last = block.Last
			} else {
				allowed = append(allowed, block)
			}
			continue
		}
		excluded += block.Len()
	}
	if excluded > 0 {
		debugLog("%s-%s: %d addresses refused by allow-list", s.First, s.Last, excluded)
	}
	return allowed, excluded
}
