// Package sshdiscovery: Type aliases for the most used subpackage types, and
// debug logging wiring for every subpackage.
package sshdiscovery

import (
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/addr"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/arp"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/dns"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/llmnr"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/netinfo"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/oui"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/policy"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/probe"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/scan"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/ssdp"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/subnet"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/targets"
)

// Address is an IPv4 address.
type Address = addr.Address

// CandidateSet is an ordered, duplicate-free set of addresses.
type CandidateSet = subnet.CandidateSet

// Derivation describes how one IP/prefix pair became candidates.
type Derivation = subnet.Derivation

// Result is the outcome of probing one host.
type Result = probe.Result

// Outcome summarises a scan.
type Outcome = scan.Outcome

// Observer receives every probe result as it arrives.
type Observer = scan.Observer

// ParseAddress converts dotted-quad text into an Address.
func ParseAddress(text string) (Address, error) {
	return addr.Parse(text)
}

// IsAllowed reports whether the default allow-list permits scanning a.
func IsAllowed(a Address) bool {
	return policy.IsAllowed(a)
}

func init() {
	wire := func(c Component, verbose bool) func(string, ...interface{}) {
		if verbose {
			return func(format string, args ...interface{}) { debugLogVerbose(c, format, args...) }
		}
		return func(format string, args ...interface{}) { debugLog(c, format, args...) }
	}
	subnet.DebugLogger = wire(ComponentRange, false)
	policy.DebugLogger = wire(ComponentPolicy, false)
	targets.DebugLogger = wire(ComponentTargets, false)
	netinfo.DebugLogger = wire(ComponentNetInfo, false)
	scan.DebugLogger = wire(ComponentScan, false)
	ssdp.DebugLogger = wire(ComponentSSDP, false)
	oui.DebugLogger = wire(ComponentVendor, false)
	probe.DebugLogger = wire(ComponentProbe, true)
	arp.DebugLogger = wire(ComponentARP, true)
	dns.DebugLogger = wire(ComponentDNS, true)
	llmnr.DebugLogger = wire(ComponentLLMNR, true)
}
