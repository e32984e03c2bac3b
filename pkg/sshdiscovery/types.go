// Package sshdiscovery finds hosts on the local network that accept TCP
// connections on the SSH port.
//
// A scan has two phases. Planning turns explicit hosts, a host file, or the
// auto-detected local and gateway subnets into a bounded candidate set that
// respects the allow-list. Scanning probes every candidate with a bounded
// worker pool and collects the hosts that accepted a connection.
//
// Optional helpers enrich open hosts with a MAC address (ARP), a vendor name
// (OUI), a reverse DNS name and an LLMNR name, and SSDP can contribute extra
// candidates.
package sshdiscovery

// Component identifies the part of the library that produced a log line.
type Component string

const (
	ComponentCore    Component = "core"
	ComponentRange   Component = "range"
	ComponentPolicy  Component = "policy"
	ComponentTargets Component = "targets"
	ComponentNetInfo Component = "netinfo"
	ComponentProbe   Component = "probe"
	ComponentScan    Component = "scan"
	ComponentARP     Component = "arp"    // ARP for MAC address lookup
	ComponentVendor  Component = "vendor" // MAC vendor lookup (OUI)
	ComponentDNS     Component = "dns"
	ComponentLLMNR   Component = "llmnr"
	ComponentSSDP    Component = "ssdp"
)
