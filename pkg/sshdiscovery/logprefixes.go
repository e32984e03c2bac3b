// Package sshdiscovery: Log prefix constants for consistent log tagging.
// Consumers may use them in their SetDebugLogger callback but are not required to.
package sshdiscovery

// Log prefix constants follow the [Component] or [Component:Subcomponent] pattern.
const (
	LogPrefixCore = "[SSHDiscovery]"

	LogPrefixRange   = "[SSHDiscovery:Range]"
	LogPrefixPolicy  = "[SSHDiscovery:Policy]"
	LogPrefixTargets = "[SSHDiscovery:Targets]"
	LogPrefixNetInfo = "[SSHDiscovery:NetInfo]"
	LogPrefixProbe   = "[SSHDiscovery:Probe]"
	LogPrefixScan    = "[SSHDiscovery:Scan]"
	LogPrefixARP     = "[SSHDiscovery:ARP]"
	LogPrefixVendor  = "[SSHDiscovery:OUI]"
	LogPrefixDNS     = "[SSHDiscovery:DNS]"
	LogPrefixLLMNR   = "[SSHDiscovery:LLMNR]"
	LogPrefixSSDP    = "[SSHDiscovery:SSDP]"

	// Debug prefix - use as "[DEBUG][SSHDiscovery:*]" format
	LogPrefixDebug = "[DEBUG]"
)

// ComponentToPrefix returns the log prefix for a component.
func ComponentToPrefix(c Component) string {
	switch c {
	case ComponentRange:
		return LogPrefixRange
	case ComponentPolicy:
		return LogPrefixPolicy
	case ComponentTargets:
		return LogPrefixTargets
	case ComponentNetInfo:
		return LogPrefixNetInfo
	case ComponentProbe:
		return LogPrefixProbe
	case ComponentScan:
		return LogPrefixScan
	case ComponentARP:
		return LogPrefixARP
	case ComponentVendor:
		return LogPrefixVendor
	case ComponentDNS:
		return LogPrefixDNS
	case ComponentLLMNR:
		return LogPrefixLLMNR
	case ComponentSSDP:
		return LogPrefixSSDP
	default:
		return LogPrefixCore
	}
}
