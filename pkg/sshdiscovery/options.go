package sshdiscovery

import (
	"fmt"
	"time"

	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/policy"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/probe"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/report"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/scan"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/subnet"
)

// DefaultEnrichTimeout bounds each enrichment lookup.
const DefaultEnrichTimeout = 1 * time.Second

// Options configures planning, scanning and enrichment.
type Options struct {
	// Port is the TCP port probed on each candidate.
	Port int
	// Timeout is the per-probe connect timeout.
	Timeout time.Duration
	// MaxHosts caps a derived range before it is narrowed to a /24.
	// Zero means unlimited.
	MaxHosts int
	// Force disables the range fallbacks and the local/gateway hard stops.
	// The allow-list still filters every address.
	Force bool
	// Workers is the number of concurrent probes.
	Workers int
	// Deadline bounds the whole scan; zero means none.
	Deadline time.Duration
	// Strategy selects the probe strategies.
	Strategy probe.Mode
	// Interface names the interface used for auto-detection; empty picks the first usable one.
	Interface string

	// Hosts are explicit entries: addresses, CIDR blocks or hostnames.
	Hosts []string
	// HostFile names a file with one entry per line.
	HostFile string

	// SSDP adds UPnP responders to the candidates.
	SSDP bool
	// Enrich looks up MAC, vendor and names of open hosts.
	Enrich        bool
	EnrichTimeout time.Duration
	// OUIDatabase names an IEEE oui.txt file; empty disables vendor lookup.
	OUIDatabase string

	// Output is the report path.
	Output string

	// Policy overrides the default allow-list.
	Policy *policy.AllowList
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		Port:          scan.DefaultPort,
		Timeout:       scan.DefaultTimeout,
		MaxHosts:      subnet.DefaultMaxHosts,
		Workers:       scan.DefaultWorkers,
		Strategy:      probe.ModeAuto,
		EnrichTimeout: DefaultEnrichTimeout,
		Output:        report.DefaultPath,
	}
}

// Validate checks o for usable values.
func (o Options) Validate() error {
	if err := o.ScanConfig().Validate(); err != nil {
		return err
	}
	if o.MaxHosts < 0 {
		return fmt.Errorf("%w: max hosts must not be negative", scan.ErrInvalidConfig)
	}
	switch o.Strategy {
	case "", probe.ModeAuto, probe.ModePrimary, probe.ModeFallback:
	default:
		return fmt.Errorf("%w: unknown strategy %q", scan.ErrInvalidConfig, o.Strategy)
	}
	if o.EnrichTimeout < 0 {
		return fmt.Errorf("%w: enrich timeout must not be negative", scan.ErrInvalidConfig)
	}
	return nil
}

// ScanConfig returns the scan settings of o.
func (o Options) ScanConfig() scan.Config {
	return scan.Config{Port: o.Port, Timeout: o.Timeout, Workers: o.Workers, Deadline: o.Deadline}
}

// Deriver returns a range deriver configured from o.
func (o Options) Deriver() *subnet.Deriver {
	return &subnet.Deriver{MaxHosts: o.MaxHosts, Force: o.Force, Policy: o.policy()}
}

func (o Options) policy() *policy.AllowList {
	if o.Policy == nil {
		return policy.Default
	}
	return o.Policy
}
