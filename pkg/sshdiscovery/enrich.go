// Package sshdiscovery: Name, MAC and vendor lookups for open hosts.
package sshdiscovery

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/addr"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/arp"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/dns"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/llmnr"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/oui"
)

// HostInfo contains what enrichment learned about one open host.
type HostInfo struct {
	Host      string
	MAC       string
	Vendor    string
	Hostnames map[Component]string
	Errors    map[Component]error
}

// PrimaryHostname returns the best hostname found, preferring DNS over LLMNR.
func (h *HostInfo) PrimaryHostname() string {
	for _, c := range []Component{ComponentDNS, ComponentLLMNR} {
		if name := h.Hostnames[c]; name != "" {
			return name
		}
	}
	return ""
}

// Enricher runs the lookups. A nil helper disables that lookup.
type Enricher struct {
	ARP     *arp.Resolver
	Vendors *oui.Registry
	DNS     *dns.Reverse
	LLMNR   *llmnr.Resolver
}

// NewEnricher creates an Enricher with each lookup bounded by timeout.
// Vendor lookup needs an IEEE oui.txt file and stays off when ouiDatabase is empty.
func NewEnricher(timeout time.Duration, ouiDatabase string) (*Enricher, error) {
	if timeout <= 0 {
		timeout = DefaultEnrichTimeout
	}
	e := &Enricher{
		ARP:   arp.NewResolver(),
		DNS:   dns.NewReverse(),
		LLMNR: llmnr.NewResolver(),
	}
	if ouiDatabase != "" {
		vendors, err := oui.NewRegistry(ouiDatabase)
		if err != nil {
			return nil, err
		}
		e.Vendors = vendors
	}
	e.ARP.Timeout = timeout
	e.DNS.Timeout = timeout
	e.LLMNR.Timeout = timeout
	return e, nil
}

// Enrich looks up every open result. Hostname targets only get the lookups
// that do not need an address. The returned slice follows results.
func (e *Enricher) Enrich(ctx context.Context, results []Result) []*HostInfo {
	infos := make([]*HostInfo, len(results))
	var (
		ips     []addr.Address
		ipIndex []int
		ipText  []string
	)
	for i, r := range results {
		infos[i] = &HostInfo{
			Host:      r.Host,
			Hostnames: make(map[Component]string),
			Errors:    make(map[Component]error),
		}
		if a, err := addr.Parse(r.Host); err == nil {
			ips = append(ips, a)
			ipIndex = append(ipIndex, i)
			ipText = append(ipText, r.Host)
		}
	}
	if len(ips) == 0 {
		return infos
	}

	var (
		arpEntries []arp.Entry
		dnsNames   []dns.Name
		llmnrNames []llmnr.Name
	)
	g, gctx := errgroup.WithContext(ctx)
	if e.ARP != nil {
		g.Go(func() error {
			arpEntries = e.ARP.LookupAll(gctx, ips)
			return nil
		})
	}
	if e.DNS != nil {
		g.Go(func() error {
			dnsNames = e.DNS.LookupMultiple(gctx, ipText)
			return nil
		})
	}
	if e.LLMNR != nil {
		g.Go(func() error {
			llmnrNames = e.LLMNR.LookupMultiple(gctx, ips)
			return nil
		})
	}
	_ = g.Wait()

	for j, i := range ipIndex {
		info := infos[i]
		if j < len(arpEntries) {
			if ent := arpEntries[j]; ent.Err != nil {
				info.Errors[ComponentARP] = ent.Err
			} else if ent.MAC != nil {
				info.MAC = ent.MAC.String()
				if e.Vendors != nil {
					info.Vendor = e.Vendors.Name(info.MAC)
				}
			}
		}
		if j < len(dnsNames) {
			if n := dnsNames[j]; n.Err != nil {
				info.Errors[ComponentDNS] = n.Err
			} else if n.Hostname != "" {
				info.Hostnames[ComponentDNS] = n.Hostname
			}
		}
		if j < len(llmnrNames) {
			if n := llmnrNames[j]; n.Err != nil {
				info.Errors[ComponentLLMNR] = n.Err
			} else if n.Hostname != "" {
				info.Hostnames[ComponentLLMNR] = n.Hostname
			}
		}
	}
	debugLog(ComponentCore, "enriched %d hosts", len(ips))
	return infos
}
