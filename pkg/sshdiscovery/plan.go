package sshdiscovery

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/addr"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/netinfo"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/ssdp"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/subnet"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/targets"
)

var (
	// ErrNoCandidates is returned with a plan that has nothing to probe.
	// It is not fatal: the scan completes with no successes.
	ErrNoCandidates = errors.New("no scan candidates")
	// ErrDetectionFailed is returned when auto mode cannot find a local IPv4 address.
	ErrDetectionFailed = errors.New("local network detection failed")
	// ErrLocalNotAllowed is returned when the detected local address is refused
	// by the allow-list and Force is not set.
	ErrLocalNotAllowed = errors.New("local address is not allowed")
	// ErrGatewayNotAllowed is returned when the default gateway is refused by
	// the allow-list and Force is not set.
	ErrGatewayNotAllowed = errors.New("default gateway is not allowed")
)

// Plan is the candidate set of one scan and how it was assembled.
type Plan struct {
	// Auto is set when candidates came from local network detection.
	Auto    bool
	Local   *netinfo.Local
	Gateway addr.Address
	// Derivations lists every range expansion in the order performed.
	Derivations []*subnet.Derivation
	Ranges      *subnet.CandidateSet
	Hosts       []string
	// Excluded counts addresses dropped by the allow-list.
	Excluded uint64
	// SSDPAdded counts addresses contributed by SSDP.
	SSDPAdded int
	// InputErr holds rejected explicit entries; the remaining entries are still planned.
	InputErr error
	// Notes are human-readable remarks on fallbacks and skipped sources.
	Notes []string
}

// Len returns the number of candidates.
func (p *Plan) Len() uint64 {
	return p.Ranges.Len() + uint64(len(p.Hosts))
}

// Empty reports whether there is nothing to probe.
func (p *Plan) Empty() bool {
	return p.Len() == 0
}

// Candidates yields addresses in ascending order, then hostnames.
func (p *Plan) Candidates() iter.Seq[string] {
	t := &targets.Targets{Ranges: p.Ranges, Hosts: p.Hosts}
	return t.All()
}

// OverCap reports whether a forced derivation exceeded the host cap.
func (p *Plan) OverCap() bool {
	for _, d := range p.Derivations {
		if d.OverCap {
			return true
		}
	}
	return false
}

func (p *Plan) note(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	p.Notes = append(p.Notes, msg)
	debugLog(ComponentCore, "%s", msg)
}

func (p *Plan) noteDerivation(d *subnet.Derivation, maxHosts int) {
	switch d.Fallback {
	case subnet.FallbackShallowPrefix:
		p.note("%s/%d is shorter than /%d; scanning %s-%s instead", d.Base, d.PrefixLen, subnet.ShallowPrefix, d.Scanned.First, d.Scanned.Last)
	case subnet.FallbackHostCap:
		p.note("%s/%d has %d hosts, above the cap of %d; scanning %s-%s instead", d.Base, d.PrefixLen, d.Usable.Len(), maxHosts, d.Scanned.First, d.Scanned.Last)
	}
	if d.OverCap {
		p.note("forced scan of %s/%d covers %d hosts, above the cap of %d", d.Base, d.PrefixLen, d.Usable.Len(), maxHosts)
	}
}

// Planner assembles plans. The function fields default to the netinfo and
// ssdp packages and may be replaced.
type Planner struct {
	Options Options

	DetectLocal    func(iface string) (*netinfo.Local, error)
	DefaultGateway func() (addr.Address, error)
	DiscoverSSDP   func(ctx context.Context) ([]addr.Address, error)
	ReadHostFile   func(path string) ([]string, error)
}

// NewPlanner creates a Planner for opts.
func NewPlanner(opts Options) *Planner {
	return &Planner{Options: opts}
}

// Build assembles the plan. Explicit hosts and the host file take precedence;
// without them the local and gateway subnets are derived.
//
// A plan with no candidates is returned together with ErrNoCandidates.
func (pl *Planner) Build(ctx context.Context) (*Plan, error) {
	opts := pl.Options
	entries := append([]string(nil), opts.Hosts...)
	if opts.HostFile != "" {
		read := pl.ReadHostFile
		if read == nil {
			read = targets.ReadFile
		}
		fileEntries, err := read(opts.HostFile)
		if err != nil {
			return nil, fmt.Errorf("read host file: %w", err)
		}
		entries = append(entries, fileEntries...)
	}

	var (
		plan *Plan
		err  error
	)
	if len(entries) > 0 || opts.HostFile != "" {
		plan = pl.explicit(entries)
	} else {
		plan, err = pl.auto()
		if err != nil {
			return nil, err
		}
	}

	if opts.SSDP {
		pl.addSSDP(ctx, plan)
	}
	if plan.Excluded > 0 {
		plan.note("%d addresses excluded by the allow-list", plan.Excluded)
	}
	debugLog(ComponentCore, "plan: %d candidates (%d hosts by name)", plan.Len(), len(plan.Hosts))
	if plan.Empty() {
		return plan, ErrNoCandidates
	}
	return plan, nil
}

func (pl *Planner) explicit(entries []string) *Plan {
	opts := pl.Options
	t, err := targets.Parse(entries, opts.Deriver())
	plan := &Plan{
		Derivations: t.Derivations,
		Ranges:      t.Ranges,
		Hosts:       t.Hosts,
		Excluded:    t.Excluded,
		InputErr:    err,
	}
	for _, d := range t.Derivations {
		plan.noteDerivation(d, opts.MaxHosts)
	}
	return plan
}

func (pl *Planner) auto() (*Plan, error) {
	opts := pl.Options
	pol := opts.policy()
	deriver := opts.Deriver()

	detect := pl.DetectLocal
	if detect == nil {
		detect = netinfo.Detect
	}
	local, err := detect(opts.Interface)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDetectionFailed, err)
	}
	plan := &Plan{Auto: true, Local: local}
	if !pol.IsAllowed(local.Address) {
		if !opts.Force {
			return nil, fmt.Errorf("%w: %s", ErrLocalNotAllowed, local.Address)
		}
		plan.note("local address %s is outside the allow-list; continuing because force is set", local.Address)
	}

	localDer, err := deriver.Derive(local.Address, local.PrefixLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDetectionFailed, err)
	}
	plan.Derivations = append(plan.Derivations, localDer)
	plan.noteDerivation(localDer, opts.MaxHosts)
	plan.Excluded += localDer.Excluded
	sets := []*subnet.CandidateSet{localDer.Candidates}

	gateway := pl.DefaultGateway
	if gateway == nil {
		gateway = netinfo.DefaultGateway
	}
	gw, err := gateway()
	switch {
	case err != nil:
		plan.note("default gateway unavailable: %v", err)
	case gw == 0:
	case !pol.IsAllowed(gw) && !opts.Force:
		return nil, fmt.Errorf("%w: %s", ErrGatewayNotAllowed, gw)
	default:
		plan.Gateway = gw
		gwDer, err := deriver.Derive(gw, local.PrefixLen)
		if err != nil {
			return nil, err
		}
		if gwDer.Scanned != localDer.Scanned {
			plan.Derivations = append(plan.Derivations, gwDer)
			plan.noteDerivation(gwDer, opts.MaxHosts)
			plan.Excluded += gwDer.Excluded
			sets = append(sets, gwDer.Candidates)
		}
	}

	plan.Ranges = subnet.Union(sets...)
	return plan, nil
}

func (pl *Planner) addSSDP(ctx context.Context, plan *Plan) {
	discover := pl.DiscoverSSDP
	if discover == nil {
		discover = func(ctx context.Context) ([]addr.Address, error) {
			src := ssdp.NewSource()
			devices, err := src.Discover(ctx)
			return ssdp.Addresses(devices), err
		}
	}
	found, err := discover(ctx)
	if err != nil {
		plan.note("SSDP discovery failed: %v", err)
	}
	pol := pl.Options.policy()
	var spans []addr.Span
	for _, a := range found {
		if !pol.IsAllowed(a) {
			plan.Excluded++
			continue
		}
		spans = append(spans, addr.Span{First: a, Last: a})
	}
	before := plan.Ranges.Len()
	plan.Ranges = subnet.Union(plan.Ranges, subnet.NewCandidateSet(spans...))
	plan.SSDPAdded = int(plan.Ranges.Len() - before)
}
