package sshdiscovery

import (
	"context"
	"errors"

	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/probe"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/report"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/scan"
)

// Scanner runs a plan through the probe strategies selected by Options.
type Scanner struct {
	Options  Options
	Observer Observer
	// Prober overrides the prober chosen from Options.Strategy.
	Prober *probe.Prober
}

// NewScanner creates a Scanner for opts.
func NewScanner(opts Options) *Scanner {
	return &Scanner{Options: opts}
}

// Run probes every candidate of plan. Cancelling ctx, or reaching the
// deadline, stops the scan early and still returns the successes so far.
func (s *Scanner) Run(ctx context.Context, plan *Plan) (*Outcome, error) {
	if err := s.Options.Validate(); err != nil {
		return nil, err
	}
	prober := s.Prober
	if prober == nil {
		var err error
		prober, err = probe.ForMode(s.Options.Strategy)
		if err != nil {
			return nil, err
		}
	}
	c := &scan.Coordinator{Prober: prober, Config: s.Options.ScanConfig(), Observer: s.Observer}
	debugLog(ComponentCore, "scanning %d candidates on port %d", plan.Len(), s.Options.Port)
	return c.Run(ctx, plan.Candidates())
}

// Discover plans and runs a scan, then writes the report to opts.Output when
// it is set. An empty plan still produces a report with no successes.
func Discover(ctx context.Context, opts Options, observer Observer) (*Plan, *Outcome, error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}
	plan, err := NewPlanner(opts).Build(ctx)
	if err != nil && !errors.Is(err, ErrNoCandidates) {
		return nil, nil, err
	}
	s := NewScanner(opts)
	s.Observer = observer
	out, err := s.Run(ctx, plan)
	if err != nil {
		return plan, nil, err
	}
	if opts.Output != "" {
		if err := report.WriteFile(opts.Output, out.Successes); err != nil {
			return plan, out, err
		}
	}
	return plan, out, nil
}
