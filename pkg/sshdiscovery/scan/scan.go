// Package scan drives a Prober over a candidate set with a bounded worker pool
// and collects the hosts whose port accepted a connection.
package scan

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sort"
	"strings"
	"time"

	"github.com/marcuoli/go-sshdiscovery/internal/scanner"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/addr"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/probe"
)

const (
	// DefaultPort is the SSH port.
	DefaultPort = 22
	// DefaultTimeout is the per-probe timeout.
	DefaultTimeout = 3000 * time.Millisecond
	// DefaultWorkers is the default number of concurrent probes.
	DefaultWorkers = scanner.DefaultWorkers
)

// ErrInvalidConfig is returned by Run for an unusable Config.
var ErrInvalidConfig = errors.New("invalid scan config")

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from scan runs.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// Config is read-only for the duration of a run.
type Config struct {
	Port    int
	Timeout time.Duration
	Workers int
	// Deadline bounds the whole run; zero means no overall deadline.
	Deadline time.Duration
}

// DefaultConfig returns the default scan configuration.
func DefaultConfig() Config {
	return Config{Port: DefaultPort, Timeout: DefaultTimeout, Workers: DefaultWorkers}
}

// Validate checks c for usable values.
func (c Config) Validate() error {
	switch {
	case c.Port < 1 || c.Port > 65535:
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	case c.Deadline < 0:
		return fmt.Errorf("%w: deadline must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Observer receives every probe result, open or closed, as it arrives.
// It is called from a single goroutine.
type Observer func(probe.Result)

// Coordinator runs scans.
type Coordinator struct {
	Prober   *probe.Prober
	Config   Config
	Observer Observer
}

// NewCoordinator creates a Coordinator with the default prober.
func NewCoordinator(cfg Config) *Coordinator {
	return &Coordinator{Prober: probe.New(), Config: cfg}
}

// Outcome summarises a run. A run with no successes is a normal outcome.
type Outcome struct {
	// Successes holds one open result per host, sorted by host.
	Successes []probe.Result
	// Probed counts the candidates that produced a result.
	Probed int
	// Interrupted is set when cancellation or the deadline stopped the run early.
	Interrupted bool
	Elapsed     time.Duration
}

// NoSuccesses reports whether the run completed without any open host.
func (o *Outcome) NoSuccesses() bool {
	return len(o.Successes) == 0
}

// Run probes every candidate and returns the open hosts. Cancelling ctx aborts
// outstanding connects and returns the successes collected so far with
// Interrupted set; it is not an error.
func (c *Coordinator) Run(ctx context.Context, candidates iter.Seq[string]) (*Outcome, error) {
	if err := c.Config.Validate(); err != nil {
		return nil, err
	}
	prober := c.Prober
	if prober == nil {
		prober = probe.New()
	}
	if c.Config.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Config.Deadline)
		defer cancel()
	}

	start := time.Now()
	debugLog("scan start port=%d timeout=%v workers=%d", c.Config.Port, c.Config.Timeout, c.Config.Workers)

	results := scanner.Sweep(ctx, candidates, scanner.Options{Workers: c.Config.Workers},
		func(ctx context.Context, host string) probe.Result {
			return prober.Probe(ctx, host, c.Config.Port, c.Config.Timeout)
		})

	out := &Outcome{}
	seen := make(map[string]bool)
	for res := range results {
		out.Probed++
		if c.Observer != nil {
			c.Observer(res)
		}
		if !res.Open {
			continue
		}
		key := strings.ToLower(res.Host)
		if seen[key] {
			continue
		}
		seen[key] = true
		out.Successes = append(out.Successes, res)
	}

	out.Interrupted = ctx.Err() != nil
	out.Elapsed = time.Since(start)
	SortResults(out.Successes)
	debugLog("scan done probed=%d open=%d interrupted=%v elapsed=%v", out.Probed, len(out.Successes), out.Interrupted, out.Elapsed)
	return out, nil
}

// SortResults orders results by host: IPv4 addresses numerically first, then hostnames.
func SortResults(results []probe.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return lessHost(results[i].Host, results[j].Host)
	})
}

func lessHost(a, b string) bool {
	aa, errA := addr.Parse(a)
	bb, errB := addr.Parse(b)
	switch {
	case errA == nil && errB == nil:
		return aa < bb
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}
