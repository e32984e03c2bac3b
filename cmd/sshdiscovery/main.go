package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/probe"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/report"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/targets"
)

const (
	exitOK     = 0
	exitFatal  = 1
	exitUsage  = 2
	exitReport = 4
)

type config struct {
	opts    sshdiscovery.Options
	verbose bool
	debug   bool
	version bool
}

func parseArgs(args []string, stderr io.Writer) (*config, error) {
	cfg := &config{opts: sshdiscovery.DefaultOptions()}
	o := &cfg.opts

	var (
		timeoutMs int
		strategy  string
		hosts     string
	)
	fs := flag.NewFlagSet("sshdiscovery", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&o.Port, "port", o.Port, "TCP port to probe")
	fs.IntVar(&timeoutMs, "timeout-ms", int(o.Timeout/time.Millisecond), "Per-probe connect timeout in milliseconds")
	fs.IntVar(&o.MaxHosts, "max-hosts", o.MaxHosts, "Largest range scanned before narrowing to a /24 (0 = unlimited)")
	fs.BoolVar(&o.Force, "force", false, "Scan the full range and ignore local/gateway allow-list stops")
	fs.IntVar(&o.Workers, "workers", o.Workers, "Number of concurrent probes")
	fs.DurationVar(&o.Deadline, "deadline", 0, "Stop the whole scan after this long (0 = none)")
	fs.StringVar(&strategy, "strategy", string(o.Strategy), "Probe strategy: auto, primary or fallback")
	fs.StringVar(&o.Interface, "iface", "", "Interface used for local network detection")
	fs.StringVar(&hosts, "hosts", "", "Comma-separated hosts, addresses or CIDR blocks; hostnames are probed as given and bypass the allow-list")
	fs.StringVar(&o.HostFile, "file", "", "File with one host, address or CIDR block per line; hostnames bypass the allow-list")
	fs.StringVar(&o.Output, "o", o.Output, "CSV report path")
	fs.BoolVar(&o.SSDP, "ssdp", false, "Add UPnP devices found with SSDP to the candidates")
	fs.BoolVar(&o.Enrich, "enrich", false, "Look up MAC, vendor and names of open hosts")
	fs.StringVar(&o.OUIDatabase, "oui-db", "", "IEEE oui.txt file for vendor lookups (vendor column stays empty without it)")
	fs.BoolVar(&cfg.verbose, "v", false, "Verbose output")
	fs.BoolVar(&cfg.debug, "vv", false, "Debug output, including every probe")
	fs.BoolVar(&cfg.version, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	o.Timeout = time.Duration(timeoutMs) * time.Millisecond
	o.Strategy = probe.Mode(strategy)
	o.Hosts = append(targets.SplitList(hosts), fs.Args()...)
	if cfg.version {
		return cfg, nil
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	if cfg.version {
		fmt.Fprintln(stdout, sshdiscovery.VersionInfo())
		return exitOK
	}

	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	if cfg.verbose || cfg.debug {
		level := sshdiscovery.DebugBasic
		if cfg.debug {
			level = sshdiscovery.DebugVerbose
		}
		sshdiscovery.SetDebugLevel(level)
		sshdiscovery.SetDebugLogger(func(c sshdiscovery.Component, format string, args ...interface{}) {
			fmt.Fprintf(stderr, sshdiscovery.LogPrefixDebug+sshdiscovery.ComponentToPrefix(c)+" "+format+"\n", args...)
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := cfg.opts
	plan, err := sshdiscovery.NewPlanner(opts).Build(ctx)
	switch {
	case errors.Is(err, sshdiscovery.ErrNoCandidates):
		yellow.Fprintln(stderr, "[!] no candidates to scan")
	case err != nil:
		red.Fprintf(stderr, "[-] %v\n", err)
		return exitFatal
	}
	if plan.InputErr != nil {
		yellow.Fprintf(stderr, "[!] skipped entries:\n%v\n", plan.InputErr)
	}
	for _, n := range plan.Notes {
		yellow.Fprintf(stderr, "[!] %s\n", n)
	}
	if plan.Auto {
		cyan.Fprintf(stdout, "--- local %s", plan.Local)
		if plan.Gateway != 0 {
			cyan.Fprintf(stdout, ", gateway %s", plan.Gateway)
		}
		fmt.Fprintln(stdout)
	}
	cyan.Fprintf(stdout, "--- scanning %d candidates on port %d | workers: %d | timeout: %v ---\n",
		plan.Len(), opts.Port, opts.Workers, opts.Timeout)

	bar := progressbar.NewOptions64(int64(plan.Len()),
		progressbar.OptionSetWriter(stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("[cyan][scanning][reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	scanner := sshdiscovery.NewScanner(opts)
	scanner.Observer = func(r sshdiscovery.Result) {
		_ = bar.Add(1)
		if r.Open {
			_ = bar.Clear()
			green.Fprintf(stdout, "\r[+] %s open (%s, %dms)\n", r.Target(), r.Method, r.RTT.Milliseconds())
		} else if cfg.debug {
			_ = bar.Clear()
			fmt.Fprintf(stderr, "\r[ ] %s %s (%s)\n", r.Target(), r.Reason, r.Method)
		}
	}
	out, err := scanner.Run(ctx, plan)
	_ = bar.Finish()
	fmt.Fprintln(stderr)
	if err != nil {
		red.Fprintf(stderr, "[-] %v\n", err)
		return exitFatal
	}

	if out.Interrupted {
		yellow.Fprintf(stderr, "[!] scan interrupted after %d of %d candidates; writing partial report\n", out.Probed, plan.Len())
	}
	if out.NoSuccesses() {
		yellow.Fprintf(stdout, "[!] no host accepted connections on port %d\n", opts.Port)
	} else if opts.Enrich && !out.Interrupted {
		printEnrichment(ctx, stdout, stderr, opts, out.Successes)
	}

	if err := report.WriteFile(opts.Output, out.Successes); err != nil {
		red.Fprintf(stderr, "[-] write report: %v\n", err)
		return exitReport
	}
	cyan.Fprintf(stdout, "[+] %d open of %d probed in %s; report written to %s\n",
		len(out.Successes), out.Probed, out.Elapsed.Round(time.Millisecond), opts.Output)
	return exitOK
}

func printEnrichment(ctx context.Context, stdout, stderr io.Writer, opts sshdiscovery.Options, results []sshdiscovery.Result) {
	e, err := sshdiscovery.NewEnricher(opts.EnrichTimeout, opts.OUIDatabase)
	if err != nil {
		color.New(color.FgYellow).Fprintf(stderr, "[!] enrichment disabled: %v\n", err)
		return
	}
	if e.Vendors == nil {
		color.New(color.FgYellow).Fprintln(stderr, "[!] vendor lookup disabled: pass -oui-db with an IEEE oui.txt file")
	}
	fmt.Fprintf(stdout, "%-15s %-18s %-24s %s\n", "HOST", "MAC", "VENDOR", "HOSTNAME")
	fmt.Fprintln(stdout, "----------------------------------------------------------------------")
	for _, h := range e.Enrich(ctx, results) {
		fmt.Fprintf(stdout, "%-15s %-18s %-24s %s\n", h.Host, dash(h.MAC), dash(h.Vendor), dash(h.PrimaryHostname()))
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
