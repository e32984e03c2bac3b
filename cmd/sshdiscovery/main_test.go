package main

import (
	"bytes"
	"net"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/probe"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/report"
)

func init() {
	color.NoColor = true
}

func TestParseArgs_Defaults(t *testing.T) {
	cfg, err := parseArgs(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseArgs failed: %v", err)
	}
	o := cfg.opts
	if o.Port != 22 || o.Timeout != 3*time.Second || o.MaxHosts != 1024 || o.Force {
		t.Errorf("unexpected defaults %+v", o)
	}
	if o.Output != "ssh_scan_results.csv" || o.Strategy != probe.ModeAuto || len(o.Hosts) != 0 {
		t.Errorf("unexpected defaults %+v", o)
	}
}

func TestParseArgs_Flags(t *testing.T) {
	args := []string{"-port", "2222", "-timeout-ms", "250", "-force", "-strategy", "primary",
		"-hosts", "10.0.0.1,nas.lan", "-o", "x.csv", "db01"}
	cfg, err := parseArgs(args, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseArgs failed: %v", err)
	}
	o := cfg.opts
	if o.Port != 2222 || o.Timeout != 250*time.Millisecond || !o.Force || o.Strategy != probe.ModePrimary {
		t.Errorf("flags not applied: %+v", o)
	}
	if !slices.Equal(o.Hosts, []string{"10.0.0.1", "nas.lan", "db01"}) {
		t.Errorf("Hosts = %v", o.Hosts)
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := [][]string{
		{"-port", "0"},
		{"-timeout-ms", "0"},
		{"-strategy", "raw"},
		{"-nope"},
	}
	for _, args := range tests {
		var stdout, stderr bytes.Buffer
		if code := run(args, &stdout, &stderr); code != exitUsage {
			t.Errorf("run(%v) = %d, want %d", args, code, exitUsage)
		}
	}
}

func TestRun_HelpNotesHostnameBypass(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-h"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("exit code %d", code)
	}
	help := stderr.String()
	for _, flagName := range []string{"-hosts", "-file"} {
		if !strings.Contains(help, flagName) {
			t.Errorf("help does not list %s", flagName)
		}
	}
	if strings.Count(help, "bypass the allow-list") != 2 {
		t.Errorf("help should state that hostnames bypass the allow-list:\n%s", help)
	}
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-version"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("exit code %d", code)
	}
	if !strings.HasPrefix(stdout.String(), "go-sshdiscovery v") {
		t.Errorf("unexpected version output %q", stdout.String())
	}
}

func TestRun_ScansExplicitHost(t *testing.T) {
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			_ = c.Close()
		}
	}()
	port := l.Addr().(*net.TCPAddr).Port
	out := filepath.Join(t.TempDir(), "report.csv")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-port", strconv.Itoa(port), "-timeout-ms", "500", "-o", out, "localhost"}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
	rows, err := report.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(rows) != 1 || rows[0].Host != "localhost" || rows[0].Port != port {
		t.Errorf("unexpected report rows %+v", rows)
	}
	if !strings.Contains(stdout.String(), "localhost:"+strconv.Itoa(port)+" open") {
		t.Errorf("expected open line, got %q", stdout.String())
	}
}

func TestRun_NoCandidatesWritesPlaceholder(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.csv")
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-o", out, "127.0.0.1"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("exit code %d, stderr: %s", code, stderr.String())
	}
	rows, err := report.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected placeholder-only report, got %+v", rows)
	}
}

func TestRun_ReportWriteFailure(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	// the output path is an existing directory
	if code := run([]string{"-o", dir, "127.0.0.1"}, &stdout, &stderr); code != exitReport {
		t.Errorf("exit code %d, want %d", code, exitReport)
	}
}
