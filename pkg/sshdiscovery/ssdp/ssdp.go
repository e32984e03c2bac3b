// Package ssdp finds UPnP devices on the LAN with SSDP M-SEARCH and reports
// their IPv4 addresses as extra scan candidates.
//
// Routers, NAS boxes and many embedded Linux devices announce themselves over
// SSDP and frequently run an SSH daemon as well.
package ssdp

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"slices"
	"time"

	gossdp "github.com/koron/go-ssdp"

	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/addr"
)

// DebugLogger is the callback function for debug logging.
// Set this to enable debug output for SSDP operations.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// DefaultTimeout is the default M-SEARCH wait.
const DefaultTimeout = 2 * time.Second

// Search targets.
const (
	All             = gossdp.All        // "ssdp:all"
	RootDevice      = gossdp.RootDevice // "upnp:rootdevice"
	InternetGateway = "urn:schemas-upnp-org:device:InternetGatewayDevice:1"
)

// Device is one SSDP responder.
type Device struct {
	Host     addr.Address
	Location string
	Server   string
	USN      string
	ST       string
}

// SearchFunc sends one M-SEARCH and collects the replies for waitSec seconds.
type SearchFunc func(searchType string, waitSec int, localAddr string) ([]gossdp.Service, error)

func defaultSearch(searchType string, waitSec int, localAddr string) ([]gossdp.Service, error) {
	return gossdp.Search(searchType, waitSec, localAddr)
}

// Source runs SSDP searches.
type Source struct {
	Timeout time.Duration
	// Targets are searched in order; empty means All and RootDevice.
	Targets []string
	// Search overrides gossdp.Search.
	Search SearchFunc
}

// NewSource creates a Source with defaults.
func NewSource() *Source {
	return &Source{Timeout: DefaultTimeout, Targets: []string{All, RootDevice, InternetGateway}}
}

// Discover searches every target and returns devices with an IPv4 location,
// deduplicated by USN. A failing target is skipped; the error is returned
// only if every target failed.
func (s *Source) Discover(ctx context.Context) ([]Device, error) {
	targets := s.Targets
	if len(targets) == 0 {
		targets = []string{All, RootDevice}
	}

	seen := make(map[string]bool)
	var (
		devices []Device
		lastErr error
		okCount int
	)
	for _, st := range targets {
		if err := ctx.Err(); err != nil {
			return devices, err
		}
		services, err := s.search(ctx, st)
		if err != nil {
			debugLog("SSDP search %s: %v", st, err)
			lastErr = err
			continue
		}
		okCount++
		for _, svc := range services {
			d, ok := toDevice(svc)
			if !ok {
				continue
			}
			key := d.USN
			if key == "" {
				key = d.Host.String() + d.Location
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			devices = append(devices, d)
		}
	}
	if okCount == 0 && lastErr != nil {
		return nil, lastErr
	}
	debugLog("SSDP found %d devices", len(devices))
	return devices, nil
}

func (s *Source) search(ctx context.Context, st string) ([]gossdp.Service, error) {
	search := s.Search
	if search == nil {
		search = defaultSearch
	}
	waitSec := int(s.Timeout.Seconds())
	if waitSec < 1 {
		waitSec = 1
	}

	type reply struct {
		services []gossdp.Service
		err      error
	}
	ch := make(chan reply, 1)
	go func() {
		services, err := search(st, waitSec, "")
		ch <- reply{services, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("SSDP search: %w", r.err)
		}
		return r.services, nil
	}
}

// Addresses returns the distinct device addresses in ascending order.
func Addresses(devices []Device) []addr.Address {
	out := make([]addr.Address, 0, len(devices))
	for _, d := range devices {
		out = append(out, d.Host)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func toDevice(svc gossdp.Service) (Device, bool) {
	host, ok := hostFromLocation(svc.Location)
	if !ok {
		return Device{}, false
	}
	return Device{Host: host, Location: svc.Location, Server: svc.Server, USN: svc.USN, ST: svc.Type}, true
}

// hostFromLocation extracts the IPv4 host of a URL like "http://192.168.1.1:8080/desc.xml".
func hostFromLocation(location string) (addr.Address, bool) {
	if location == "" {
		return 0, false
	}
	u, err := url.Parse(location)
	if err != nil {
		return 0, false
	}
	ip := net.ParseIP(u.Hostname())
	if ip == nil {
		return 0, false
	}
	return addr.FromIP(ip)
}
