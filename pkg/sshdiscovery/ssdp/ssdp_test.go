package ssdp

import (
	"context"
	"errors"
	"slices"
	"testing"

	gossdp "github.com/koron/go-ssdp"

	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/addr"
)

func TestHostFromLocation(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"http://192.168.1.1:8080/desc.xml", "192.168.1.1", true},
		{"http://10.0.0.5/rootDesc.xml", "10.0.0.5", true},
		{"http://[fe80::1]:80/desc.xml", "", false},
		{"http://nas.local:5000/desc.xml", "", false},
		{"", "", false},
		{"::bad", "", false},
	}
	for _, tt := range tests {
		got, ok := hostFromLocation(tt.in)
		if ok != tt.ok || (ok && got.String() != tt.want) {
			t.Errorf("hostFromLocation(%q) = %s, %v; want %s, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDiscover_DedupAndFilter(t *testing.T) {
	s := &Source{Targets: []string{All, RootDevice}}
	s.Search = func(st string, waitSec int, localAddr string) ([]gossdp.Service, error) {
		return []gossdp.Service{
			{Type: st, USN: "uuid:router", Location: "http://192.168.1.1:1900/igd.xml"},
			{Type: st, USN: "uuid:nas", Location: "http://192.168.1.20:5000/desc.xml"},
			{Type: st, USN: "uuid:v6", Location: "http://[fe80::2]/desc.xml"},
		}, nil
	}
	devices, err := s.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devices))
	}
	want := []addr.Address{addr.MustParse("192.168.1.1"), addr.MustParse("192.168.1.20")}
	if got := Addresses(devices); !slices.Equal(got, want) {
		t.Errorf("Addresses = %v, want %v", got, want)
	}
}

func TestDiscover_AllTargetsFail(t *testing.T) {
	boom := errors.New("no multicast")
	s := &Source{Targets: []string{All}}
	s.Search = func(string, int, string) ([]gossdp.Service, error) { return nil, boom }
	if _, err := s.Discover(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestDiscover_PartialFailure(t *testing.T) {
	s := &Source{Targets: []string{All, RootDevice}}
	s.Search = func(st string, _ int, _ string) ([]gossdp.Service, error) {
		if st == All {
			return nil, errors.New("timeout")
		}
		return []gossdp.Service{{USN: "u", Location: "http://10.1.1.1/x"}}, nil
	}
	devices, err := s.Discover(context.Background())
	if err != nil || len(devices) != 1 {
		t.Errorf("expected one device and no error, got %v, %v", devices, err)
	}
}

func TestDiscover_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &Source{Search: func(string, int, string) ([]gossdp.Service, error) { return nil, nil }}
	if _, err := s.Discover(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestAddresses_Empty(t *testing.T) {
	if got := Addresses(nil); len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}
