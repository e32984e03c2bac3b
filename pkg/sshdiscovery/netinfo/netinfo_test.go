package netinfo

import (
	"errors"
	"net"
	"slices"
	"strings"
	"testing"

	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/addr"
)

const sampleRoutes = `Iface	Destination	Gateway 	Flags	RefCnt	Use	Metric	Mask		MTU	Window	IRTT
eth0	0001A8C0	00000000	0001	0	0	100	00FFFFFF	0	0	0
eth0	00000000	0101A8C0	0003	0	0	100	00000000	0	0	0
`

func TestParseRouteTable(t *testing.T) {
	rt, err := parseRouteTable(strings.NewReader(sampleRoutes))
	if err != nil {
		t.Fatalf("parseRouteTable failed: %v", err)
	}
	if want := addr.MustParse("192.168.1.1"); rt.Gateway != want {
		t.Errorf("gateway = %s, want %s", rt.Gateway, want)
	}
	if rt.Interface != "eth0" {
		t.Errorf("interface = %q, want eth0", rt.Interface)
	}
}

func TestParseRouteTable_NoDefault(t *testing.T) {
	in := "Iface\tDestination\tGateway\tFlags\tRefCnt\tUse\tMetric\tMask\n" +
		"eth0\t0001A8C0\t00000000\t0001\t0\t0\t100\t00FFFFFF\n" +
		// default route that is down
		"eth1\t00000000\t0100000A\t0002\t0\t0\t100\t00000000\n"
	if _, err := parseRouteTable(strings.NewReader(in)); !errors.Is(err, ErrNoGateway) {
		t.Errorf("expected ErrNoGateway, got %v", err)
	}
}

func TestParseRouteTable_InterfaceOfDefaultRoute(t *testing.T) {
	in := "Iface\tDestination\tGateway\tFlags\tRefCnt\tUse\tMetric\tMask\n" +
		"docker0\t000011AC\t00000000\t0001\t0\t0\t0\t0000FFFF\n" +
		"wlan0\t00000000\t0100000A\t0003\t0\t0\t600\t00000000\n"
	rt, err := parseRouteTable(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parseRouteTable failed: %v", err)
	}
	if rt.Interface != "wlan0" || rt.Gateway != addr.MustParse("10.0.0.1") {
		t.Errorf("route = %+v, want wlan0 via 10.0.0.1", rt)
	}
}

func TestCandidateInterfaces_DefaultRouteFirst(t *testing.T) {
	ifaces := []net.Interface{
		{Name: "lo", Flags: net.FlagUp | net.FlagLoopback},
		{Name: "docker0", Flags: net.FlagUp},
		{Name: "tun0", Flags: net.FlagUp},
		{Name: "eth1", Flags: 0},
		{Name: "wlan0", Flags: net.FlagUp},
	}
	var got []string
	for _, iface := range candidateInterfaces(ifaces, "wlan0") {
		got = append(got, iface.Name)
	}
	if want := []string{"wlan0", "docker0", "tun0"}; !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}

	got = got[:0]
	for _, iface := range candidateInterfaces(ifaces, "") {
		got = append(got, iface.Name)
	}
	if want := []string{"docker0", "tun0", "wlan0"}; !slices.Equal(got, want) {
		t.Errorf("order without default route = %v, want %v", got, want)
	}
}

func TestParseHexLE(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0101A8C0", "192.168.1.1"},
		{"FE00000A", "10.0.0.254"},
		{"00000000", "0.0.0.0"},
	}
	for _, tt := range tests {
		got, err := parseHexLE(tt.in)
		if err != nil {
			t.Fatalf("parseHexLE(%q): %v", tt.in, err)
		}
		if got.String() != tt.want {
			t.Errorf("parseHexLE(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if _, err := parseHexLE("zz"); err == nil {
		t.Error("expected error for bad hex")
	}
}

func TestFirstIPv4Net(t *testing.T) {
	_, v6, _ := net.ParseCIDR("fe80::1/64")
	v4 := &net.IPNet{IP: net.IPv4(10, 1, 2, 3).To4(), Mask: net.CIDRMask(16, 32)}
	got := firstIPv4Net([]net.Addr{v6, v4})
	if got != v4 {
		t.Errorf("expected the IPv4 network, got %v", got)
	}
	if firstIPv4Net([]net.Addr{v6}) != nil {
		t.Error("expected nil without IPv4")
	}
}

func TestMaskAddress(t *testing.T) {
	if got := addr.MaskToPrefix(maskAddress(net.CIDRMask(120, 128))); got != 24 {
		t.Errorf("16-byte mask prefix = %d, want 24", got)
	}
	if got := addr.MaskToPrefix(maskAddress(net.CIDRMask(20, 32))); got != 20 {
		t.Errorf("4-byte mask prefix = %d, want 20", got)
	}
}

func TestDetect_UnknownInterface(t *testing.T) {
	if _, err := Detect("no-such-iface0"); err == nil {
		t.Error("expected error for unknown interface")
	}
}
