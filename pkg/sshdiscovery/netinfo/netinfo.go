// Package netinfo detects the local IPv4 address, its prefix length and the
// default gateway.
package netinfo

import (
	"errors"
	"fmt"
	"net"

	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/addr"
)

var (
	// ErrNotSupported is returned where the platform offers no way to read the value.
	ErrNotSupported = errors.New("not supported on this platform")
	// ErrNoInterface is returned when no up, non-loopback interface carries an IPv4 address.
	ErrNoInterface = errors.New("no usable interface found")
	// ErrNoIPv4 is returned when the named interface has no IPv4 address.
	ErrNoIPv4 = errors.New("no IPv4 address found on interface")
	// ErrNoGateway is returned when the routing table has no default route.
	ErrNoGateway = errors.New("no default gateway")
)

// DebugLogger is a callback for debug logging.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// Local describes the interface a scan starts from.
type Local struct {
	Interface string
	Address   addr.Address
	PrefixLen int
}

// String returns "iface a.b.c.d/nn".
func (l Local) String() string {
	return fmt.Sprintf("%s %s/%d", l.Interface, l.Address, l.PrefixLen)
}

// Detect returns the first IPv4 address of the named interface. When name is
// empty it prefers the interface carrying the default route, then the first
// up, non-loopback interface.
func Detect(name string) (*Local, error) {
	if name != "" {
		iface, err := net.InterfaceByName(name)
		if err != nil {
			return nil, err
		}
		return localFor(iface)
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	preferred := ""
	if rt, err := DefaultRoute(); err == nil {
		preferred = rt.Interface
	} else {
		debugLog("no default route: %v", err)
	}
	for _, iface := range candidateInterfaces(ifaces, preferred) {
		l, err := localFor(iface)
		if err == nil {
			return l, nil
		}
		debugLog("skip %s: %v", iface.Name, err)
	}
	return nil, ErrNoInterface
}

// candidateInterfaces returns the up, non-loopback interfaces with preferred
// moved to the front.
func candidateInterfaces(ifaces []net.Interface, preferred string) []*net.Interface {
	var out []*net.Interface
	for i := range ifaces {
		iface := &ifaces[i]
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if iface.Name == preferred {
			out = append([]*net.Interface{iface}, out...)
			continue
		}
		out = append(out, iface)
	}
	return out
}

func localFor(iface *net.Interface) (*Local, error) {
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, err
	}
	ipnet := firstIPv4Net(addrs)
	if ipnet == nil {
		return nil, fmt.Errorf("%s: %w", iface.Name, ErrNoIPv4)
	}
	a, _ := addr.FromIP(ipnet.IP)
	ones, bits := ipnet.Mask.Size()
	if bits != 32 {
		// IPv4 address carried with a 16-byte mask.
		ones = addr.MaskToPrefix(maskAddress(ipnet.Mask))
	}
	l := &Local{Interface: iface.Name, Address: a, PrefixLen: ones}
	debugLog("local %s", l)
	return l, nil
}

func firstIPv4Net(addrs []net.Addr) *net.IPNet {
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
			return ipnet
		}
	}
	return nil
}

func maskAddress(m net.IPMask) addr.Address {
	if len(m) == net.IPv6len {
		m = m[12:]
	}
	if len(m) != net.IPv4len {
		return 0
	}
	return addr.Address(uint32(m[0])<<24 | uint32(m[1])<<16 | uint32(m[2])<<8 | uint32(m[3]))
}
