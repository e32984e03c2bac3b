//go:build linux

package netinfo

import (
	"os"

	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/addr"
)

const routeTable = "/proc/net/route"

// DefaultRoute returns the IPv4 default route.
func DefaultRoute() (*Route, error) {
	f, err := os.Open(routeTable)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseRouteTable(f)
}

// DefaultGateway returns the IPv4 gateway of the default route.
func DefaultGateway() (addr.Address, error) {
	rt, err := DefaultRoute()
	if err != nil {
		return 0, err
	}
	return rt.Gateway, nil
}
