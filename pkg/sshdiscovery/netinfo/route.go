package netinfo

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/addr"
)

// Columns of /proc/net/route. Addresses are hex in host (little-endian) byte order.
const (
	colIface       = 0
	colDestination = 1
	colGateway     = 2
	colFlags       = 3
	colMask        = 7

	flagUp      = 0x1
	flagGateway = 0x2
)

// Route is the IPv4 default route.
type Route struct {
	Interface string
	Gateway   addr.Address
}

func parseRouteTable(r io.Reader) (*Route, error) {
	sc := bufio.NewScanner(r)
	header := true
	for sc.Scan() {
		if header {
			header = false
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) <= colMask {
			continue
		}
		if fields[colDestination] != "00000000" || fields[colMask] != "00000000" {
			continue
		}
		flags, err := strconv.ParseUint(fields[colFlags], 16, 32)
		if err != nil || flags&(flagUp|flagGateway) != flagUp|flagGateway {
			continue
		}
		gw, err := parseHexLE(fields[colGateway])
		if err != nil {
			return nil, fmt.Errorf("route via %s: %w", fields[colIface], err)
		}
		debugLog("default route via %s dev %s", gw, fields[colIface])
		return &Route{Interface: fields[colIface], Gateway: gw}, nil
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return nil, ErrNoGateway
}

func parseHexLE(s string) (addr.Address, error) {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	b := uint32(v)
	return addr.Address(b&0xFF<<24 | (b>>8)&0xFF<<16 | (b>>16)&0xFF<<8 | b>>24), nil
}
