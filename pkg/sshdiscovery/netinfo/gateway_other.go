//go:build !linux

package netinfo

import "github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/addr"

// DefaultRoute is only implemented on Linux.
func DefaultRoute() (*Route, error) {
	return nil, ErrNotSupported
}

// DefaultGateway is only implemented on Linux.
func DefaultGateway() (addr.Address, error) {
	return 0, ErrNotSupported
}
