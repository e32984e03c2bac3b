// Package addr converts IPv4 addresses between dotted-quad text and their
// 32-bit integer form, and builds subnet masks from prefix lengths.
package addr

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ErrMalformedAddress is returned when text is not four dot-separated integers in [0,255].
var ErrMalformedAddress = errors.New("malformed IPv4 address")

// MaxPrefixLen is the largest valid IPv4 prefix length.
const MaxPrefixLen = 32

// Address is an IPv4 address in host byte order. The dotted-quad text is only
// a presentation form.
type Address uint32

// Parse converts dotted-quad text into an Address.
func Parse(text string) (Address, error) {
	parts := strings.Split(text, ".")
	if len(parts) != 4 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedAddress, text)
	}
	var a Address
	for _, p := range parts {
		if p == "" || len(p) > 3 || !isDigits(p) {
			return 0, fmt.Errorf("%w: %q", ErrMalformedAddress, text)
		}
		v, err := strconv.Atoi(p)
		if err != nil || v > 255 {
			return 0, fmt.Errorf("%w: %q", ErrMalformedAddress, text)
		}
		a = a<<8 | Address(v)
	}
	return a, nil
}

// MustParse is like Parse but panics on malformed input. Intended for tests and constants.
func MustParse(text string) Address {
	a, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return a
}

// Format returns the dotted-quad text of a.
func Format(a Address) string {
	o := a.Octets()
	return strconv.Itoa(int(o[0])) + "." + strconv.Itoa(int(o[1])) + "." +
		strconv.Itoa(int(o[2])) + "." + strconv.Itoa(int(o[3]))
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return Format(a)
}

// Octets returns the four octets of a, most significant first.
func (a Address) Octets() [4]byte {
	return [4]byte{byte(a >> 24), byte(a >> 16), byte(a >> 8), byte(a)}
}

// IP returns a as a 4-byte net.IP.
func (a Address) IP() net.IP {
	o := a.Octets()
	return net.IPv4(o[0], o[1], o[2], o[3]).To4()
}

// FromIP converts an IPv4 net.IP into an Address. ok is false for IPv6 or nil input.
func FromIP(ip net.IP) (Address, bool) {
	ip4 := ip.To4()
	if ip4 == nil {
		return 0, false
	}
	return Address(uint32(ip4[0])<<24 | uint32(ip4[1])<<16 | uint32(ip4[2])<<8 | uint32(ip4[3])), true
}

// PrefixToMask returns the subnet mask with prefixLen leading one-bits.
// Values above 32 are clamped to 32.
func PrefixToMask(prefixLen int) Address {
	switch {
	case prefixLen <= 0:
		return 0
	case prefixLen >= MaxPrefixLen:
		return ^Address(0)
	}
	return ^Address(0) << (MaxPrefixLen - prefixLen)
}

// MaskToPrefix returns the number of leading one-bits in mask, or -1 when the
// mask is not contiguous.
func MaskToPrefix(mask Address) int {
	ones := 0
	for m := mask; m&(1<<31) != 0; m <<= 1 {
		ones++
	}
	if PrefixToMask(ones) != mask {
		return -1
	}
	return ones
}

// IsDottedQuad reports whether text looks like an attempt at an IPv4 literal
// (only digits and dots). Such text is an address, never a hostname, even when
// it fails to parse.
func IsDottedQuad(text string) bool {
	if !strings.Contains(text, ".") {
		return false
	}
	for _, c := range text {
		if c != '.' && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
