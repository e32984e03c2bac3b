package addr

// Span is an inclusive run of consecutive addresses. A Span with Last < First is empty.
type Span struct {
	First Address
	Last  Address
}

// Len returns the number of addresses in s.
func (s Span) Len() uint64 {
	if s.Last < s.First {
		return 0
	}
	return uint64(s.Last-s.First) + 1
}

// Contains reports whether a lies within s.
func (s Span) Contains(a Address) bool {
	return a >= s.First && a <= s.Last
}
