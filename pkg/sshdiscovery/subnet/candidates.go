package subnet

import (
	"iter"
	"sort"

	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/addr"
)

// CandidateSet is an immutable, deduplicated set of addresses to probe.
// It is stored as sorted, disjoint spans so that very large forced ranges are
// never materialised; iteration yields addresses in ascending order.
type CandidateSet struct {
	spans []addr.Span
}

// NewCandidateSet builds a set from arbitrary, possibly overlapping spans.
// Empty spans are ignored.
func NewCandidateSet(spans ...addr.Span) *CandidateSet {
	return &CandidateSet{spans: normalize(spans)}
}

// Union returns a set containing every address of the given sets exactly once.
// Nil sets are treated as empty.
func Union(sets ...*CandidateSet) *CandidateSet {
	var all []addr.Span
	for _, s := range sets {
		if s != nil {
			all = append(all, s.spans...)
		}
	}
	return &CandidateSet{spans: normalize(all)}
}

// Len returns the number of addresses in the set.
func (c *CandidateSet) Len() uint64 {
	if c == nil {
		return 0
	}
	var n uint64
	for _, s := range c.spans {
		n += s.Len()
	}
	return n
}

// Empty reports whether the set has no addresses.
func (c *CandidateSet) Empty() bool {
	return c == nil || len(c.spans) == 0
}

// Spans returns a copy of the set's spans in ascending order.
func (c *CandidateSet) Spans() []addr.Span {
	if c == nil {
		return nil
	}
	out := make([]addr.Span, len(c.spans))
	copy(out, c.spans)
	return out
}

// Contains reports whether a is in the set.
func (c *CandidateSet) Contains(a addr.Address) bool {
	if c == nil {
		return false
	}
	i := sort.Search(len(c.spans), func(i int) bool { return c.spans[i].Last >= a })
	return i < len(c.spans) && c.spans[i].First <= a
}

// All yields every address in ascending order.
func (c *CandidateSet) All() iter.Seq[addr.Address] {
	return func(yield func(addr.Address) bool) {
		if c == nil {
			return
		}
		for _, s := range c.spans {
			for a := s.First; ; a++ {
				if !yield(a) {
					return
				}
				if a == s.Last {
					break
				}
			}
		}
	}
}

// Strings yields the dotted-quad form of every address in ascending order.
func (c *CandidateSet) Strings() iter.Seq[string] {
	return func(yield func(string) bool) {
		for a := range c.All() {
			if !yield(a.String()) {
				return
			}
		}
	}
}

// normalize sorts spans and merges overlapping or adjacent ones.
func normalize(spans []addr.Span) []addr.Span {
	in := make([]addr.Span, 0, len(spans))
	for _, s := range spans {
		if s.Len() > 0 {
			in = append(in, s)
		}
	}
	if len(in) == 0 {
		return nil
	}
	sort.Slice(in, func(i, j int) bool { return in[i].First < in[j].First })

	out := []addr.Span{in[0]}
	for _, s := range in[1:] {
		cur := &out[len(out)-1]
		if cur.Last == ^addr.Address(0) || s.First <= cur.Last+1 {
			if s.Last > cur.Last {
				cur.Last = s.Last
			}
			continue
		}
		out = append(out, s)
	}
	return out
}
