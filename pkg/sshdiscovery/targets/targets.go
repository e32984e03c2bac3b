// Package targets turns user-supplied host entries into a candidate list.
//
// An entry is an IPv4 literal, a CIDR block or a hostname. Literals and CIDR
// blocks pass through the allow-list; hostnames are probed as given.
package targets

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/addr"
	"github.com/marcuoli/go-sshdiscovery/pkg/sshdiscovery/subnet"
)

// DebugLogger is a callback for debug logging.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// ErrInvalidHostname is returned for entries that are neither addresses nor valid hostnames.
var ErrInvalidHostname = errors.New("invalid hostname")

// Targets is the parsed form of a list of entries.
type Targets struct {
	// Ranges holds every allowed address from literal and CIDR entries.
	Ranges *subnet.CandidateSet
	// Hosts holds hostnames in first-seen order, deduplicated case-insensitively.
	Hosts []string
	// Excluded counts addresses dropped by the allow-list.
	Excluded uint64
	// Derivations records each CIDR entry's expansion, in input order.
	Derivations []*subnet.Derivation
}

// Len returns the number of candidates.
func (t *Targets) Len() uint64 {
	if t == nil {
		return 0
	}
	return t.Ranges.Len() + uint64(len(t.Hosts))
}

// Empty reports whether there is nothing to probe.
func (t *Targets) Empty() bool {
	return t.Len() == 0
}

// All yields addresses in ascending order, then hostnames.
func (t *Targets) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		if t == nil {
			return
		}
		for s := range t.Ranges.Strings() {
			if !yield(s) {
				return
			}
		}
		for _, h := range t.Hosts {
			if !yield(h) {
				return
			}
		}
	}
}

// Parse classifies entries and expands CIDR blocks with d. Bad entries are
// reported together in the returned error; the good ones are still returned.
func Parse(entries []string, d *subnet.Deriver) (*Targets, error) {
	if d == nil {
		d = subnet.NewDeriver()
	}
	var (
		sets  []*subnet.CandidateSet
		errs  []error
		seen  = make(map[string]bool)
		out   = &Targets{}
		exact = &subnet.Deriver{MaxHosts: 0, Force: true, Policy: d.Policy}
	)

	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		switch {
		case strings.Contains(entry, "/"):
			base, prefixLen, err := subnet.ParseCIDR(entry)
			if err != nil {
				errs = append(errs, fmt.Errorf("entry %q: %w", entry, err))
				continue
			}
			der, err := d.Derive(base, prefixLen)
			if err != nil {
				errs = append(errs, fmt.Errorf("entry %q: %w", entry, err))
				continue
			}
			out.Derivations = append(out.Derivations, der)
			out.Excluded += der.Excluded
			sets = append(sets, der.Candidates)
			debugLog("entry %s: %d candidates (%s)", entry, der.Candidates.Len(), der.Fallback)

		case addr.IsDottedQuad(entry):
			a, err := addr.Parse(entry)
			if err != nil {
				errs = append(errs, fmt.Errorf("entry %q: %w", entry, err))
				continue
			}
			der, _ := exact.Derive(a, addr.MaxPrefixLen)
			if der.Excluded > 0 {
				debugLog("entry %s: excluded by allow-list", entry)
			}
			out.Excluded += der.Excluded
			sets = append(sets, der.Candidates)

		default:
			if !validHostname(entry) {
				errs = append(errs, fmt.Errorf("entry %q: %w", entry, ErrInvalidHostname))
				continue
			}
			key := strings.ToLower(entry)
			if seen[key] {
				continue
			}
			seen[key] = true
			out.Hosts = append(out.Hosts, entry)
		}
	}

	out.Ranges = subnet.Union(sets...)
	return out, errors.Join(errs...)
}

// ReadFile reads one entry per line from path.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	entries, err := ReadEntries(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// ReadEntries reads one entry per line, skipping blank lines and # comments.
// Text after the first whitespace on a line is ignored.
func ReadEntries(r io.Reader) ([]string, error) {
	var entries []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if fields := strings.Fields(line); len(fields) > 0 {
			entries = append(entries, fields[0])
		}
	}
	return entries, sc.Err()
}

// SplitList splits a comma or whitespace separated list of entries.
func SplitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

func validHostname(h string) bool {
	h = strings.TrimSuffix(h, ".")
	if len(h) == 0 || len(h) > 253 {
		return false
	}
	for _, label := range strings.Split(h, ".") {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			switch {
			case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			default:
				return false
			}
		}
	}
	return true
}
