package policy

import (
	"sort"

	"cspHTTP/internal/parser"
)

// tokenSet collects unique source tokens for one directive.
type tokenSet map[string]struct{}

func newTokenSet(tokens ...string) tokenSet {
	s := make(tokenSet, len(tokens))
	s.add(tokens...)
	return s
}

func (s tokenSet) add(tokens ...string) {
	for _, t := range tokens {
		if t != "" {
			s[t] = struct{}{}
		}
	}
}

// addURL adds the host[:port] of an absolute URL. Anything else is skipped.
func (s tokenSet) addURL(raw string) {
	if host, ok := parser.HostWithPort(raw); ok {
		s.add(host)
	}
}

// addReference adds the host of an element reference, or 'self' when the
// reference is relative to the current document.
func (s tokenSet) addReference(raw string) {
	if host, ok := parser.HostWithPort(raw); ok {
		s.add(host)
		return
	}
	if parser.IsRelative(raw) {
		s.add(Self)
	}
}

// list returns host sources sorted, followed by keywords in keywordOrder.
// 'none' is dropped when any other source is present.
func (s tokenSet) list() []string {
	if len(s) > 1 {
		delete(s, None)
	}

	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool {
		ki, kj := IsKeyword(out[i]), IsKeyword(out[j])
		if ki != kj {
			return !ki
		}
		if ki {
			ri, rj := keywordRank(out[i]), keywordRank(out[j])
			if ri != rj {
				return ri < rj
			}
		}
		return out[i] < out[j]
	})

	return out
}
