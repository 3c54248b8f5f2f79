// Package xmlparser contains path compilation helpers used by Document.Find.
// Paths look like "are:Odpoved/D:VBAS/D:AA": a slash separated list of
// element names, each optionally qualified by a namespace prefix declared in
// the document.
package xmlparser

import (
	"fmt"
	"strings"
)

// seg is one path segment. An empty prefix matches the local name in any
// namespace.
type seg struct{ prefix, local string }

// pathSpec is a compiled relative path.
type pathSpec struct{ segs []seg }

// parsePathSpec parses a relative path such as "dtt:V/dtt:S".
func parsePathSpec(raw string) (pathSpec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return pathSpec{}, fmt.Errorf("empty path")
	}
	parts := strings.Split(raw, "/")
	segs := make([]seg, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return pathSpec{}, fmt.Errorf("bad empty segment in %q", raw)
		}
		s := seg{local: p}
		if i := strings.Index(p, ":"); i != -1 {
			s.prefix, s.local = p[:i], p[i+1:]
			if s.prefix == "" || s.local == "" {
				return pathSpec{}, fmt.Errorf("bad qualified name %q in %q", p, raw)
			}
		}
		segs = append(segs, s)
	}
	return pathSpec{segs: segs}, nil
}

// matcher is a segment with its prefix resolved against the document.
type matcher struct {
	space string // namespace URL; empty when anyNS
	local string
	anyNS bool
	// unresolved is set when the prefix is not declared; such a segment
	// never matches.
	unresolved bool
}

func (m matcher) matches(n *Node) bool {
	if m.unresolved || n.Local != m.local {
		return false
	}
	return m.anyNS || n.Space == m.space
}

// resolve binds the path's prefixes to namespace URLs declared in ns.
func (p pathSpec) resolve(ns map[string]string) []matcher {
	out := make([]matcher, len(p.segs))
	for i, s := range p.segs {
		if s.prefix == "" {
			out[i] = matcher{local: s.local, anyNS: true}
			continue
		}
		url, ok := ns[s.prefix]
		out[i] = matcher{space: url, local: s.local, unresolved: !ok}
	}
	return out
}
