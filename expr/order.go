package expr

import (
	"cmp"
	"strings"
)

// compareNodes is the canonical total order of terms and bases: kind first,
// then the kind's natural key, then the structural hash. Identity only
// breaks hash collisions.
func compareNodes(a, b *Node) int {
	if a == b {
		return 0
	}
	if c := cmp.Compare(a.kind, b.kind); c != 0 {
		return c
	}
	switch a.kind {
	case KindScalar:
		if c := a.scalar.Cmp(b.scalar); c != 0 {
			return c
		}
	case KindSymbol:
		if c := strings.Compare(a.name, b.name); c != 0 {
			return c
		}
	case KindFunction:
		if c := strings.Compare(a.name, b.name); c != 0 {
			return c
		}
		if c := cmp.Compare(len(a.args), len(b.args)); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(a.hash, b.hash); c != 0 {
		return c
	}
	return cmp.Compare(a.id, b.id)
}

func compareAddTerms(a, b AddTerm) int { return compareNodes(a.Term, b.Term) }

func compareIntPows(a, b IntPow) int { return compareNodes(a.Base, b.Base) }

func compareRealPows(a, b RealPow) int { return compareNodes(a.Base, b.Base) }
