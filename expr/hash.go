package expr

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/cottand/symdag/value"
)

// shape is a candidate payload for getOrCreate. Slices are borrowed: they
// are copied into pooled storage only when a new node is created.
type shape struct {
	kind       Kind
	scalar     value.Value
	name       string
	args       []*Node
	add        additive
	mul        multiplicative
	normalized bool
}

// hashShape hashes kind and payload. Children contribute their own
// structural hash, never their address, so the order derived from hashes is
// the same in every session.
func (s *Session) hashShape(sh *shape) uint64 {
	b := s.hashBuf[:0]
	u64 := func(x uint64) { b = binary.LittleEndian.AppendUint64(b, x) }

	u64(uint64(sh.kind))
	switch sh.kind {
	case KindScalar:
		u64(sh.scalar.Bits())
	case KindSymbol:
		u64(xxhash.Sum64String(sh.name))
	case KindFunction:
		u64(xxhash.Sum64String(sh.name))
		u64(uint64(len(sh.args)))
		for _, a := range sh.args {
			u64(a.hash)
		}
	case KindAdditive:
		u64(sh.add.offset.Bits())
		for _, t := range sh.add.terms {
			u64(t.Coef.Bits())
			u64(t.Term.hash)
		}
		if sh.add.logArg != nil {
			u64(sh.add.logCoef.Bits())
			u64(sh.add.logArg.hash)
		}
	case KindMultiplicative:
		for _, p := range sh.mul.ints {
			u64(uint64(p.Power))
			u64(p.Base.hash)
		}
		u64(0xffff)
		for _, p := range sh.mul.reals {
			u64(p.Power.Bits())
			u64(p.Base.hash)
		}
		if sh.mul.expArg != nil {
			u64(sh.mul.expArg.hash)
		}
	default:
		invariantf("hashing unhashed kind %s", sh.kind)
	}
	s.hashBuf = b
	return xxhash.Sum64(b)
}

// matches compares a stored node with a candidate shape. Children are
// canonical, so they compare by identity.
func (n *Node) matches(sh *shape) bool {
	switch sh.kind {
	case KindScalar:
		return n.scalar.Equal(sh.scalar)
	case KindSymbol:
		return n.name == sh.name
	case KindFunction:
		if n.name != sh.name || len(n.args) != len(sh.args) {
			return false
		}
		for i, a := range sh.args {
			if n.args[i] != a {
				return false
			}
		}
		return true
	case KindAdditive:
		a, b := &n.add, &sh.add
		if !a.offset.Equal(b.offset) || a.logArg != b.logArg || len(a.terms) != len(b.terms) {
			return false
		}
		if a.logArg != nil && !a.logCoef.Equal(b.logCoef) {
			return false
		}
		for i, t := range b.terms {
			if a.terms[i].Term != t.Term || !a.terms[i].Coef.Equal(t.Coef) {
				return false
			}
		}
		return true
	case KindMultiplicative:
		a, b := &n.mul, &sh.mul
		if a.expArg != b.expArg || len(a.ints) != len(b.ints) || len(a.reals) != len(b.reals) {
			return false
		}
		for i, p := range b.ints {
			if a.ints[i] != p {
				return false
			}
		}
		for i, p := range b.reals {
			if a.reals[i].Base != p.Base || !a.reals[i].Power.Equal(p.Power) {
				return false
			}
		}
		return true
	}
	return false
}
