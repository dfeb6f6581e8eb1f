package expr

import (
	"github.com/cottand/symdag/value"
)

// The combinators below borrow their operands and return a new canonical
// handle owned by the caller.

func (s *Session) Scalar(v value.Value) Expr { return s.wrap(s.scalarValue(v)) }

func (s *Session) Float(f float64) Expr { return s.Scalar(value.Of(f)) }

func (s *Session) Symbol(name string) Expr {
	return s.wrap(s.getOrCreate(&shape{kind: KindSymbol, name: name}))
}

// Canonicalize returns the canonical form of e. Canonical expressions are
// returned unchanged, so Canonicalize is idempotent.
func (s *Session) Canonicalize(e Expr) Expr {
	n := s.node(e)
	if n.kind.Canonical() {
		return s.wrap(s.retain(n))
	}
	return s.wrap(s.finalize(s.canon(n, true)))
}

// combine builds a one-off builder of the given kind from borrowed items and
// canonicalizes it straight away.
func (s *Session) combine(kind Kind, items ...item) Expr {
	n := s.newBuilder(kind)
	defer s.release(n)
	for _, it := range items {
		s.appendItem(n, it)
	}
	return s.wrap(s.finalize(s.canon(n, true)))
}

func (s *Session) Add(a, b Expr) Expr {
	return s.combine(KindAddBuilder, item{Value: value.One(), Node: s.node(a)}, item{Value: value.One(), Node: s.node(b)})
}

func (s *Session) Sub(a, b Expr) Expr {
	return s.combine(KindAddBuilder, item{Value: value.One(), Node: s.node(a)}, item{Value: value.MinusOne(), Node: s.node(b)})
}

func (s *Session) Neg(a Expr) Expr {
	return s.combine(KindAddBuilder, item{Value: value.MinusOne(), Node: s.node(a)})
}

func (s *Session) Mul(a, b Expr) Expr {
	return s.combine(KindMulBuilder, item{Value: value.One(), Node: s.node(a)}, item{Value: value.One(), Node: s.node(b)})
}

func (s *Session) Div(a, b Expr) Expr {
	return s.combine(KindMulBuilder, item{Value: value.One(), Node: s.node(a)}, item{Value: value.MinusOne(), Node: s.node(b)})
}

func (s *Session) PowInt(a Expr, k int64) Expr {
	return s.combine(KindMulBuilder, item{Value: value.Int(k), Node: s.node(a)})
}

func (s *Session) PowReal(a Expr, p value.Value) Expr {
	return s.combine(KindMulBuilder, item{Value: p, Node: s.node(a)})
}

func (s *Session) Exp(a Expr) Expr {
	return s.combine(KindMulBuilder, item{Value: value.One(), Node: s.node(a), Special: true})
}

func (s *Session) Log(a Expr) Expr {
	return s.combine(KindAddBuilder, item{Value: value.One(), Node: s.node(a), Special: true})
}

// Abs folds constants and nested abs, and pulls the magnitude of a
// constant factor out: abs(c·m) = |c|·abs(m).
func (s *Session) Abs(a Expr) Expr {
	r := s.canon(s.node(a), true)
	if r.node == nil {
		return s.Scalar(r.scale.Abs())
	}
	defer s.release(r.node)
	inner := r.node
	if inner.kind == KindFunction && inner.name == "abs" && len(inner.args) == 1 {
		return s.wrap(s.finalize(scaled{scale: r.scale.Abs(), node: s.retain(inner)}))
	}
	args := [1]*Node{inner}
	f := s.getOrCreate(&shape{kind: KindFunction, name: "abs", args: args[:]})
	return s.wrap(s.finalize(scaled{scale: r.scale.Abs(), node: f}))
}

// Apply builds the opaque function application name(args...). Arguments
// that are still builders are canonicalized first.
func (s *Session) Apply(name string, args ...Expr) Expr {
	nodes := make([]*Node, len(args))
	for i, a := range args {
		n := s.node(a)
		if n.kind.Canonical() {
			nodes[i] = s.retain(n)
		} else {
			nodes[i] = s.finalize(s.canon(n, true))
		}
	}
	defer func() {
		for _, n := range nodes {
			s.release(n)
		}
	}()
	return s.wrap(s.getOrCreate(&shape{kind: KindFunction, name: name, args: nodes}))
}
