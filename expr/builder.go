package expr

import (
	"github.com/cottand/symdag/value"
)

func (s *Session) newBuilder(kind Kind) *Node {
	n := s.allocNode(kind)
	s.mustAlloc("builder list", func() (ok bool) {
		n.build, ok = s.lists.New()
		return ok
	})
	n.build.scale = value.One()
	n.flags |= flagTemporary
	s.builders++
	return n
}

// mutable checks that n may be changed in place: its only reference is
// held by the builder and it has not been handed out yet.
func (s *Session) mutable(n *Node) *builderList {
	if n == nil {
		invariantf("builder used after it was consumed")
	}
	if n.refs != 1 || !n.has(flagTemporary) {
		invariantf("in-place mutation of shared %s node %d (refs %d)", n.kind, n.id, n.refs)
	}
	return n.build
}

// appendItem adds it to the builder n, taking a reference on it.Node once
// n is known to be mutable.
func (s *Session) appendItem(n *Node, it item) {
	b := s.mutable(n)
	s.retain(it.Node)
	if it.Special {
		b.special++
	}
	b.items.Append(it)
}

// SumBuilder assembles scale·(Σ items) without canonicalizing anything
// until Build. It is consumed by Expr, Build or Discard.
type SumBuilder struct {
	s *Session
	n *Node
}

func (s *Session) NewSum() *SumBuilder {
	return &SumBuilder{s: s, n: s.newBuilder(KindAddBuilder)}
}

func (b *SumBuilder) Add(e Expr) *SumBuilder { return b.AddScaled(value.One(), e) }

// AddScaled appends coef·e. The builder takes its own reference on e.
func (b *SumBuilder) AddScaled(coef value.Value, e Expr) *SumBuilder {
	n := b.s.node(e)
	b.s.appendItem(b.n, item{Value: coef, Node: n})
	return b
}

func (b *SumBuilder) AddConst(v value.Value) *SumBuilder {
	c := b.s.scalarValue(v)
	defer b.s.release(c)
	b.s.appendItem(b.n, item{Value: value.One(), Node: c})
	return b
}

// AddLog appends coef·log(e).
func (b *SumBuilder) AddLog(coef value.Value, e Expr) *SumBuilder {
	n := b.s.node(e)
	b.s.appendItem(b.n, item{Value: coef, Node: n, Special: true})
	return b
}

// Scale multiplies the whole sum by v.
func (b *SumBuilder) Scale(v value.Value) *SumBuilder {
	list := b.s.mutable(b.n)
	list.scale = list.scale.Mul(v)
	return b
}

func (b *SumBuilder) Len() int { return b.s.mutable(b.n).items.Len() }

// Expr hands the pre-canonical sum out as an ordinary handle. The node is
// no longer temporary, so it can be shared and nested in other builders.
func (b *SumBuilder) Expr() Expr {
	n := b.take()
	n.flags &^= flagTemporary
	return b.s.wrap(n)
}

// Build canonicalizes the sum and consumes the builder.
func (b *SumBuilder) Build() Expr {
	n := b.take()
	defer b.s.release(n)
	return b.s.wrap(b.s.finalize(b.s.canon(n, true)))
}

// Discard drops the builder's reference. It never mutates the node, so it
// is fine while the node is shared.
func (b *SumBuilder) Discard() {
	n := b.n
	b.n = nil
	b.s.release(n)
}

func (b *SumBuilder) take() *Node {
	b.s.mutable(b.n)
	n := b.n
	b.n = nil
	return n
}

// ProductBuilder assembles scale·(Π items) without canonicalizing anything
// until Build. It is consumed by Expr, Build or Discard.
type ProductBuilder struct {
	s *Session
	n *Node
}

func (s *Session) NewProduct() *ProductBuilder {
	return &ProductBuilder{s: s, n: s.newBuilder(KindMulBuilder)}
}

func (b *ProductBuilder) Mul(e Expr) *ProductBuilder { return b.Pow(e, value.One()) }

func (b *ProductBuilder) PowInt(e Expr, k int64) *ProductBuilder { return b.Pow(e, value.Int(k)) }

// Pow appends e^p. The builder takes its own reference on e.
func (b *ProductBuilder) Pow(e Expr, p value.Value) *ProductBuilder {
	n := b.s.node(e)
	b.s.appendItem(b.n, item{Value: p, Node: n})
	return b
}

// Exp appends exp(coef·e).
func (b *ProductBuilder) Exp(coef value.Value, e Expr) *ProductBuilder {
	n := b.s.node(e)
	b.s.appendItem(b.n, item{Value: coef, Node: n, Special: true})
	return b
}

func (b *ProductBuilder) Scale(v value.Value) *ProductBuilder {
	list := b.s.mutable(b.n)
	list.scale = list.scale.Mul(v)
	return b
}

func (b *ProductBuilder) Len() int { return b.s.mutable(b.n).items.Len() }

func (b *ProductBuilder) Expr() Expr {
	n := b.take()
	n.flags &^= flagTemporary
	return b.s.wrap(n)
}

func (b *ProductBuilder) Build() Expr {
	n := b.take()
	defer b.s.release(n)
	return b.s.wrap(b.s.finalize(b.s.canon(n, true)))
}

func (b *ProductBuilder) Discard() {
	n := b.n
	b.n = nil
	b.s.release(n)
}

func (b *ProductBuilder) take() *Node {
	b.s.mutable(b.n)
	n := b.n
	b.n = nil
	return n
}
