package expr

import (
	"iter"

	"github.com/cottand/symdag/util"
	"github.com/cottand/symdag/value"
)

func (e Expr) ScalarValue() (value.Value, bool) {
	if e.n.kind != KindScalar {
		return value.Value{}, false
	}
	return e.n.scalar, true
}

func (e Expr) SymbolName() (string, bool) {
	if e.n.kind != KindSymbol {
		return "", false
	}
	return e.n.name, true
}

func (e Expr) borrow(n *Node) Expr { return Expr{s: e.s, n: n} }

// Additive is a read-only view of an additive node:
// Offset + Σ Coef(i)·Term(i) [+ c·log(u)].
type Additive struct{ e Expr }

func (e Expr) AsAdditive() Additive {
	if e.n.kind != KindAdditive {
		wrongKind(e.n.kind, KindAdditive)
	}
	return Additive{e}
}

func (a Additive) Offset() value.Value    { return a.e.n.add.offset }
func (a Additive) Len() int               { return len(a.e.n.add.terms) }
func (a Additive) Coef(i int) value.Value { return a.e.n.add.terms[i].Coef }
func (a Additive) Term(i int) Expr        { return a.e.borrow(a.e.n.add.terms[i].Term) }
func (a Additive) Normalized() bool       { return a.e.n.has(flagNormalized) }

// Log returns the log component. ok is false, and the Expr nil, when the
// sum has none.
func (a Additive) Log() (coef value.Value, arg Expr, ok bool) {
	add := &a.e.n.add
	if add.logArg == nil {
		return value.Zero(), Expr{}, false
	}
	return add.logCoef, a.e.borrow(add.logArg), true
}

// Multiplicative is a read-only view of a product of powers:
// Π IntBase(i)^IntPower(i) · Π RealBase(i)^RealPower(i) [· exp(u)].
type Multiplicative struct{ e Expr }

func (e Expr) AsMultiplicative() Multiplicative {
	if e.n.kind != KindMultiplicative {
		wrongKind(e.n.kind, KindMultiplicative)
	}
	return Multiplicative{e}
}

func (m Multiplicative) IntLen() int                 { return len(m.e.n.mul.ints) }
func (m Multiplicative) IntPower(i int) int64        { return m.e.n.mul.ints[i].Power }
func (m Multiplicative) IntBase(i int) Expr          { return m.e.borrow(m.e.n.mul.ints[i].Base) }
func (m Multiplicative) RealLen() int                { return len(m.e.n.mul.reals) }
func (m Multiplicative) RealPower(i int) value.Value { return m.e.n.mul.reals[i].Power }
func (m Multiplicative) RealBase(i int) Expr         { return m.e.borrow(m.e.n.mul.reals[i].Base) }

// Exp returns the argument of the exponential factor, if there is one.
func (m Multiplicative) Exp() (Expr, bool) {
	if m.e.n.mul.expArg == nil {
		return Expr{}, false
	}
	return m.e.borrow(m.e.n.mul.expArg), true
}

// Function is a read-only view of an opaque function application.
type Function struct{ e Expr }

func (e Expr) AsFunction() Function {
	if e.n.kind != KindFunction {
		wrongKind(e.n.kind, KindFunction)
	}
	return Function{e}
}

func (f Function) Name() string   { return f.e.n.name }
func (f Function) Arity() int     { return len(f.e.n.args) }
func (f Function) Arg(i int) Expr { return f.e.borrow(f.e.n.args[i]) }

// Builder is a read-only view of a pre-canonical sum or product.
type Builder struct{ e Expr }

func (e Expr) AsBuilder() Builder {
	if e.n.kind != KindAddBuilder && e.n.kind != KindMulBuilder {
		wrongKind(e.n.kind, KindAddBuilder)
	}
	return Builder{e}
}

// Sum reports whether the builder is additive rather than multiplicative.
func (b Builder) Sum() bool          { return b.e.n.kind == KindAddBuilder }
func (b Builder) Scale() value.Value { return b.e.n.build.scale }
func (b Builder) Len() int           { return b.e.n.build.items.Len() }

// Item returns the i-th entry: a coefficient or power, the operand, and
// whether it is the log (sum) or exp (product) carrier.
func (b Builder) Item(i int) (value.Value, Expr, bool) {
	it := b.e.n.build.items.At(i)
	return it.Value, b.e.borrow(it.Node), it.Special
}

// Children yields the direct children of e as borrowed handles.
func (e Expr) Children() iter.Seq[Expr] {
	var nodes []*Node
	e.n.children(func(c *Node) { nodes = append(nodes, c) })
	return util.MapIter(util.SliceIter(nodes), e.borrow)
}
