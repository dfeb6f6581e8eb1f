package expr

import "github.com/cottand/symdag/value"

// Visitor is implemented by passes over expressions, one method per kind.
// Handles passed to a visitor are borrowed.
type Visitor[R any] interface {
	VisitScalar(e Expr, v value.Value) R
	VisitSymbol(e Expr, name string) R
	VisitFunction(e Expr, f Function) R
	VisitAdditive(e Expr, a Additive) R
	VisitMultiplicative(e Expr, m Multiplicative) R
	VisitBuilder(e Expr, b Builder) R
}

// Visit dispatches e to the method of v for its kind.
func Visit[R any](e Expr, v Visitor[R]) R {
	switch e.n.kind {
	case KindScalar:
		return v.VisitScalar(e, e.n.scalar)
	case KindSymbol:
		return v.VisitSymbol(e, e.n.name)
	case KindFunction:
		return v.VisitFunction(e, Function{e})
	case KindAdditive:
		return v.VisitAdditive(e, Additive{e})
	case KindMultiplicative:
		return v.VisitMultiplicative(e, Multiplicative{e})
	case KindAddBuilder, KindMulBuilder:
		return v.VisitBuilder(e, Builder{e})
	}
	invariantf("visiting node %d of unknown kind %s", e.n.id, e.n.kind)
	panic("unreachable")
}
