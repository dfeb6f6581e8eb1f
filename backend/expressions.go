package backend

import (
	"go/token"

	"github.com/cottand/symdag/expr"
	"github.com/cottand/symdag/util"
	"github.com/pkg/errors"

	goast "go/ast"
)

type frame struct {
	e        expr.Expr
	expanded bool
}

// parents counts, for every node below e, how many distinct parents
// reference it within e.
func parents(e expr.Expr) map[uint64]int {
	counts := map[uint64]int{}
	seen := map[uint64]bool{}
	var stack util.Stack[expr.Expr]
	stack.Push(e)
	for {
		n, ok := stack.Pop()
		if !ok {
			return counts
		}
		if seen[n.ID()] {
			continue
		}
		seen[n.ID()] = true
		for c := range n.Children() {
			counts[c.ID()]++
			stack.Push(c)
		}
	}
}

func compound(e expr.Expr) bool {
	k := e.Kind()
	return k != expr.KindScalar && k != expr.KindSymbol
}

// transpileBody converts e in post-order, so every node is converted after
// its children. Compound nodes with more than one parent are bound to a
// temporary the first time they are converted.
func (tp *Transpiler) transpileBody(e expr.Expr) (goast.Expr, error) {
	shared := parents(e)
	var stack util.Stack[frame]
	stack.Push(frame{e: e})
	for {
		f, ok := stack.Pop()
		if !ok {
			break
		}
		if _, ok := tp.done[f.e.ID()]; ok {
			continue
		}
		if !f.expanded {
			stack.Push(frame{e: f.e, expanded: true})
			for c := range f.e.Children() {
				stack.Push(frame{e: c})
			}
			continue
		}
		g, err := tp.transpileNode(f.e)
		if err != nil {
			return nil, err
		}
		if compound(f.e) && shared[f.e.ID()] > 1 {
			temp := goast.NewIdent(tempName(len(tp.temps) + 1))
			tp.temps = append(tp.temps, &goast.AssignStmt{
				Lhs: []goast.Expr{temp},
				Tok: token.DEFINE,
				Rhs: []goast.Expr{g},
			})
			g = temp
		}
		tp.done[f.e.ID()] = g
	}
	return tp.done[e.ID()], nil
}

// transpileNode converts one node whose children are already converted.
func (tp *Transpiler) transpileNode(e expr.Expr) (goast.Expr, error) {
	switch e.Kind() {
	case expr.KindScalar:
		v, _ := e.ScalarValue()
		return tp.floatLit(v.Float64()), nil
	case expr.KindSymbol:
		name, _ := e.SymbolName()
		return goast.NewIdent(paramName(name)), nil
	case expr.KindFunction:
		f := e.AsFunction()
		goFn, ok := symbolToGoFuncs[f.Name()]
		if !ok || expr.Funcs[f.Name()].Arity != f.Arity() {
			return nil, errors.Wrapf(ErrUnsupported, "function %s with %d arguments", f.Name(), f.Arity())
		}
		args := make([]goast.Expr, f.Arity())
		for i := range args {
			args[i] = tp.done[f.Arg(i).ID()]
		}
		return tp.mathCall(goFn, args...), nil
	case expr.KindAdditive:
		return tp.additive(e.AsAdditive()), nil
	case expr.KindMultiplicative:
		return tp.multiplicative(e.AsMultiplicative()), nil
	default:
		return nil, errors.Errorf("unexpected %s node %d", e.Kind(), e.ID())
	}
}

// sum accumulates signed terms into a left-associated chain.
type sum struct{ acc goast.Expr }

func (s *sum) add(x goast.Expr, negative bool) {
	switch {
	case s.acc == nil && negative:
		s.acc = &goast.UnaryExpr{Op: token.SUB, X: operand(x, token.SUB.Precedence()+1, true)}
	case s.acc == nil:
		s.acc = x
	case negative:
		s.acc = binary(s.acc, token.SUB, x)
	default:
		s.acc = binary(s.acc, token.ADD, x)
	}
}

func (tp *Transpiler) scaled(c float64, x goast.Expr) goast.Expr {
	if c == 1 {
		return x
	}
	return binary(tp.floatLit(c), token.MUL, x)
}

func (tp *Transpiler) additive(a expr.Additive) goast.Expr {
	var s sum
	for i := 0; i < a.Len(); i++ {
		c := a.Coef(i)
		s.add(tp.scaled(c.Abs().Float64(), tp.done[a.Term(i).ID()]), c.Sign() < 0)
	}
	if c, arg, ok := a.Log(); ok {
		s.add(tp.scaled(c.Abs().Float64(), tp.mathCall("Log", tp.done[arg.ID()])), c.Sign() < 0)
	}
	if off := a.Offset(); !off.IsZero() || s.acc == nil {
		s.add(tp.floatLit(off.Abs().Float64()), off.Sign() < 0)
	}
	return s.acc
}

func (tp *Transpiler) power(x goast.Expr, k int64) goast.Expr {
	_, ident := x.(*goast.Ident)
	switch {
	case k == 1:
		return x
	case ident && k <= 3:
		out := x
		for range k - 1 {
			out = binary(out, token.MUL, x)
		}
		return out
	default:
		return tp.mathCall("Pow", x, tp.floatLit(float64(k)))
	}
}

// product multiplies factors left to right; an empty product is 1.
func (tp *Transpiler) product(factors []goast.Expr) goast.Expr {
	if len(factors) == 0 {
		return tp.floatLit(1)
	}
	out := factors[0]
	for _, f := range factors[1:] {
		out = binary(out, token.MUL, f)
	}
	return out
}

func (tp *Transpiler) multiplicative(m expr.Multiplicative) goast.Expr {
	var num, den []goast.Expr
	for i := 0; i < m.IntLen(); i++ {
		base, k := tp.done[m.IntBase(i).ID()], m.IntPower(i)
		if k > 0 {
			num = append(num, tp.power(base, k))
		} else {
			den = append(den, tp.power(base, -k))
		}
	}
	for i := 0; i < m.RealLen(); i++ {
		base, p := tp.done[m.RealBase(i).ID()], m.RealPower(i).Float64()
		switch p {
		case 0.5:
			num = append(num, tp.mathCall("Sqrt", base))
		case -0.5:
			den = append(den, tp.mathCall("Sqrt", base))
		default:
			num = append(num, tp.mathCall("Pow", base, tp.floatLit(p)))
		}
	}
	if arg, ok := m.Exp(); ok {
		num = append(num, tp.mathCall("Exp", tp.done[arg.ID()]))
	}
	if len(den) == 0 {
		return tp.product(num)
	}
	return binary(tp.product(num), token.QUO, tp.product(den))
}
