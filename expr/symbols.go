package expr

import (
	"sort"

	"github.com/cottand/symdag/util"
	"github.com/cottand/symdag/value"
	"github.com/xtgo/set"
)

// FreeSymbols returns the sorted names of the symbols e depends on.
func FreeSymbols(e Expr) []string {
	var names []string
	seen := make(map[uint64]struct{})
	var stack util.Stack[*Node]
	stack.Push(e.n)
	for {
		n, ok := stack.Pop()
		if !ok {
			break
		}
		if n.kind == KindSymbol {
			names = append(names, n.name)
			continue
		}
		if _, ok := seen[n.id]; ok {
			continue
		}
		seen[n.id] = struct{}{}
		n.children(func(c *Node) { stack.Push(c) })
	}
	data := sort.StringSlice(names)
	sort.Sort(data)
	return names[:set.Uniq(data)]
}

// Substitute replaces every occurrence of the symbol name in e with
// replacement and returns the canonical result.
func (s *Session) Substitute(e Expr, name string, replacement Expr) Expr {
	sub := &substitution{s: s, name: name, replacement: replacement, memo: make(map[uint64]Expr)}
	defer sub.releaseAll()
	return sub.apply(e).Clone()
}

type substitution struct {
	s           *Session
	name        string
	replacement Expr
	// memo owns one reference per rewritten node
	memo map[uint64]Expr
}

func (sub *substitution) releaseAll() {
	for _, e := range sub.memo {
		e.Release()
	}
}

// apply returns a handle borrowed from the memo.
func (sub *substitution) apply(e Expr) Expr {
	if r, ok := sub.memo[e.n.id]; ok {
		return r
	}
	r := Visit[Expr](e, sub)
	sub.memo[e.n.id] = r
	return r
}

func (sub *substitution) VisitScalar(e Expr, _ value.Value) Expr { return e.Clone() }

func (sub *substitution) VisitSymbol(e Expr, name string) Expr {
	if name == sub.name {
		return sub.replacement.Clone()
	}
	return e.Clone()
}

func (sub *substitution) VisitFunction(_ Expr, f Function) Expr {
	args := make([]Expr, f.Arity())
	for i := range args {
		args[i] = sub.apply(f.Arg(i))
	}
	return sub.s.Apply(f.Name(), args...)
}

func (sub *substitution) VisitAdditive(_ Expr, a Additive) Expr {
	b := sub.s.NewSum().AddConst(a.Offset())
	for i := 0; i < a.Len(); i++ {
		b.AddScaled(a.Coef(i), sub.apply(a.Term(i)))
	}
	if coef, arg, ok := a.Log(); ok {
		b.AddLog(coef, sub.apply(arg))
	}
	return b.Build()
}

func (sub *substitution) VisitMultiplicative(_ Expr, m Multiplicative) Expr {
	b := sub.s.NewProduct()
	for i := 0; i < m.IntLen(); i++ {
		b.PowInt(sub.apply(m.IntBase(i)), m.IntPower(i))
	}
	for i := 0; i < m.RealLen(); i++ {
		b.Pow(sub.apply(m.RealBase(i)), m.RealPower(i))
	}
	if arg, ok := m.Exp(); ok {
		b.Exp(value.One(), sub.apply(arg))
	}
	return b.Build()
}

func (sub *substitution) VisitBuilder(_ Expr, bv Builder) Expr {
	if bv.Sum() {
		b := sub.s.NewSum().Scale(bv.Scale())
		for i := 0; i < bv.Len(); i++ {
			c, arg, special := bv.Item(i)
			if special {
				b.AddLog(c, sub.apply(arg))
			} else {
				b.AddScaled(c, sub.apply(arg))
			}
		}
		return b.Build()
	}
	b := sub.s.NewProduct().Scale(bv.Scale())
	for i := 0; i < bv.Len(); i++ {
		p, arg, special := bv.Item(i)
		if special {
			b.Exp(p, sub.apply(arg))
		} else {
			b.Pow(sub.apply(arg), p)
		}
	}
	return b.Build()
}
