package expr

import (
	"math"
	"slices"

	"github.com/cottand/symdag/value"
)

// intPower reports whether p is an integer power small enough to be kept
// in an IntPow.
func intPower(p value.Value) (int64, bool) {
	if !p.IsInt() || math.Abs(p.Float64()) >= 1<<53 {
		return 0, false
	}
	return p.Int64(), true
}

func powValue(v, p value.Value) value.Value {
	if k, ok := intPower(p); ok {
		return v.PowInt(k)
	}
	return v.PowReal(p)
}

func (s *Session) canonMul(n *Node) scaled {
	pc := s.acquireProduct()
	defer s.releaseProduct(pc)
	pc.work.Push(item{Value: value.One(), Node: n})
	return s.finishProduct(pc)
}

// product canonicalizes the product of the given factors, which are
// borrowed from the caller.
func (s *Session) product(factors ...item) scaled {
	pc := s.acquireProduct()
	defer s.releaseProduct(pc)
	for _, f := range factors {
		pc.work.Push(f)
	}
	return s.finishProduct(pc)
}

// collectProduct drains the work queue of pc, merging the powers of equal
// bases and inlining nested products.
func (s *Session) collectProduct(pc *prodScratch) {
	for {
		it, ok := pc.work.Pop()
		if !ok {
			return
		}
		if it.Value.IsZero() {
			continue
		}
		if it.Special {
			pc.exps.work.Push(item{Value: it.Value, Node: it.Node})
			pc.hasExps = true
			continue
		}
		s.collectFactor(pc, it.Value, it.Node)
	}
}

func (s *Session) collectFactor(pc *prodScratch, p value.Value, n *Node) {
	switch n.kind {
	case KindScalar:
		pc.scale = pc.scale.Mul(powValue(n.scalar, p))
	case KindSymbol, KindFunction:
		pc.addPow(s, p, n)
	case KindMulBuilder:
		if _, ok := intPower(p); ok {
			pc.scale = pc.scale.Mul(powValue(n.build.scale, p))
			for _, it := range n.build.items.All() {
				pc.work.Push(item{Value: it.Value.Mul(p), Node: it.Node, Special: it.Special})
			}
			return
		}
		s.collectScaledBase(pc, p, s.canonMul(n))
	case KindMultiplicative:
		k, ok := intPower(p)
		if !ok {
			pc.addReal(s, p, n)
			return
		}
		for _, ip := range n.mul.ints {
			pc.addInt(s, ip.Power*k, ip.Base)
		}
		for _, rp := range n.mul.reals {
			pc.addReal(s, rp.Power.Mul(p), rp.Base)
		}
		if n.mul.expArg != nil {
			pc.exps.work.Push(item{Value: p, Node: n.mul.expArg})
			pc.hasExps = true
		}
	case KindAdditive:
		if n.has(flagNormalized) {
			pc.addPow(s, p, n)
			return
		}
		s.collectScaledBase(pc, p, s.canon(n, true))
	case KindAddBuilder:
		s.collectScaledBase(pc, p, s.canon(n, true))
	default:
		invariantf("product factor %d of unknown kind %s", n.id, n.kind)
	}
}

// collectScaledBase adds (c·m)^p, taking ownership of r. The constant is
// pulled out when that is exact: for integer powers, or positive c.
func (s *Session) collectScaledBase(pc *prodScratch, p value.Value, r scaled) {
	if r.node == nil {
		pc.scale = pc.scale.Mul(powValue(r.scale, p))
		return
	}
	pc.keep(r.node)
	if _, ok := intPower(p); ok || r.scale.Sign() > 0 {
		pc.scale = pc.scale.Mul(powValue(r.scale, p))
		pc.work.Push(item{Value: p, Node: r.node})
		return
	}
	whole := pc.keep(s.finalize(scaled{scale: r.scale, node: s.retain(r.node)}))
	pc.addPow(s, p, whole)
}

func (pc *prodScratch) addPow(s *Session, p value.Value, base *Node) {
	if k, ok := intPower(p); ok {
		pc.addInt(s, k, base)
		return
	}
	pc.addReal(s, p, base)
}

// foldExp canonicalizes the collected exp argument. Its constant offset
// becomes part of the scale and its log term b·log(u) the power u^b, so the
// returned argument, owned by pc, has neither.
func (s *Session) foldExp(pc *prodScratch) *Node {
	sc := pc.exps
	defer func() {
		s.releaseSum(sc)
		pc.exps = s.acquireSum()
		pc.hasExps = false
	}()
	s.gatherSum(sc)

	pc.scale = pc.scale.Mul(sc.offset.Exp())
	sc.offset = value.Zero()
	if len(sc.logs) == 1 {
		l := sc.logs[0]
		sc.logs = sc.logs[:0]
		pc.work.Push(item{Value: l.Coef, Node: pc.keep(l.Term)})
	}

	r := s.finishSum(sc, true, !s.cfg.DisableCSE)
	if r.node == nil {
		pc.scale = pc.scale.Mul(r.scale.Exp())
		return nil
	}
	return pc.keep(s.finalize(r))
}

// finishProduct produces the canonical node of the collected product. A
// product without factors is its scale, and a lone first power is promoted
// to its base.
func (s *Session) finishProduct(pc *prodScratch) scaled {
	s.collectProduct(pc)
	var expArg *Node
	if pc.hasExps {
		expArg = s.foldExp(pc)
		s.collectProduct(pc)
		if pc.hasExps {
			invariantf("exp factor found inside the base of a log")
		}
	}
	if pc.scale.IsZero() {
		return constant(value.Zero())
	}

	for _, p := range pc.pows {
		ints := p.ints
		if k, ok := intPower(p.real); p.hasReal && ok {
			// real powers adding up to an integer, as in sqrt(x)*sqrt(x)
			ints += k
		} else if p.hasReal {
			pc.reals = append(pc.reals, RealPow{Power: p.real, Base: p.base})
		}
		if ints != 0 {
			pc.ints = append(pc.ints, IntPow{Power: ints, Base: p.base})
		}
	}
	slices.SortFunc(pc.ints, compareIntPows)
	slices.SortFunc(pc.reals, compareRealPows)

	switch {
	case len(pc.ints) == 0 && len(pc.reals) == 0 && expArg == nil:
		return constant(pc.scale)
	case len(pc.ints) == 1 && len(pc.reals) == 0 && expArg == nil && pc.ints[0].Power == 1:
		return scaled{scale: pc.scale, node: s.retain(pc.ints[0].Base)}
	}
	n := s.getOrCreate(&shape{
		kind: KindMultiplicative,
		mul:  multiplicative{ints: pc.ints, reals: pc.reals, expArg: expArg},
	})
	return scaled{scale: pc.scale, node: n}
}
