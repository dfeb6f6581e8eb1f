package expr

import (
	"slices"

	"github.com/cottand/symdag/value"
)

// canon brings n into canonical form and returns it as scale·node. With
// normalize set, a sum is divided by its leading coefficient, which becomes
// the scale, and may go through common factor extraction.
func (s *Session) canon(n *Node, normalize bool) scaled {
	switch n.kind {
	case KindScalar:
		return constant(n.scalar)
	case KindSymbol, KindFunction, KindMultiplicative:
		return scaled{scale: value.One(), node: s.retain(n)}
	case KindAdditive:
		if !normalize || n.has(flagNormalized) {
			return scaled{scale: value.One(), node: s.retain(n)}
		}
		sc := s.acquireSum()
		defer s.releaseSum(sc)
		sc.work.Push(item{Value: value.One(), Node: n})
		return s.finishSum(sc, true, !s.cfg.DisableCSE)
	case KindAddBuilder:
		sc := s.acquireSum()
		defer s.releaseSum(sc)
		sc.work.Push(item{Value: value.One(), Node: n})
		return s.finishSum(sc, normalize, !s.cfg.DisableCSE)
	case KindMulBuilder:
		return s.canonMul(n)
	}
	invariantf("canonicalizing node %d of unknown kind %s", n.id, n.kind)
	return scaled{}
}

// finalize turns scale·node into a single canonical node, consuming the
// reference held by r.
func (s *Session) finalize(r scaled) *Node {
	if r.node == nil {
		return s.scalarValue(r.scale)
	}
	if r.scale.IsOne() {
		return r.node
	}
	defer s.release(r.node)
	if r.scale.IsZero() {
		return s.scalarValue(value.Zero())
	}
	if r.node.kind != KindAdditive {
		terms := [1]AddTerm{{Coef: r.scale, Term: r.node}}
		return s.getOrCreate(&shape{
			kind: KindAdditive,
			add:  additive{offset: value.Zero(), terms: terms[:], logCoef: value.Zero()},
		})
	}

	src := &r.node.add
	terms := make([]AddTerm, len(src.terms))
	for i, t := range src.terms {
		terms[i] = AddTerm{Coef: t.Coef.Mul(r.scale), Term: t.Term}
	}
	add := additive{offset: src.offset.Mul(r.scale), terms: terms, logCoef: value.Zero(), logArg: src.logArg}
	if src.logArg != nil {
		add.logCoef = src.logCoef.Mul(r.scale)
	}
	return s.getOrCreate(&shape{kind: KindAdditive, add: add})
}

// collectSum drains the work queue of sc, flattening nested sums
// iteratively so that arbitrarily deep chains use constant Go stack.
func (s *Session) collectSum(sc *sumScratch) {
	for {
		it, ok := sc.work.Pop()
		if !ok {
			return
		}
		if it.Value.IsZero() {
			continue
		}
		if it.Special {
			r := s.canon(it.Node, true)
			s.foldLog(sc, it.Value, r)
			continue
		}
		s.collectTerm(sc, it.Value, it.Node)
	}
}

func (s *Session) collectTerm(sc *sumScratch, coef value.Value, n *Node) {
	switch n.kind {
	case KindScalar:
		sc.offset = sc.offset.Add(coef.Mul(n.scalar))
	case KindAddBuilder:
		c := coef.Mul(n.build.scale)
		for _, it := range n.build.items.All() {
			sc.work.Push(item{Value: c.Mul(it.Value), Node: it.Node, Special: it.Special})
		}
	case KindAdditive:
		add := &n.add
		sc.offset = sc.offset.Add(coef.Mul(add.offset))
		for _, t := range add.terms {
			sc.addTerm(s, coef.Mul(t.Coef), t.Term)
		}
		if add.logArg != nil {
			sc.work.Push(item{Value: coef.Mul(add.logCoef), Node: add.logArg, Special: true})
		}
	case KindMulBuilder:
		r := s.canonMul(n)
		if r.node == nil {
			sc.offset = sc.offset.Add(coef.Mul(r.scale))
			return
		}
		// the product may have collapsed into a sum, so it goes round again
		sc.work.Push(item{Value: coef.Mul(r.scale), Node: sc.keep(r.node)})
	default:
		sc.addTerm(s, coef, n)
	}
}

// foldLog adds b·log(r) to the sum, taking ownership of r.node. Positive
// constant factors and exp factors leave the log as plain summands so that
// a stored log argument never carries an exp.
func (s *Session) foldLog(sc *sumScratch, b value.Value, r scaled) {
	if r.node == nil {
		sc.offset = sc.offset.Add(b.Mul(r.scale.Log()))
		return
	}
	if !r.scale.IsOne() {
		if r.scale.Sign() <= 0 {
			sc.logs = append(sc.logs, AddTerm{Coef: b, Term: s.finalize(r)})
			return
		}
		sc.offset = sc.offset.Add(b.Mul(r.scale.Log()))
	}
	m := r.node
	if m.kind == KindMultiplicative && m.mul.expArg != nil {
		sc.keep(m)
		sc.work.Push(item{Value: b, Node: m.mul.expArg})
		if rest := s.withoutExp(m); rest != nil {
			s.foldLog(sc, b, scaled{scale: value.One(), node: rest})
		}
		return
	}
	sc.logs = append(sc.logs, AddTerm{Coef: b, Term: m})
}

// withoutExp returns m with its exp factor removed, or nil if nothing is left.
func (s *Session) withoutExp(m *Node) *Node {
	mul := m.mul
	mul.expArg = nil
	switch {
	case len(mul.ints) == 0 && len(mul.reals) == 0:
		return nil
	case len(mul.ints) == 1 && len(mul.reals) == 0 && mul.ints[0].Power == 1:
		return s.retain(mul.ints[0].Base)
	}
	return s.getOrCreate(&shape{kind: KindMultiplicative, mul: mul})
}

// mergeLogs folds every log carrier of sc into a single one, using
// b1·log(u1) + b2·log(u2) = b1·log(u1·u2^(b2/b1)).
func (s *Session) mergeLogs(sc *sumScratch) {
	slices.SortFunc(sc.logs, compareAddTerms)
	logs := sc.logs[:0]
	for _, l := range sc.logs {
		if last := len(logs) - 1; last >= 0 && logs[last].Term == l.Term {
			logs[last].Coef = logs[last].Coef.Add(l.Coef)
			s.release(l.Term)
			continue
		}
		logs = append(logs, l)
	}
	clear(sc.logs[len(logs):])
	kept := logs[:0]
	for _, l := range logs {
		if l.Coef.IsZero() {
			s.release(l.Term)
			continue
		}
		kept = append(kept, l)
	}
	clear(logs[len(kept):])
	sc.logs = kept
	if len(kept) <= 1 {
		return
	}

	b1 := kept[0].Coef
	pc := s.acquireProduct()
	defer s.releaseProduct(pc)
	for _, l := range kept {
		pc.work.Push(item{Value: l.Coef.Div(b1), Node: pc.keep(l.Term)})
	}
	clear(sc.logs)
	sc.logs = sc.logs[:0]
	s.foldLog(sc, b1, s.finishProduct(pc))
}

// gatherSum flattens everything queued in sc and leaves at most one log.
func (s *Session) gatherSum(sc *sumScratch) {
	for {
		s.collectSum(sc)
		if len(sc.logs) <= 1 && sc.work.Len() == 0 {
			return
		}
		s.mergeLogs(sc)
	}
}

// tidy drops zero coefficients and sorts the terms of a gathered sum.
func (s *Session) tidy(sc *sumScratch) {
	kept := sc.terms[:0]
	for _, t := range sc.terms {
		if t.Coef.IsZero() {
			s.release(t.Term)
			continue
		}
		kept = append(kept, t)
	}
	clear(sc.terms[len(kept):])
	sc.terms = kept
	clear(sc.index)
	slices.SortFunc(sc.terms, compareAddTerms)
	for i, t := range sc.terms {
		sc.index[t.Term] = i
	}
	if len(sc.logs) == 1 && sc.logs[0].Coef.IsZero() {
		s.release(sc.logs[0].Term)
		clear(sc.logs)
		sc.logs = sc.logs[:0]
	}
}

// normalizeSum divides a tidy sum by its leading coefficient, the first
// term's or else the log's, and returns it. A sum with an infinite or NaN
// leading coefficient is left alone and reported as not normalizable.
func (s *Session) normalizeSum(sc *sumScratch) (value.Value, bool) {
	var lead value.Value
	switch {
	case len(sc.terms) > 0:
		lead = sc.terms[0].Coef
	case len(sc.logs) > 0:
		lead = sc.logs[0].Coef
	default:
		return value.One(), true
	}
	if !lead.IsFinite() {
		return value.One(), false
	}
	if lead.IsOne() {
		return lead, true
	}
	for i := range sc.terms {
		sc.terms[i].Coef = sc.terms[i].Coef.Div(lead)
	}
	for i := range sc.logs {
		sc.logs[i].Coef = sc.logs[i].Coef.Div(lead)
	}
	sc.offset = sc.offset.Div(lead)
	return lead, true
}

// finite reports whether every coefficient and the offset of sc are finite.
func (sc *sumScratch) finite() bool {
	for _, t := range sc.terms {
		if !t.Coef.IsFinite() {
			return false
		}
	}
	for _, l := range sc.logs {
		if !l.Coef.IsFinite() {
			return false
		}
	}
	return sc.offset.IsFinite()
}

// sumShape describes the additive node of a tidy sum. Its slices are
// borrowed from sc.
func sumShape(sc *sumScratch, normalized bool) *shape {
	add := additive{offset: sc.offset, terms: sc.terms, logCoef: value.Zero()}
	if len(sc.logs) == 1 {
		add.logCoef, add.logArg = sc.logs[0].Coef, sc.logs[0].Term
	}
	return &shape{kind: KindAdditive, add: add, normalized: normalized}
}

// finishSum produces the canonical node of the collected sum. Terms with a
// zero coefficient are dropped and the rest sorted. A sum without terms is
// its constant, and a single term without offset or log is returned as
// coef·term.
func (s *Session) finishSum(sc *sumScratch, normalize, cse bool) scaled {
	s.gatherSum(sc)
	s.tidy(sc)

	switch {
	case len(sc.terms) == 0 && len(sc.logs) == 0:
		return constant(sc.offset)
	case len(sc.terms) == 1 && sc.offset.IsZero() && len(sc.logs) == 0:
		return scaled{scale: sc.terms[0].Coef, node: s.retain(sc.terms[0].Term)}
	}

	scale := value.One()
	if normalize {
		var ok bool
		scale, ok = s.normalizeSum(sc)
		if ok && cse && len(sc.terms) >= 2 && sc.finite() {
			r := s.factorSum(sc)
			r.scale = r.scale.Mul(scale)
			return r
		}
	}
	return scaled{scale: scale, node: s.getOrCreate(sumShape(sc, normalize))}
}
