package expr

import (
	"github.com/cottand/symdag/util"
	"github.com/cottand/symdag/value"
)

// scaled is the internal result of canonicalization: scale·node, or the
// constant scale when node is nil. node is owned by the holder.
type scaled struct {
	scale value.Value
	node  *Node
}

func constant(v value.Value) scaled { return scaled{scale: v} }

// sumScratch accumulates the terms of a sum being canonicalized. terms and
// logs own their nodes; work items and held nodes are released or
// consumed when the scratch is returned.
type sumScratch struct {
	offset value.Value
	index  map[*Node]int
	terms  []AddTerm
	logs   []AddTerm
	// work holds borrowed items still to be flattened
	work util.Stack[item]
	// hold keeps intermediate results alive while their children are borrowed
	hold []*Node
}

type powAcc struct {
	base    *Node
	ints    int64
	real    value.Value
	hasReal bool
}

// prodScratch accumulates the factors of a product being canonicalized.
type prodScratch struct {
	scale value.Value
	index map[*Node]int
	pows  []powAcc
	// exps collects the summands of the exp carrier
	exps    *sumScratch
	hasExps bool
	work    util.Stack[item]
	hold    []*Node
	// ints and reals are the sorted output arrays handed to the store
	ints  []IntPow
	reals []RealPow
}

func (s *Session) acquireSum() *sumScratch {
	sc, ok := s.sums.Pop()
	if !ok {
		sc = &sumScratch{index: make(map[*Node]int)}
	}
	sc.offset = value.Zero()
	return sc
}

// releaseSum gives back every reference the scratch still owns. It runs on
// every exit path, so a panic halfway through canonicalization leaks
// neither references nor buffers.
func (s *Session) releaseSum(sc *sumScratch) {
	for _, t := range sc.terms {
		s.release(t.Term)
	}
	for _, l := range sc.logs {
		s.release(l.Term)
	}
	for _, n := range sc.hold {
		s.release(n)
	}
	clear(sc.terms)
	clear(sc.logs)
	clear(sc.hold)
	clear(sc.index)
	sc.terms, sc.logs, sc.hold = sc.terms[:0], sc.logs[:0], sc.hold[:0]
	sc.work.Reset()
	s.sums.Push(sc)
}

func (s *Session) acquireProduct() *prodScratch {
	pc, ok := s.products.Pop()
	if !ok {
		pc = &prodScratch{index: make(map[*Node]int)}
	}
	pc.scale = value.One()
	pc.exps = s.acquireSum()
	return pc
}

func (s *Session) releaseProduct(pc *prodScratch) {
	for _, p := range pc.pows {
		s.release(p.base)
	}
	for _, n := range pc.hold {
		s.release(n)
	}
	clear(pc.pows)
	clear(pc.hold)
	clear(pc.index)
	clear(pc.ints)
	clear(pc.reals)
	pc.pows, pc.hold = pc.pows[:0], pc.hold[:0]
	pc.ints, pc.reals = pc.ints[:0], pc.reals[:0]
	pc.hasExps = false
	pc.work.Reset()
	s.releaseSum(pc.exps)
	pc.exps = nil
	s.products.Push(pc)
}

// addTerm merges coef·n into the sum, taking a reference on n for a new term.
func (sc *sumScratch) addTerm(s *Session, coef value.Value, n *Node) {
	if i, ok := sc.index[n]; ok {
		sc.terms[i].Coef = sc.terms[i].Coef.Add(coef)
		return
	}
	sc.index[n] = len(sc.terms)
	sc.terms = append(sc.terms, AddTerm{Coef: coef, Term: s.retain(n)})
}

// keep takes ownership of n until the scratch is released.
func (sc *sumScratch) keep(n *Node) *Node {
	sc.hold = append(sc.hold, n)
	return n
}

func (pc *prodScratch) keep(n *Node) *Node {
	pc.hold = append(pc.hold, n)
	return n
}

func (pc *prodScratch) addInt(s *Session, k int64, base *Node) {
	pc.acc(s, base).ints += k
}

func (pc *prodScratch) addReal(s *Session, p value.Value, base *Node) {
	acc := pc.acc(s, base)
	acc.real = acc.real.Add(p)
	acc.hasReal = true
}

func (pc *prodScratch) acc(s *Session, base *Node) *powAcc {
	i, ok := pc.index[base]
	if !ok {
		i = len(pc.pows)
		pc.index[base] = i
		pc.pows = append(pc.pows, powAcc{base: s.retain(base), real: value.Zero()})
	}
	return &pc.pows[i]
}
