package expr

import (
	"cmp"
	"slices"

	"github.com/cottand/symdag/value"
	"github.com/hashicorp/go-set/v3"
)

type factorClass uint8

// Classes in increasing order of preference.
const (
	classHorner factorClass = iota
	classInt
	classReal
	classExp
)

func (c factorClass) String() string {
	switch c {
	case classHorner:
		return "horner"
	case classInt:
		return "int"
	case classReal:
		return "real"
	case classExp:
		return "exp"
	}
	return "unknown"
}

// factorCandidate is a common factor shared by several terms of a sum:
// base^power, or exp(base) for classExp.
type factorCandidate struct {
	class factorClass
	base  *Node
	power value.Value
	// terms holds the indices of the terms divisible by the factor
	terms *set.TreeSet[int]
	// deeper counts the terms whose quotient by the factor is a constant
	deeper int
}

func (c *factorCandidate) item() item {
	if c.class == classExp {
		return item{Value: value.One(), Node: c.base, Special: true}
	}
	return item{Value: c.power, Node: c.base}
}

// compareRank orders candidates best first. Zero means equal rank, and such
// candidates may be extracted together.
func compareRank(a, b *factorCandidate) int {
	if c := cmp.Compare(b.deeper, a.deeper); c != 0 {
		return c
	}
	if c := cmp.Compare(b.terms.Size(), a.terms.Size()); c != 0 {
		return c
	}
	if c := cmp.Compare(b.class, a.class); c != 0 {
		return c
	}
	return comparePowerPreference(a.power, b.power)
}

// comparePowerPreference prefers negative powers, then the smallest
// magnitude among negatives and the largest among positives.
func comparePowerPreference(a, b value.Value) int {
	an, bn := a.Sign() < 0, b.Sign() < 0
	switch {
	case an && !bn:
		return -1
	case !an && bn:
		return 1
	case an:
		return a.Abs().Cmp(b.Abs())
	}
	return b.Cmp(a)
}

func compareCandidates(a, b *factorCandidate) int {
	if c := compareRank(a, b); c != 0 {
		return c
	}
	if c := compareNodes(a.base, b.base); c != 0 {
		return c
	}
	return a.power.Cmp(b.power)
}

// termParts is the multiplicative structure of one term of a sum.
type termParts struct {
	ints  []IntPow
	reals []RealPow
	exp   *Node
}

func partsOf(t *Node) termParts {
	if t.kind == KindMultiplicative {
		return termParts{ints: t.mul.ints, reals: t.mul.reals, exp: t.mul.expArg}
	}
	return termParts{ints: []IntPow{{Power: 1, Base: t}}}
}

func (p termParts) pieces() int {
	n := len(p.ints) + len(p.reals)
	if p.exp != nil {
		n++
	}
	return n
}

type realKey struct {
	base  *Node
	power uint64
}

type basePower struct {
	term  int
	power int64
}

// factorCandidates groups the factors of terms by base and power.
func factorCandidates(terms []AddTerm) []*factorCandidate {
	parts := make([]termParts, len(terms))
	intRuns := make(map[IntPow]*set.TreeSet[int])
	byBase := make(map[*Node][]basePower)
	realRuns := make(map[realKey]*set.TreeSet[int])
	realPowers := make(map[realKey]value.Value)
	expRuns := make(map[*Node]*set.TreeSet[int])

	insert := func(runs map[IntPow]*set.TreeSet[int], k IntPow, i int) {
		if runs[k] == nil {
			runs[k] = set.NewTreeSet[int](cmp.Compare[int])
		}
		runs[k].Insert(i)
	}
	for i, t := range terms {
		p := partsOf(t.Term)
		parts[i] = p
		for _, ip := range p.ints {
			insert(intRuns, ip, i)
			byBase[ip.Base] = append(byBase[ip.Base], basePower{term: i, power: ip.Power})
		}
		for _, rp := range p.reals {
			k := realKey{base: rp.Base, power: rp.Power.Bits()}
			if realRuns[k] == nil {
				realRuns[k] = set.NewTreeSet[int](cmp.Compare[int])
				realPowers[k] = rp.Power
			}
			realRuns[k].Insert(i)
		}
		if p.exp != nil {
			if expRuns[p.exp] == nil {
				expRuns[p.exp] = set.NewTreeSet[int](cmp.Compare[int])
			}
			expRuns[p.exp].Insert(i)
		}
	}

	var cands []*factorCandidate
	add := func(c *factorCandidate) {
		if c.terms.Size() < 2 {
			return
		}
		for i := range c.terms.Items() {
			if quotientIsConstant(parts[i], c) {
				c.deeper++
			}
		}
		cands = append(cands, c)
	}
	for k, terms := range intRuns {
		add(&factorCandidate{class: classInt, base: k.Base, power: value.Int(k.Power), terms: terms})
	}
	for base, occurrences := range byBase {
		for _, sign := range [2]int64{1, -1} {
			if c := hornerCandidate(base, sign, occurrences); c != nil {
				add(c)
			}
		}
	}
	for k, terms := range realRuns {
		add(&factorCandidate{class: classReal, base: k.base, power: realPowers[k], terms: terms})
	}
	for arg, terms := range expRuns {
		add(&factorCandidate{class: classExp, base: arg, power: value.One(), terms: terms})
	}
	return cands
}

// hornerCandidate collects the terms where base has an integer power of
// the given sign. It only exists when those powers differ, equal powers
// being an int run; the factor is the smallest power.
func hornerCandidate(base *Node, sign int64, occurrences []basePower) *factorCandidate {
	var terms *set.TreeSet[int]
	var least int64
	mixed := false
	for _, o := range occurrences {
		if o.power*sign <= 0 {
			continue
		}
		if terms == nil {
			terms = set.NewTreeSet[int](cmp.Compare[int])
			least = o.power
		} else if o.power != least {
			mixed = true
			if o.power*sign < least*sign {
				least = o.power
			}
		}
		terms.Insert(o.term)
	}
	if !mixed {
		return nil
	}
	return &factorCandidate{class: classHorner, base: base, power: value.Int(least), terms: terms}
}

func quotientIsConstant(p termParts, c *factorCandidate) bool {
	if p.pieces() != 1 {
		return false
	}
	switch c.class {
	case classExp:
		return p.exp == c.base
	case classReal:
		return len(p.reals) == 1 && p.reals[0].Power.Equal(c.power)
	}
	return len(p.ints) == 1 && value.Int(p.ints[0].Power).Equal(c.power)
}

// selectFactor returns the best candidate together with every candidate of
// equal rank over the same terms, or nil when no factor is shared.
func selectFactor(terms []AddTerm) []*factorCandidate {
	cands := factorCandidates(terms)
	if len(cands) == 0 {
		return nil
	}
	slices.SortFunc(cands, compareCandidates)
	best := cands[0]
	group := []*factorCandidate{best}
	for _, c := range cands[1:] {
		if compareRank(best, c) != 0 {
			break
		}
		if !c.terms.Equal(best.terms) || slices.ContainsFunc(group, func(g *factorCandidate) bool { return g.base == c.base }) {
			continue
		}
		group = append(group, c)
	}
	return group
}

// factorSum extracts common factors from a normalized sum of at least two
// terms. Known results come from the subexpression cache. Nested sums look
// up only when the predictor expects a hit at their depth; a top-level sum
// always builds its key because the result is stored under it, so its
// lookup is never skipped.
func (s *Session) factorSum(sc *sumScratch) scaled {
	s.depth++
	defer func() { s.depth-- }()
	depth := s.depth

	var pre *Node
	if depth == 1 || s.predictor.Predict(depth) {
		pre = s.getOrCreate(sumShape(sc, false))
		defer s.release(pre)
		if pre.has(flagNormalized) {
			return scaled{scale: value.One(), node: s.retain(pre)}
		}
		e, hit := s.cache.lookup(pre)
		s.predictor.Observe(depth, hit)
		if hit {
			s.cseLogger.Debug("reusing factorization", "depth", depth, "sum", s.wrap(pre))
			return scaled{scale: e.scale, node: s.retain(e.replacement)}
		}
	}

	r := s.factorLoop(sc)
	if pre != nil && depth == 1 && r.node != nil && r.node != pre {
		s.cache.store(pre, r.node, r.scale)
	}
	return r
}

// factorLoop extracts the best factor group until none is left or fewer
// than two terms remain.
func (s *Session) factorLoop(sc *sumScratch) scaled {
	cur, scale := sc, value.One()
	defer func() {
		if cur != sc {
			s.releaseSum(cur)
		}
	}()
	for rounds := len(sc.terms); rounds > 0 && len(cur.terms) >= 2; rounds-- {
		group := selectFactor(cur.terms)
		if group == nil {
			break
		}
		next := s.extract(cur, group)
		s.gatherSum(next)
		s.tidy(next)
		lead, ok := s.normalizeSum(next)
		scale = scale.Mul(lead)
		if cur != sc {
			s.releaseSum(cur)
		}
		cur = next
		if !ok || !cur.finite() {
			break
		}
	}
	r := s.finishSum(cur, true, false)
	r.scale = r.scale.Mul(scale)
	return r
}

// extract rewrites the terms sharing the factor group as
// factor·(sum of quotients) and returns the resulting sum, not yet tidied.
func (s *Session) extract(cur *sumScratch, group []*factorCandidate) *sumScratch {
	items := make([]item, len(group))
	for i, c := range group {
		items[i] = c.item()
	}
	factor := s.product(items...)
	if factor.node == nil {
		invariantf("factor of %d candidates is a constant", len(group))
	}
	defer s.release(factor.node)
	s.cseLogger.Debug("extracting factor", "class", group[0].class, "terms", group[0].terms.Size(),
		"factor", s.wrap(factor.node))

	next := s.acquireSum()
	next.offset = cur.offset
	for _, l := range cur.logs {
		next.logs = append(next.logs, AddTerm{Coef: l.Coef, Term: s.retain(l.Term)})
	}

	rem := s.acquireSum()
	defer s.releaseSum(rem)
	run := group[0].terms
	for i, t := range cur.terms {
		if !run.Contains(i) {
			next.addTerm(s, t.Coef, t.Term)
			continue
		}
		q := s.product(item{Value: value.One(), Node: t.Term}, item{Value: value.MinusOne(), Node: factor.node})
		coef := t.Coef.Mul(q.scale)
		if q.node == nil {
			rem.offset = rem.offset.Add(coef)
			continue
		}
		rem.work.Push(item{Value: coef, Node: rem.keep(q.node)})
	}

	// the run now sums to factor·rs·R
	r := s.finishSum(rem, true, !s.cfg.DisableCSE)
	if r.node == nil {
		next.addTerm(s, r.scale, factor.node)
		return next
	}
	defer s.release(r.node)
	t := s.product(item{Value: value.One(), Node: factor.node}, item{Value: value.One(), Node: r.node})
	if t.node == nil {
		next.offset = next.offset.Add(r.scale.Mul(t.scale))
		return next
	}
	next.work.Push(item{Value: r.scale.Mul(t.scale), Node: next.keep(t.node)})
	return next
}
