package expr

import (
	"github.com/pkg/errors"
)

// getOrCreate returns the canonical node for sh with one reference owned by
// the caller. If an equal node is stored it is reused, otherwise a new one
// is built from pooled storage and takes a reference on each child.
func (s *Session) getOrCreate(sh *shape) *Node {
	if !sh.kind.Hashed() {
		invariantf("getOrCreate on unhashed kind %s", sh.kind)
	}
	h := s.hashShape(sh)
	t := s.tables[sh.kind]
	if n := t.find(h, func(n *Node) bool { return n.matches(sh) }); n != nil {
		if sh.normalized {
			n.flags |= flagNormalized
		}
		return s.retain(n)
	}

	n := s.allocNode(sh.kind)
	n.hash = h
	switch sh.kind {
	case KindScalar:
		n.scalar = sh.scalar
	case KindSymbol:
		n.name = sh.name
	case KindFunction:
		n.name = sh.name
		n.args = s.copyArgs(sh.args)
	case KindAdditive:
		n.add = sh.add
		n.add.terms = s.copyAddTerms(sh.add.terms)
		if sh.normalized {
			n.flags |= flagNormalized
		}
	case KindMultiplicative:
		n.mul = sh.mul
		n.mul.ints = s.copyIntPows(sh.mul.ints)
		n.mul.reals = s.copyRealPows(sh.mul.reals)
	}
	n.children(func(c *Node) { s.retain(c) })
	t.insert(n)
	return n
}

func (s *Session) copyArgs(src []*Node) []*Node {
	var dst []*Node
	s.mustAlloc("function arguments", func() (ok bool) {
		dst, ok = s.argLists.Get(len(src))
		return ok
	})
	copy(dst, src)
	return dst
}

func (s *Session) copyAddTerms(src []AddTerm) []AddTerm {
	var dst []AddTerm
	s.mustAlloc("additive terms", func() (ok bool) {
		dst, ok = s.addTerms.Get(len(src))
		return ok
	})
	copy(dst, src)
	return dst
}

func (s *Session) copyIntPows(src []IntPow) []IntPow {
	var dst []IntPow
	s.mustAlloc("integer powers", func() (ok bool) {
		dst, ok = s.intPows.Get(len(src))
		return ok
	})
	copy(dst, src)
	return dst
}

func (s *Session) copyRealPows(src []RealPow) []RealPow {
	var dst []RealPow
	s.mustAlloc("real powers", func() (ok bool) {
		dst, ok = s.realPows.Get(len(src))
		return ok
	})
	copy(dst, src)
	return dst
}

func (s *Session) outOfMemory(what string) {
	panic(errors.Wrapf(ErrOutOfMemory, "allocating %s with %d words reserved of %d",
		what, s.budget.Reserved(), s.budget.Limit))
}

func (s *Session) retain(n *Node) *Node {
	if n.refs <= 0 || n.has(flagDying) {
		invariantf("retain of dead %s node %d", n.kind, n.id)
	}
	n.refs++
	return n
}

// release drops one reference. A node reaching zero is pushed on the
// release stack; the outermost release drains the stack in a loop, so
// destroying a DAG of any depth uses constant Go stack.
func (s *Session) release(n *Node) {
	if n == nil || s.closed {
		return
	}
	if n.refs <= 0 {
		invariantf("release of dead %s node %d", n.kind, n.id)
	}
	n.refs--
	if n.refs > 0 {
		return
	}
	s.releasing.Push(n)
	if s.draining {
		return
	}
	s.drain()
}

func (s *Session) drain() {
	s.draining = true
	defer func() { s.draining = false }()
	for {
		n, ok := s.releasing.Pop()
		if !ok {
			return
		}
		s.unregister(n)
	}
}

// unregister destroys a node whose count reached zero: it leaves the weak
// table, the cache and its kind's table, hands its child references to the
// release stack and returns its storage to the pools.
func (s *Session) unregister(n *Node) {
	n.flags |= flagDying
	if n.has(flagWeak) {
		s.weak.Invalidate(n.id)
	}
	if n.has(flagTracked) {
		s.cache.forget(n)
	}
	if n.kind.Hashed() {
		s.tables[n.kind].remove(n)
	}

	n.children(func(c *Node) {
		if c.refs <= 0 {
			invariantf("child %d of %d already dead", c.id, n.id)
		}
		c.refs--
		if c.refs == 0 {
			s.releasing.Push(c)
		}
	})

	switch n.kind {
	case KindFunction:
		s.argLists.Put(n.args)
	case KindAdditive:
		s.addTerms.Put(n.add.terms)
	case KindMultiplicative:
		s.intPows.Put(n.mul.ints)
		s.realPows.Put(n.mul.reals)
	case KindAddBuilder, KindMulBuilder:
		s.lists.Free(n.build)
		s.builders--
	}
	s.nodes.Free(n)
}
