package expr

// Expr is an owning handle on a node. Every Expr returned by a Session
// method carries one reference that the caller must give back with Release.
// Clone takes an extra reference.
//
// Exprs obtained from read-only accessors (Additive.Term and friends)
// borrow their parent's reference instead: Clone them to keep them around.
type Expr struct {
	s *Session
	n *Node
}

func (s *Session) wrap(n *Node) Expr { return Expr{s: s, n: n} }

// node checks that e belongs to s and returns its node.
func (s *Session) node(e Expr) *Node {
	if e.n == nil {
		invariantf("nil expression")
	}
	if e.s != s {
		invariantf("expression %d used with a foreign session", e.n.id)
	}
	return e.n
}

func (e Expr) IsNil() bool       { return e.n == nil }
func (e Expr) Session() *Session { return e.s }
func (e Expr) Kind() Kind        { return e.n.kind }
func (e Expr) ID() uint64        { return e.n.id }
func (e Expr) Hash() uint64      { return e.n.hash }
func (e Expr) Refs() int         { return int(e.n.refs) }
func (e Expr) Same(o Expr) bool  { return e.n == o.n }
func (e Expr) Canonical() bool   { return e.n.kind.Canonical() }
func (e Expr) Temporary() bool   { return e.n.has(flagTemporary) }
func (e Expr) Release()          { e.s.release(e.n) }

func (e Expr) Clone() Expr {
	e.s.retain(e.n)
	return e
}

// Weak returns a non-owning reference to e's node.
func (e Expr) Weak() Weak {
	if !e.n.has(flagWeak) {
		e.n.flags |= flagWeak
		e.s.weak.Register(e.n.id, e.n)
	}
	return Weak{s: e.s, id: e.n.id}
}

// Weak detects, without preventing, the destruction of a node.
type Weak struct {
	s  *Session
	id uint64
}

// Lock returns a new owning handle if the node is still alive.
func (w Weak) Lock() (Expr, bool) {
	if w.s == nil || w.s.closed {
		return Expr{}, false
	}
	n, ok := w.s.weak.Lookup(w.id)
	if !ok || n.refs <= 0 || n.has(flagDying) {
		return Expr{}, false
	}
	return w.s.wrap(w.s.retain(n)), true
}

func (w Weak) Expired() bool {
	if w.s == nil || w.s.closed {
		return true
	}
	n, ok := w.s.weak.Lookup(w.id)
	return !ok || n.refs <= 0 || n.has(flagDying)
}
