package expr

import (
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceCounting(t *testing.T) {
	s := newTestSession(t)
	x := s.Symbol("x")
	assert.Equal(t, 1, x.Refs())

	again := s.Symbol("x")
	assert.True(t, again.Same(x))
	assert.Equal(t, 2, x.Refs())

	clone := x.Clone()
	assert.Equal(t, 3, x.Refs())

	sum := s.Add(x, keep(t, s.Float(1)))
	assert.Equal(t, 4, x.Refs(), "the sum holds its term")

	for _, e := range []Expr{again, clone, x} {
		e.Release()
	}
	assert.Equal(t, 1, sum.AsAdditive().Term(0).Refs())
	sum.Release()
	assert.Zero(t, s.Stats().Live[KindSymbol])
}

func TestWeakHandles(t *testing.T) {
	s := newTestSession(t)
	x := s.Symbol("x")
	id := x.ID()
	weak := x.Weak()
	assert.False(t, weak.Expired())

	locked, ok := weak.Lock()
	require.True(t, ok)
	assert.True(t, locked.Same(x))
	assert.Equal(t, 2, x.Refs())
	locked.Release()

	x.Release()
	assert.True(t, weak.Expired())
	_, ok = weak.Lock()
	assert.False(t, ok)
	assert.Zero(t, s.Stats().WeakRefs)

	// a new node with the same payload is not the one the weak handle saw
	fresh := keep(t, s.Symbol("x"))
	assert.NotEqual(t, id, fresh.ID())
	assert.True(t, weak.Expired())
}

func TestWeakHandleOutlivesSession(t *testing.T) {
	s := NewSession(DefaultConfig())
	x := s.Symbol("x")
	weak := x.Weak()
	s.Close()
	assert.True(t, weak.Expired())
	_, ok := weak.Lock()
	assert.False(t, ok)
	x.Release()
}

func TestForeignSession(t *testing.T) {
	s, other := newTestSession(t), newTestSession(t)
	x := keep(t, s.Symbol("x"))
	y := keep(t, other.Symbol("y"))

	err := exceptions.TryCatch[error](func() { s.Add(x, y) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "foreign session")
	assert.Equal(t, 1, x.Refs())
}

func TestWrongKind(t *testing.T) {
	s := newTestSession(t)
	x := keep(t, s.Symbol("x"))
	err := exceptions.TryCatch[error](func() { x.AsAdditive() })
	assert.ErrorIs(t, err, ErrWrongKind)

	_, ok := x.ScalarValue()
	assert.False(t, ok)
	name, ok := x.SymbolName()
	assert.True(t, ok)
	assert.Equal(t, "x", name)
}

func TestBuilderLifecycle(t *testing.T) {
	s := newTestSession(t)
	x := keep(t, s.Symbol("x"))

	b := s.NewSum().Add(x).AddConst(num(2))
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, 1, s.Stats().Builders)
	e := b.Expr()
	assert.False(t, e.Canonical())
	assert.False(t, e.Temporary())
	assert.Equal(t, "x + 2", e.String())

	err := exceptions.TryCatch[error](func() { b.Add(x) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "builder used after it was consumed")

	e.Release()
	assert.Zero(t, s.Stats().Builders)
	assert.Equal(t, 1, x.Refs())

	p := s.NewProduct().Mul(x).PowInt(x, 2)
	p.Discard()
	p.Discard()
	assert.Zero(t, s.Stats().Builders)
	assert.Equal(t, 1, x.Refs())
}

func TestSharedBuilderIsNotMutable(t *testing.T) {
	s := newTestSession(t)
	b := s.NewSum().AddConst(num(1))
	clone := s.wrap(s.retain(b.n))
	defer clone.Release()

	err := exceptions.TryCatch[error](func() { b.AddConst(num(2)) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in-place mutation")
	b.Discard()
	assert.Equal(t, 1, clone.Refs())
}

func TestDiscardSharedBuilder(t *testing.T) {
	s := newTestSession(t)
	x := symbols(t, s, "x")[0]
	p := s.NewProduct().Mul(x)
	shared := s.wrap(s.retain(p.n))

	assert.NotPanics(t, p.Discard)
	assert.NotPanics(t, p.Discard)
	assert.Equal(t, 1, shared.Refs())
	assert.Equal(t, 1, s.Stats().Builders)
	assert.Equal(t, "x", shared.String())

	shared.Release()
	assert.Zero(t, s.Stats().Builders)
	assert.Equal(t, 1, x.Refs())
}

func TestBuilderItems(t *testing.T) {
	s := newTestSession(t)
	xy := symbols(t, s, "x", "y")
	e := keep(t, s.NewProduct().Scale(num(3)).Mul(xy[0]).Exp(num(2), xy[1]).Expr())

	bv := e.AsBuilder()
	assert.False(t, bv.Sum())
	assert.Equal(t, num(3), bv.Scale())
	require.Equal(t, 2, bv.Len())
	p, arg, special := bv.Item(1)
	assert.Equal(t, num(2), p)
	assert.True(t, arg.Same(xy[1]))
	assert.True(t, special)
	assert.Equal(t, "3*x*exp(2*y)", e.String())

	var children []string
	for c := range e.Children() {
		children = append(children, c.String())
	}
	assert.Equal(t, []string{"x", "y"}, children)
}
