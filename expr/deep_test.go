package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deep = 100000

func TestDeepFunctionChainRelease(t *testing.T) {
	s := newTestSession(t)
	e := s.Symbol("x")
	for range deep {
		next := s.Apply("f", e)
		e.Release()
		e = next
	}
	assert.Equal(t, deep, s.Stats().Live[KindFunction])
	e.Release()
	assert.Zero(t, s.LiveNodes())
	// a chain only ever has one pending release
	assert.LessOrEqual(t, s.Stats().ReleaseSlots, 16)
}

func TestDeepBuilderChain(t *testing.T) {
	s := newTestSession(t)
	x := symbols(t, s, "x")[0]

	e := s.NewSum().Add(x).Expr()
	for range deep {
		next := s.NewSum().Add(x).Add(e).Expr()
		e.Release()
		e = next
	}
	c := keep(t, s.Canonicalize(e))
	e.Release()
	assert.Zero(t, s.Stats().Builders)

	require.Equal(t, KindAdditive, c.Kind())
	a := c.AsAdditive()
	require.Equal(t, 1, a.Len())
	assert.Equal(t, num(deep+1), a.Coef(0))
}

func TestDeepProductChain(t *testing.T) {
	s := newTestSession(t)
	x := symbols(t, s, "x")[0]

	e := s.NewProduct().Mul(x).Expr()
	for range deep {
		next := s.NewProduct().Mul(x).Mul(e).Expr()
		e.Release()
		e = next
	}
	c := keep(t, s.Canonicalize(e))
	e.Release()

	require.Equal(t, KindMultiplicative, c.Kind())
	m := c.AsMultiplicative()
	require.Equal(t, 1, m.IntLen())
	assert.Equal(t, int64(deep+1), m.IntPower(0))
}
