package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pair struct {
	a, b uint64
}

func TestPoolRecyclesBySizeClass(t *testing.T) {
	p := NewPool[pair](nil)

	s, ok := p.Get(3)
	require.True(t, ok)
	assert.Len(t, s, 3)
	assert.Equal(t, 4, cap(s))
	assert.Equal(t, 8, p.Stats().LiveWords)

	s[0] = pair{1, 2}
	p.Put(s)
	st := p.Stats()
	assert.Equal(t, 0, st.LiveWords)
	assert.Equal(t, 8, st.PooledWords)
	assert.Equal(t, map[int]int{8: 1}, st.Classes)

	again, ok := p.Get(4)
	require.True(t, ok)
	assert.Equal(t, pair{}, again[0], "recycled storage must be zeroed")
	assert.Equal(t, 0, p.Stats().PooledWords)
}

func TestPoolBudget(t *testing.T) {
	budget := &Budget{Limit: 10}
	p := NewPool[pair](budget)

	s, ok := p.Get(4)
	require.True(t, ok)
	_, ok = p.Get(2)
	assert.False(t, ok, "8 + 4 words exceeds a limit of 10")

	p.Put(s)
	assert.Equal(t, 8, budget.Reserved(), "pooled blocks still count against the budget")
	p.Purge()
	assert.Equal(t, 0, budget.Reserved())

	_, ok = p.Get(2)
	assert.True(t, ok)
}

func TestSlab(t *testing.T) {
	budget := &Budget{}
	s := NewSlab[pair](budget)
	a, ok := s.New()
	require.True(t, ok)
	a.a = 7
	s.Free(a)
	assert.Equal(t, 0, s.Live())

	b, ok := s.New()
	require.True(t, ok)
	assert.Same(t, a, b)
	assert.Equal(t, uint64(0), b.a)

	s.Free(b)
	s.Purge()
	assert.Equal(t, 0, budget.Reserved())
}
