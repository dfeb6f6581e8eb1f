package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	x, y, z = bSym("x"), bSym("y"), bSym("z")
	a, b, w = bSym("a"), bSym("b"), bSym("w")
)

func TestFactorExtraction(t *testing.T) {
	tests := []struct {
		name  string
		build build
		want  string
	}{
		{"common factor", bSum(bProd(x, y), bProd(x, z)), "x*(y + z)"},
		{"with offset", bSum(bProd(x, y), bProd(x, z), bNum(3)), "x*(y + z) + 3"},
		{"with other term", bSum(bProd(x, y), bProd(x, z), w), "w + x*(y + z)"},
		{"with log", bSum(bProd(x, y), bProd(x, z), bLog(w)), "x*(y + z) + log(w)"},
		{"scaled", bSum(bTimes(2, bProd(x, y)), bTimes(4, bProd(x, z))), "2*x*(y + 2*z)"},
		{"negative power", bSum(bProd(y, bPow(x, -1)), bProd(z, bPow(x, -1))), "pow(x, -1)*(y + z)"},
		{"exp factor", bSum(bProd(y, bExp(a)), bProd(z, bExp(a))), "(y + z)*exp(a)"},
		{"real factor", bSum(bProd(y, bPow(x, 0.5)), bProd(z, bPow(x, 0.5))), "(y + z)*pow(x, 0.5)"},
		{"factor group", bSum(bProd(a, x, y), bProd(b, x, y)), "x*y*(a + b)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t)
			e := keep(t, tt.build(s))
			c := keep(t, s.Canonicalize(e))
			assert.Equal(t, tt.want, c.String())
			requireSameValue(t, e, c)
		})
	}
}

func TestHornerForm(t *testing.T) {
	s := newTestSession(t)
	e := keep(t, bSum(x, bPow(x, 2), bPow(x, 3))(s))
	c := keep(t, s.Canonicalize(e))
	require.Equal(t, KindMultiplicative, c.Kind(), "got %s", c)
	requireSameValue(t, e, c)

	// the nested sum is factored too
	m := c.AsMultiplicative()
	var nested int
	for i := 0; i < m.IntLen(); i++ {
		if m.IntBase(i).Kind() == KindAdditive {
			nested++
			inner := m.IntBase(i).AsAdditive()
			require.Equal(t, 1, inner.Len())
			assert.Equal(t, KindMultiplicative, inner.Term(0).Kind())
		}
	}
	assert.Equal(t, 1, nested)
}

func TestFactoredSumsAreIdempotent(t *testing.T) {
	s := newTestSession(t)
	c := keep(t, s.Canonicalize(keep(t, bSum(bProd(x, y), bProd(x, z), w)(s))))
	again := keep(t, s.NewSum().Add(c).Build())
	assert.True(t, again.Same(c), "%s became %s", c, again)
}

func TestDisableCSE(t *testing.T) {
	s := newTestSession(t, func(cfg *Config) { cfg.DisableCSE = true })
	c := keep(t, s.Canonicalize(keep(t, bSum(bProd(x, y), bProd(x, z))(s))))
	require.Equal(t, KindAdditive, c.Kind())
	assert.Equal(t, 2, c.AsAdditive().Len())
	assert.Equal(t, "x*z + x*y", c.String())
	assert.Zero(t, s.Stats().CacheStores)
}

func TestCacheReusesFactorization(t *testing.T) {
	s := newTestSession(t)
	sum := bSum(bProd(x, y), bProd(x, z))

	first := keep(t, s.Canonicalize(keep(t, sum(s))))
	st := s.Stats()
	assert.Equal(t, uint64(1), st.CacheStores)
	assert.Equal(t, 1, st.CacheEntries)
	assert.Zero(t, st.CacheHits)

	second := keep(t, s.Canonicalize(keep(t, sum(s))))
	assert.True(t, first.Same(second))
	assert.Equal(t, uint64(1), s.Stats().CacheHits)
}

func TestCacheEntriesAreSound(t *testing.T) {
	s := newTestSession(t)
	for _, e := range []build{
		bSum(bProd(x, y), bProd(x, z)),
		bSum(bTimes(3, bProd(a, x)), bTimes(6, bProd(a, y)), bProd(a, z)),
		bSum(bProd(y, bExp(a)), bProd(z, bExp(a)), bTimes(-2, bExp(a))),
	} {
		keep(t, s.Canonicalize(keep(t, e(s))))
	}
	require.Equal(t, 3, s.Stats().CacheEntries)

	for _, k := range s.cache.lru.Keys() {
		v, ok := s.cache.lru.Peek(k)
		require.True(t, ok)
		entry := v.(*cacheEntry)
		assert.True(t, entry.replacement.has(flagTracked))
		assert.False(t, entry.key.has(flagTracked))
		key := s.wrap(entry.key)
		rebuilt := keep(t, s.Mul(s.wrap(entry.replacement), keep(t, s.Scalar(entry.scale))))
		requireSameValue(t, key, rebuilt)
	}
}

func TestCacheEviction(t *testing.T) {
	s := newTestSession(t, func(cfg *Config) { cfg.CacheCapacity = 1 })
	first := keep(t, s.Canonicalize(keep(t, bSum(bProd(x, y), bProd(x, z))(s))))
	keys := s.cache.lru.Keys()
	require.Len(t, keys, 1)
	v, _ := s.cache.lru.Peek(keys[0])
	firstKey := s.wrap(v.(*cacheEntry).key).Weak()

	keep(t, s.Canonicalize(keep(t, bSum(bProd(a, b), bProd(a, z))(s))))
	assert.Equal(t, 1, s.Stats().CacheEntries)
	assert.False(t, s.cache.lru.Contains(keys[0]))
	assert.True(t, firstKey.Expired(), "evicted key should have been destroyed")

	hits := s.Stats().CacheHits
	again := keep(t, s.Canonicalize(keep(t, bSum(bProd(x, y), bProd(x, z))(s))))
	assert.True(t, again.Same(first))
	assert.Equal(t, hits, s.Stats().CacheHits)
}

func TestCacheEntryFollowsResult(t *testing.T) {
	s := newTestSession(t)
	e := bSum(bProd(x, y), bProd(x, z))(s)
	c := s.Canonicalize(e)
	e.Release()
	require.Equal(t, 1, s.Stats().CacheEntries)

	swapped := bSum(bProd(x, z), bProd(x, y))(s)
	again := s.Canonicalize(swapped)
	swapped.Release()
	assert.True(t, again.Same(c))
	assert.Equal(t, uint64(1), s.Stats().CacheHits)
	again.Release()
	assert.Equal(t, 1, s.Stats().CacheEntries, "a handle to the result is still alive")

	c.Release()
	st := s.Stats()
	assert.Zero(t, st.CacheEntries)
	assert.Zero(t, s.LiveNodes())
}

func TestCacheDisabled(t *testing.T) {
	s := newTestSession(t, func(cfg *Config) { cfg.CacheCapacity = 0 })
	sum := bSum(bProd(x, y), bProd(x, z))
	first := keep(t, s.Canonicalize(keep(t, sum(s))))
	second := keep(t, s.Canonicalize(keep(t, sum(s))))
	assert.True(t, first.Same(second))
	st := s.Stats()
	assert.Zero(t, st.CacheEntries)
	assert.Zero(t, st.CacheHits)
}

func TestReclaimClearsCache(t *testing.T) {
	s := newTestSession(t)
	e := keep(t, bSum(bProd(x, y), bProd(x, z))(s))
	c := keep(t, s.Canonicalize(e))
	require.Equal(t, 1, s.Stats().CacheEntries)
	before := s.LiveNodes()

	s.reclaim()
	st := s.Stats()
	assert.Zero(t, st.CacheEntries)
	assert.Equal(t, 1, st.Reclaims)
	assert.Less(t, s.LiveNodes(), before)
	requireSameValue(t, e, c)
}

func TestPredictorSeesNestedLookups(t *testing.T) {
	s := newTestSession(t)
	keep(t, s.Canonicalize(keep(t, bSum(bProd(x, y), bProd(x, z))(s))))
	_, misses := s.predictor.Observations()
	assert.NotZero(t, misses)
}

func TestTopLevelLookupIgnoresPredictor(t *testing.T) {
	s := newTestSession(t)
	for range 4 {
		s.predictor.Observe(1, false)
	}
	require.False(t, s.predictor.Predict(1))

	sum := bSum(bProd(x, y), bProd(x, z))
	first := keep(t, s.Canonicalize(keep(t, sum(s))))
	second := keep(t, s.Canonicalize(keep(t, sum(s))))
	assert.True(t, first.Same(second))
	assert.Equal(t, uint64(1), s.Stats().CacheHits)
}
