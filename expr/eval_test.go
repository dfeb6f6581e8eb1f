package expr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	s := newTestSession(t)
	env := NewEnv(map[string]float64{"x": 2, "y": 3})

	tests := []struct {
		build build
		want  float64
	}{
		{bSum(x, y, bNum(1)), 6},
		{bProd(x, y, bNum(2)), 12},
		{bPow(x, 10), 1024},
		{bPow(x, 0.5), math.Sqrt2},
		{bExp(bLog(y)), 3},
		{bSum(bLog(x), bLog(y)), math.Log(6)},
		{bCall("hypot", bNum(3), bNum(4)), 5},
		{bCall("abs", bTimes(-1, x)), 2},
	}
	for _, tt := range tests {
		e := keep(t, tt.build(s))
		t.Run(e.String(), func(t *testing.T) {
			got, err := Evaluate(e, env)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got.Float64(), 1e-12)

			c := keep(t, s.Canonicalize(e))
			got, err = Evaluate(c, env)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got.Float64(), 1e-12)
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	s := newTestSession(t)
	env := NewEnv(map[string]float64{"x": 1})

	_, err := Evaluate(keep(t, bSum(x, z)(s)), env)
	assert.ErrorIs(t, err, ErrUnboundSymbol)
	assert.Contains(t, err.Error(), "z")

	_, err = Evaluate(keep(t, bCall("frobnicate", x)(s)), env)
	assert.ErrorIs(t, err, ErrUnknownFunction)

	_, err = Evaluate(keep(t, bCall("sin", x, x)(s)), env)
	assert.ErrorIs(t, err, ErrUnknownFunction, "wrong arity")
}

func TestFreeSymbols(t *testing.T) {
	s := newTestSession(t)
	e := keep(t, bSum(bProd(y, x), bExp(x), bCall("sin", z), bNum(4))(s))
	assert.Equal(t, []string{"x", "y", "z"}, FreeSymbols(e))
	assert.Equal(t, []string{"x", "y", "z"}, FreeSymbols(keep(t, s.Canonicalize(e))))
	assert.Empty(t, FreeSymbols(keep(t, s.Float(1))))
}

func TestSubstitute(t *testing.T) {
	s := newTestSession(t)
	e := keep(t, s.Canonicalize(keep(t, bSum(bProd(x, y), bCall("sin", x))(s))))
	repl := keep(t, s.Canonicalize(keep(t, bSum(z, bNum(1))(s))))

	got := keep(t, s.Substitute(e, "x", repl))
	assert.True(t, got.Canonical())
	assert.Equal(t, []string{"y", "z"}, FreeSymbols(got))

	env := NewEnv(map[string]float64{"y": 3, "z": 0.5})
	v, err := Evaluate(got, env)
	require.NoError(t, err)
	assert.InDelta(t, 1.5*3+math.Sin(1.5), v.Float64(), 1e-12)

	same := keep(t, s.Substitute(e, "w", repl))
	assert.True(t, same.Same(e))
}

func TestStringRoundTrips(t *testing.T) {
	s := newTestSession(t)
	tests := []struct {
		build build
		want  string
	}{
		{bSum(x, bTimes(-2, y)), "x - 2*y"},
		{bSum(bTimes(-1, x), bNum(-3)), "-x - 3"},
		{bProd(bSum(x, y), z), "z*(x + y)"},
		{bPow(x, -0.5), "pow(x, -0.5)"},
		{bLog(bSum(x, bNum(1))), "log(x + 1)"},
		{bCall("atan2", y, x), "atan2(y, x)"},
	}
	for _, tt := range tests {
		c := keep(t, s.Canonicalize(keep(t, tt.build(s))))
		assert.Equal(t, tt.want, c.String())
	}
}
