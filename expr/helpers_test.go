package expr

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/cottand/symdag/value"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, configure ...func(*Config)) *Session {
	t.Helper()
	cfg := DefaultConfig()
	for _, c := range configure {
		c(&cfg)
	}
	s := NewSession(cfg)
	t.Cleanup(s.Close)
	return s
}

// symbols returns one handle per name, released when the test ends.
func symbols(t *testing.T, s *Session, names ...string) []Expr {
	t.Helper()
	out := make([]Expr, len(names))
	for i, name := range names {
		out[i] = s.Symbol(name)
		t.Cleanup(out[i].Release)
	}
	return out
}

// keep releases e when the test ends and returns it.
func keep(t *testing.T, e Expr) Expr {
	t.Helper()
	t.Cleanup(e.Release)
	return e
}

func num(f float64) value.Value { return value.Of(f) }

func randomEnv(rng *rand.Rand, names ...string) Env {
	vars := make(map[string]float64, len(names))
	for _, name := range names {
		// positive and away from zero, so real powers and logs stay defined
		vars[name] = 0.5 + 2*rng.Float64()
	}
	return NewEnv(vars)
}

// requireSameValue evaluates a and b at several random points.
func requireSameValue(t *testing.T, a, b Expr) {
	t.Helper()
	names := FreeSymbols(a)
	names = append(names, FreeSymbols(b)...)
	rng := rand.New(rand.NewPCG(1, 2))
	for range 8 {
		env := randomEnv(rng, names...)
		va, err := Evaluate(a, env)
		require.NoError(t, err)
		vb, err := Evaluate(b, env)
		require.NoError(t, err)
		tolerance := 1e-9 * math.Max(1, math.Abs(va.Float64()))
		require.InDelta(t, va.Float64(), vb.Float64(), tolerance, "%s != %s", a, b)
	}
}
