package expr

import (
	"math"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/symdag/value"
	"github.com/pkg/errors"
)

var (
	ErrUnboundSymbol   = errors.New("unbound symbol")
	ErrUnknownFunction = errors.New("unknown function")
)

// Env assigns values to symbols. It is persistent, so environments for
// nested scopes share structure.
type Env = *immutable.Map[string, value.Value]

func NewEnv(vars map[string]float64) Env {
	b := immutable.NewMapBuilder[string, value.Value](immutable.NewHasher(""))
	for name, v := range vars {
		b.Set(name, value.Of(v))
	}
	return b.Map()
}

// Func is a numeric function callable from expressions.
type Func struct {
	Arity int
	Call  func(args []float64) float64
}

func unaryFunc(f func(float64) float64) Func {
	return Func{Arity: 1, Call: func(args []float64) float64 { return f(args[0]) }}
}

func binaryFunc(f func(float64, float64) float64) Func {
	return Func{Arity: 2, Call: func(args []float64) float64 { return f(args[0], args[1]) }}
}

// Funcs are the functions known to Evaluate and to the Go backend. Each one
// is named after its math package counterpart.
var Funcs = map[string]Func{
	"abs":   unaryFunc(math.Abs),
	"sqrt":  unaryFunc(math.Sqrt),
	"cbrt":  unaryFunc(math.Cbrt),
	"sin":   unaryFunc(math.Sin),
	"cos":   unaryFunc(math.Cos),
	"tan":   unaryFunc(math.Tan),
	"asin":  unaryFunc(math.Asin),
	"acos":  unaryFunc(math.Acos),
	"atan":  unaryFunc(math.Atan),
	"sinh":  unaryFunc(math.Sinh),
	"cosh":  unaryFunc(math.Cosh),
	"tanh":  unaryFunc(math.Tanh),
	"floor": unaryFunc(math.Floor),
	"ceil":  unaryFunc(math.Ceil),
	"atan2": binaryFunc(math.Atan2),
	"hypot": binaryFunc(math.Hypot),
	"min":   binaryFunc(math.Min),
	"max":   binaryFunc(math.Max),
}

// Evaluate computes e under env. Shared subexpressions are evaluated once.
func Evaluate(e Expr, env Env) (value.Value, error) {
	ev := &evaluator{env: env, memo: make(map[uint64]value.Value)}
	v := ev.eval(e)
	if ev.err != nil {
		return value.NaN(), ev.err
	}
	return v, nil
}

type evaluator struct {
	env  Env
	memo map[uint64]value.Value
	err  error
}

func (ev *evaluator) eval(e Expr) value.Value {
	if ev.err != nil {
		return value.NaN()
	}
	if v, ok := ev.memo[e.n.id]; ok {
		return v
	}
	v := Visit[value.Value](e, ev)
	ev.memo[e.n.id] = v
	return v
}

func (ev *evaluator) VisitScalar(_ Expr, v value.Value) value.Value { return v }

func (ev *evaluator) VisitSymbol(_ Expr, name string) value.Value {
	v, ok := ev.env.Get(name)
	if !ok {
		ev.err = errors.Wrapf(ErrUnboundSymbol, "evaluating %s", name)
		return value.NaN()
	}
	return v
}

func (ev *evaluator) VisitFunction(_ Expr, f Function) value.Value {
	fn, ok := Funcs[f.Name()]
	if !ok || fn.Arity != f.Arity() {
		ev.err = errors.Wrapf(ErrUnknownFunction, "%s with %d arguments", f.Name(), f.Arity())
		return value.NaN()
	}
	args := make([]float64, f.Arity())
	for i := range args {
		args[i] = ev.eval(f.Arg(i)).Float64()
	}
	return value.Of(fn.Call(args))
}

func (ev *evaluator) VisitAdditive(_ Expr, a Additive) value.Value {
	sum := a.Offset()
	for i := 0; i < a.Len(); i++ {
		sum = sum.Add(a.Coef(i).Mul(ev.eval(a.Term(i))))
	}
	if coef, arg, ok := a.Log(); ok {
		sum = sum.Add(coef.Mul(ev.eval(arg).Log()))
	}
	return sum
}

func (ev *evaluator) VisitMultiplicative(_ Expr, m Multiplicative) value.Value {
	prod := value.One()
	for i := 0; i < m.IntLen(); i++ {
		prod = prod.Mul(ev.eval(m.IntBase(i)).PowInt(m.IntPower(i)))
	}
	for i := 0; i < m.RealLen(); i++ {
		prod = prod.Mul(ev.eval(m.RealBase(i)).PowReal(m.RealPower(i)))
	}
	if arg, ok := m.Exp(); ok {
		prod = prod.Mul(ev.eval(arg).Exp())
	}
	return prod
}

func (ev *evaluator) VisitBuilder(_ Expr, b Builder) value.Value {
	if b.Sum() {
		sum := value.Zero()
		for i := 0; i < b.Len(); i++ {
			c, arg, special := b.Item(i)
			v := ev.eval(arg)
			if special {
				v = v.Log()
			}
			sum = sum.Add(c.Mul(v))
		}
		return sum.Mul(b.Scale())
	}
	prod := b.Scale()
	for i := 0; i < b.Len(); i++ {
		p, arg, special := b.Item(i)
		v := ev.eval(arg)
		if special {
			prod = prod.Mul(p.Mul(v).Exp())
			continue
		}
		prod = prod.Mul(powValue(v, p))
	}
	return prod
}
