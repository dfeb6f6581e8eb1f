// Package value is the numeric type used for coefficients, offsets and exponents.
//
// A Value is an IEEE-754 double. Unlike a bare float64 it has a total order
// (NaN sorts after +Inf and equals itself) and a hash consistent with that
// order, so it can take part in hash-consing.
package value

import (
	"math"
	"strconv"
)

type Value struct {
	f float64
}

var (
	zero     = Value{0}
	one      = Value{1}
	minusOne = Value{-1}
)

func Zero() Value     { return zero }
func One() Value      { return one }
func MinusOne() Value { return minusOne }
func NaN() Value      { return Value{math.NaN()} }

// Inf returns +Inf if sign >= 0, -Inf otherwise.
func Inf(sign int) Value { return Value{math.Inf(sign)} }

func Of(f float64) Value { return Value{f} }
func Int(i int64) Value  { return Value{float64(i)} }

func (v Value) Float64() float64 { return v.f }

func (v Value) Add(o Value) Value { return Value{v.f + o.f} }
func (v Value) Sub(o Value) Value { return Value{v.f - o.f} }
func (v Value) Mul(o Value) Value { return Value{v.f * o.f} }
func (v Value) Div(o Value) Value { return Value{v.f / o.f} }
func (v Value) Neg() Value        { return Value{-v.f} }
func (v Value) Abs() Value        { return Value{math.Abs(v.f)} }
func (v Value) Exp() Value        { return Value{math.Exp(v.f)} }
func (v Value) Log() Value        { return Value{math.Log(v.f)} }

// PowInt raises v to an integer power by repeated squaring, so that small
// exact powers stay exact.
func (v Value) PowInt(n int64) Value {
	if n == 0 {
		return one
	}
	neg := n < 0
	if neg {
		n = -n
	}
	result, base := 1.0, v.f
	for n > 0 {
		if n&1 == 1 {
			result *= base
		}
		base *= base
		n >>= 1
	}
	if neg {
		return Value{1 / result}
	}
	return Value{result}
}

func (v Value) PowReal(p Value) Value {
	if p.IsInt() && math.Abs(p.f) < 1<<31 {
		return v.PowInt(int64(p.f))
	}
	return Value{math.Pow(v.f, p.f)}
}

func (v Value) IsZero() bool   { return v.f == 0 }
func (v Value) IsOne() bool    { return v.f == 1 }
func (v Value) IsNaN() bool    { return math.IsNaN(v.f) }
func (v Value) IsFinite() bool { return !math.IsNaN(v.f) && !math.IsInf(v.f, 0) }

func (v Value) IsInt() bool {
	return v.IsFinite() && v.f == math.Trunc(v.f)
}

// Int64 truncates v. Only meaningful when IsInt holds.
func (v Value) Int64() int64 { return int64(v.f) }

// Sign returns -1, 0 or +1. NaN has sign 0.
func (v Value) Sign() int {
	switch {
	case v.f > 0:
		return 1
	case v.f < 0:
		return -1
	}
	return 0
}

// Cmp is a total order: -Inf < finite < +Inf < NaN, with -0 == +0 and NaN == NaN.
func (v Value) Cmp(o Value) int {
	vn, on := v.IsNaN(), o.IsNaN()
	switch {
	case vn && on:
		return 0
	case vn:
		return 1
	case on:
		return -1
	case v.f < o.f:
		return -1
	case v.f > o.f:
		return 1
	}
	return 0
}

func (v Value) Equal(o Value) bool { return v.Cmp(o) == 0 }

// Less reports whether v sorts before o under Cmp.
func (v Value) Less(o Value) bool { return v.Cmp(o) < 0 }

// Bits returns a canonical bit pattern: every NaN maps to the same bits and
// -0 maps to +0.
func (v Value) Bits() uint64 {
	switch {
	case v.IsNaN():
		return 0x7ff8000000000001
	case v.f == 0:
		return 0
	}
	return math.Float64bits(v.f)
}

// Hash is consistent with Equal.
func (v Value) Hash() uint64 {
	// splitmix64 finalizer
	z := v.Bits() + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// String formats v so that the expression parser reads it back: infinities
// are Inf and -Inf.
func (v Value) String() string {
	if math.IsInf(v.f, 1) {
		return "Inf"
	}
	return strconv.FormatFloat(v.f, 'g', -1, 64)
}
