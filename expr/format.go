package expr

import (
	"strings"

	"github.com/cottand/symdag/value"
)

// String renders e in the syntax accepted by the parser: Go expression
// syntax with pow, exp and log as functions.
func (e Expr) String() string {
	if e.n == nil {
		return "<nil>"
	}
	var sb strings.Builder
	writeExpr(&sb, e, false)
	return sb.String()
}

// writeExpr writes e, in parentheses when it is a sum used as a factor.
func writeExpr(sb *strings.Builder, e Expr, factor bool) {
	switch e.n.kind {
	case KindScalar:
		v := e.n.scalar
		if factor && v.Sign() < 0 {
			sb.WriteString("(" + v.String() + ")")
			return
		}
		sb.WriteString(v.String())
	case KindSymbol:
		sb.WriteString(e.n.name)
	case KindFunction:
		f := Function{e}
		sb.WriteString(f.Name())
		sb.WriteByte('(')
		for i := 0; i < f.Arity(); i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeExpr(sb, f.Arg(i), false)
		}
		sb.WriteByte(')')
	case KindAdditive:
		if factor {
			sb.WriteByte('(')
			defer sb.WriteByte(')')
		}
		writeAdditive(sb, Additive{e})
	case KindMultiplicative:
		writeMultiplicative(sb, Multiplicative{e})
	case KindAddBuilder:
		b := Builder{e}
		if !b.Scale().IsOne() {
			writeFactor(sb, b.Scale())
			factor = true
		}
		if factor {
			sb.WriteByte('(')
			defer sb.WriteByte(')')
		}
		first := true
		for i := 0; i < b.Len(); i++ {
			c, arg, special := b.Item(i)
			writeTerm(sb, c, first, func() {
				if special {
					sb.WriteString("log(")
					writeExpr(sb, arg, false)
					sb.WriteByte(')')
					return
				}
				writeExpr(sb, arg, true)
			})
			first = false
		}
		if first {
			sb.WriteByte('0')
		}
	case KindMulBuilder:
		b := Builder{e}
		first := true
		if v := b.Scale(); !v.IsOne() || b.Len() == 0 {
			if v.Sign() < 0 {
				sb.WriteString("(" + v.String() + ")")
			} else {
				sb.WriteString(v.String())
			}
			first = false
		}
		for i := 0; i < b.Len(); i++ {
			p, arg, special := b.Item(i)
			if !first {
				sb.WriteByte('*')
			}
			first = false
			switch {
			case special:
				sb.WriteString("exp(")
				if !p.IsOne() {
					writeFactor(sb, p)
				}
				writeExpr(sb, arg, !p.IsOne())
				sb.WriteByte(')')
			case p.IsOne():
				writeExpr(sb, arg, true)
			default:
				writePow(sb, arg, p)
			}
		}
	}
}

func writeAdditive(sb *strings.Builder, a Additive) {
	first := true
	for i := 0; i < a.Len(); i++ {
		writeTerm(sb, a.Coef(i), first, func() { writeExpr(sb, a.Term(i), true) })
		first = false
	}
	if coef, arg, ok := a.Log(); ok {
		writeTerm(sb, coef, first, func() {
			sb.WriteString("log(")
			writeExpr(sb, arg, false)
			sb.WriteByte(')')
		})
		first = false
	}
	if off := a.Offset(); !off.IsZero() || first {
		switch {
		case first:
			sb.WriteString(off.String())
		case off.Sign() < 0:
			sb.WriteString(" - " + off.Neg().String())
		default:
			sb.WriteString(" + " + off.String())
		}
	}
}

// writeTerm writes coef·body with the sign folded into the separator.
func writeTerm(sb *strings.Builder, coef value.Value, first bool, body func()) {
	neg := coef.Sign() < 0
	switch {
	case first && neg:
		sb.WriteByte('-')
	case neg:
		sb.WriteString(" - ")
	case !first:
		sb.WriteString(" + ")
	}
	if mag := coef.Abs(); !mag.IsOne() {
		writeFactor(sb, mag)
	}
	body()
}

func writeFactor(sb *strings.Builder, v value.Value) {
	if v.Sign() < 0 {
		sb.WriteString("(" + v.String() + ")*")
		return
	}
	sb.WriteString(v.String() + "*")
}

func writeMultiplicative(sb *strings.Builder, m Multiplicative) {
	first := true
	sep := func() {
		if !first {
			sb.WriteByte('*')
		}
		first = false
	}
	for i := 0; i < m.IntLen(); i++ {
		sep()
		if k := m.IntPower(i); k == 1 {
			writeExpr(sb, m.IntBase(i), true)
		} else {
			writePow(sb, m.IntBase(i), value.Int(k))
		}
	}
	for i := 0; i < m.RealLen(); i++ {
		sep()
		writePow(sb, m.RealBase(i), m.RealPower(i))
	}
	if arg, ok := m.Exp(); ok {
		sep()
		sb.WriteString("exp(")
		writeExpr(sb, arg, false)
		sb.WriteByte(')')
	}
}

func writePow(sb *strings.Builder, base Expr, p value.Value) {
	sb.WriteString("pow(")
	writeExpr(sb, base, false)
	sb.WriteString(", " + p.String() + ")")
}
