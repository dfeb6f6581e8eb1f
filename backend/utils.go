package backend

import (
	"go/token"
	"math"
	"strconv"

	goast "go/ast"
)

const goVersion = "1.23.3"

// symbolToGoFuncs maps the functions known to expr.Evaluate to their math
// package counterparts.
var symbolToGoFuncs = map[string]string{
	"abs":   "Abs",
	"sqrt":  "Sqrt",
	"cbrt":  "Cbrt",
	"sin":   "Sin",
	"cos":   "Cos",
	"tan":   "Tan",
	"asin":  "Asin",
	"acos":  "Acos",
	"atan":  "Atan",
	"sinh":  "Sinh",
	"cosh":  "Cosh",
	"tanh":  "Tanh",
	"floor": "Floor",
	"ceil":  "Ceil",
	"atan2": "Atan2",
	"hypot": "Hypot",
	"min":   "Min",
	"max":   "Max",
}

// paramName prefixes symbols so they never clash with Go keywords, the math
// import or the temporaries.
func paramName(symbol string) string { return "v_" + symbol }

func funcName(name string) string { return "F_" + name }

func tempName(i int) string { return "t" + strconv.Itoa(i) }

func (tp *Transpiler) mathCall(fn string, args ...goast.Expr) goast.Expr {
	tp.usesMath = true
	return &goast.CallExpr{
		Fun:  &goast.SelectorExpr{X: goast.NewIdent("math"), Sel: goast.NewIdent(fn)},
		Args: args,
	}
}

func (tp *Transpiler) floatLit(f float64) goast.Expr {
	switch {
	case math.IsNaN(f):
		return tp.mathCall("NaN")
	case math.IsInf(f, 0):
		sign := 1
		if f < 0 {
			sign = -1
		}
		return tp.mathCall("Inf", &goast.BasicLit{Kind: token.INT, Value: strconv.Itoa(sign)})
	case f < 0 || f == 0 && math.Signbit(f):
		return &goast.UnaryExpr{Op: token.SUB, X: tp.floatLit(-f)}
	}
	lit := strconv.FormatFloat(f, 'g', -1, 64)
	return &goast.BasicLit{Kind: token.FLOAT, Value: lit}
}

// operand parenthesizes x where printing it as an operand of an operator
// with precedence prec would change its meaning.
func operand(x goast.Expr, prec int, right bool) goast.Expr {
	switch x := x.(type) {
	case *goast.BinaryExpr:
		if p := x.Op.Precedence(); p < prec || right && p == prec {
			return &goast.ParenExpr{X: x}
		}
	case *goast.UnaryExpr:
		if right {
			return &goast.ParenExpr{X: x}
		}
	}
	return x
}

func binary(x goast.Expr, op token.Token, y goast.Expr) goast.Expr {
	p := op.Precedence()
	return &goast.BinaryExpr{X: operand(x, p, false), Op: op, Y: operand(y, p, true)}
}
