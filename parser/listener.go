package parser

import (
	"fmt"
	"go/ast"
	"go/token"
	"strconv"

	"github.com/cottand/symdag/expr"
	"github.com/cottand/symdag/util"
	"github.com/cottand/symdag/value"
	"github.com/gomlx/exceptions"
)

// listener walks a Go expression tree and assembles the expression
// bottom-up: exiting a node pops its operands off exprStack and pushes the
// combined expression.
type listener struct {
	s    *expr.Session
	fset *token.FileSet

	// position of the parsed text within the whole source
	line, column, start int

	entered   []ast.Node
	exprStack util.Stack[expr.Expr]
	err       error
}

func (l *listener) build(tree ast.Expr) (expr.Expr, error) {
	ast.Walk(l, tree)
	if l.err != nil {
		for _, e := range l.exprStack.PopAll() {
			e.Release()
		}
		return expr.Expr{}, l.err
	}
	e, ok := l.exprStack.Pop()
	if !ok || l.exprStack.Len() != 0 {
		exceptions.Panicf("parser: %d expressions left after walking the tree", l.exprStack.Len())
	}
	return e, nil
}

func (l *listener) fail(n ast.Node, format string, args ...any) {
	if l.err == nil {
		l.err = at(l.fset.Position(n.Pos()), l.line, l.column, l.start, fmt.Sprintf(format, args...))
	}
}

func (l *listener) Visit(n ast.Node) ast.Visitor {
	if l.err != nil {
		return nil
	}
	if n == nil {
		last := l.entered[len(l.entered)-1]
		l.entered = l.entered[:len(l.entered)-1]
		l.exit(last)
		return nil
	}
	switch n := n.(type) {
	case *ast.CallExpr:
		// the callee is a name, not an operand
		if _, ok := n.Fun.(*ast.Ident); !ok {
			l.fail(n, "only named functions can be called")
			return nil
		}
		if n.Ellipsis.IsValid() {
			l.fail(n, "variadic calls are not supported")
			return nil
		}
		for _, arg := range n.Args {
			ast.Walk(l, arg)
		}
		if l.err == nil {
			l.exitCall(n)
		}
		return nil
	case *ast.Ident, *ast.BasicLit, *ast.ParenExpr, *ast.UnaryExpr, *ast.BinaryExpr:
		l.entered = append(l.entered, n)
		return l
	default:
		l.fail(n, "unsupported syntax %T", n)
		return nil
	}
}

func (l *listener) exit(n ast.Node) {
	if l.err != nil {
		return
	}
	switch n := n.(type) {
	case *ast.Ident:
		switch n.Name {
		case "Inf":
			l.exprStack.Push(l.s.Scalar(value.Inf(1)))
		case "NaN":
			l.exprStack.Push(l.s.Scalar(value.NaN()))
		default:
			l.exprStack.Push(l.s.Symbol(n.Name))
		}
	case *ast.BasicLit:
		v, err := literal(n)
		if err != nil {
			l.fail(n, "%v", err)
			return
		}
		l.exprStack.Push(l.s.Scalar(v))
	case *ast.ParenExpr:
	case *ast.UnaryExpr:
		switch n.Op {
		case token.ADD:
		case token.SUB:
			x := l.pop()
			l.exprStack.Push(l.s.NewSum().AddScaled(value.MinusOne(), x).Expr())
			x.Release()
		default:
			l.fail(n, "unsupported operator %s", n.Op)
		}
	case *ast.BinaryExpr:
		l.exitBinary(n)
	}
}

func (l *listener) pop() expr.Expr {
	e, ok := l.exprStack.Pop()
	if !ok {
		exceptions.Panicf("parser: expression stack underflow")
	}
	return e
}

func (l *listener) exitBinary(n *ast.BinaryExpr) {
	switch n.Op {
	case token.ADD, token.SUB, token.MUL, token.QUO:
	default:
		l.fail(n, "unsupported operator %s", n.Op)
		return
	}
	y, x := l.pop(), l.pop()
	defer x.Release()
	defer y.Release()
	switch n.Op {
	case token.ADD:
		l.exprStack.Push(l.s.NewSum().Add(x).Add(y).Expr())
	case token.SUB:
		l.exprStack.Push(l.s.NewSum().Add(x).AddScaled(value.MinusOne(), y).Expr())
	case token.MUL:
		l.exprStack.Push(l.s.NewProduct().Mul(x).Mul(y).Expr())
	case token.QUO:
		l.exprStack.Push(l.s.NewProduct().Mul(x).Pow(y, value.MinusOne()).Expr())
	}
}

func (l *listener) exitCall(n *ast.CallExpr) {
	name := n.Fun.(*ast.Ident).Name
	args := make([]expr.Expr, len(n.Args))
	for i := len(args) - 1; i >= 0; i-- {
		args[i] = l.pop()
	}
	defer func() {
		for _, a := range args {
			a.Release()
		}
	}()

	arity := func(want int) bool {
		if len(args) != want {
			l.fail(n, "%s expects %d arguments, got %d", name, want, len(args))
			return false
		}
		return true
	}
	switch name {
	case "exp":
		if arity(1) {
			l.exprStack.Push(l.s.NewProduct().Exp(value.One(), args[0]).Expr())
		}
	case "log":
		if arity(1) {
			l.exprStack.Push(l.s.NewSum().AddLog(value.One(), args[0]).Expr())
		}
	case "sqrt":
		if arity(1) {
			l.exprStack.Push(l.s.NewProduct().Pow(args[0], value.Of(0.5)).Expr())
		}
	case "abs":
		if arity(1) {
			l.exprStack.Push(l.s.Abs(args[0]))
		}
	case "pow":
		if arity(2) {
			l.exprStack.Push(l.pow(args[0], args[1]))
		}
	default:
		l.exprStack.Push(l.s.Apply(name, args...))
	}
}

// pow keeps constant exponents as powers and rewrites the general case as
// exp(p·log(b)).
func (l *listener) pow(base, p expr.Expr) expr.Expr {
	c := l.s.Canonicalize(p)
	defer c.Release()
	if v, ok := c.ScalarValue(); ok {
		return l.s.NewProduct().Pow(base, v).Expr()
	}
	lg := l.s.NewSum().AddLog(value.One(), base).Expr()
	defer lg.Release()
	arg := l.s.NewProduct().Mul(p).Mul(lg).Expr()
	defer arg.Release()
	return l.s.NewProduct().Exp(value.One(), arg).Expr()
}

func literal(lit *ast.BasicLit) (value.Value, error) {
	switch lit.Kind {
	case token.INT:
		i, err := strconv.ParseInt(lit.Value, 0, 64)
		if err != nil {
			return value.Value{}, err
		}
		return value.Int(i), nil
	case token.FLOAT:
		f, err := strconv.ParseFloat(lit.Value, 64)
		if err != nil {
			return value.Value{}, err
		}
		return value.Of(f), nil
	default:
		return value.Value{}, fmt.Errorf("unsupported literal %s", lit.Value)
	}
}
